package b

import (
	"math"
)

type Rand struct{}

func (Rand) Float64() float64 { return 0.5 }

func clean() float64 {
	var r Rand
	return math.Sqrt(r.Float64())
}
