package ray

import (
	"math"

	"rtweekend/vmath/vec3"
)

// Span is a closed interval [Lo, Hi] of ray parameters.
type Span struct {
	Lo, Hi float64
}

// Forward is the span used for scene queries: it starts slightly in front of
// the origin so a scattered ray does not re-hit the surface it left.
func Forward() Span {
	return Span{0.001, math.Inf(1)}
}

// Contains reports whether Lo <= t <= Hi.
func (s Span) Contains(t float64) bool {
	return s.Lo <= t && t <= s.Hi
}

// Ray is the half-line Point + t*Slope.
//
// Slope is not normalized, so parameter values are only comparable between
// queries against the same Ray.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}
