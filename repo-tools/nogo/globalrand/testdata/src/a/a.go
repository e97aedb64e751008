package a

import (
	"math/rand"
)

func shared() float64 {
	rand.Seed(1)                   // want `math/rand.Seed uses the package-level random source`
	_ = rand.Intn(10)              // want `math/rand.Intn uses the package-level random source`
	pick := rand.Float64           // want `math/rand.Float64 uses the package-level random source`
	rand.Shuffle(3, swap)          // want `math/rand.Shuffle uses the package-level random source`
	return pick() + rand.Float64() // want `math/rand.Float64 uses the package-level random source`
}

func swap(i, j int) {}

func explicit() float64 {
	r := rand.New(rand.NewSource(42))
	var src rand.Source = rand.NewSource(7)
	_ = src.Int63()
	_ = rand.NewZipf(r, 2, 1, 10)
	return r.Float64()
}
