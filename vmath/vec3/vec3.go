package vec3

import (
	"math"

	"rtweekend/randsource"
)

// T is a point, direction, or linear RGB color.
type T [3]float64

// Splat returns a vector with every component set to x.
func Splat(x float64) T {
	return T{x, x, x}
}

func (v T) Norm() float64 {
	return math.Sqrt(v.NormSquared())
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// NearZero reports whether every component is within 1e-8 of zero.
func (v T) NearZero() bool {
	const delta = 1e-8
	return math.Abs(v[0]) < delta && math.Abs(v[1]) < delta && math.Abs(v[2]) < delta
}

// Normalize returns v scaled to unit length.  A zero vector yields NaNs.
func Normalize(v T) T {
	l := v.Norm()
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the componentwise product, used to filter one color by another.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Lerp blends from a (t=0) to b (t=1).
func Lerp(t float64, a, b T) T {
	return AddVV(MulVS(a, 1.0-t), MulVS(b, t))
}

// Reflect mirrors a about the plane with normal n.  n must be unit length.
func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Refract bends the unit vector uv through a surface with unit normal n, where
// etaRatio is the ratio of the refractive indices (incident over transmitted).
//
// The caller must have ruled out total internal reflection.
func Refract(uv, n T, etaRatio float64) T {
	cosTheta := math.Min(IProd(Neg(uv), n), 1.0)
	perp := MulVS(AddVV(uv, MulVS(n, cosTheta)), etaRatio)
	parallel := MulVS(n, -math.Sqrt(math.Abs(1.0-perp.NormSquared())))
	return AddVV(perp, parallel)
}

// Random returns a vector with components in [0, 1).
func Random(src randsource.Source) T {
	return T{src.Float64(), src.Float64(), src.Float64()}
}

// RandomRange returns a vector with components in [min, max).
func RandomRange(src randsource.Source, min, max float64) T {
	return T{
		src.Range(min, max),
		src.Range(min, max),
		src.Range(min, max),
	}
}

// RandomInUnitSphere rejection-samples a point strictly inside the unit ball.
func RandomInUnitSphere(src randsource.Source) T {
	for {
		p := RandomRange(src, -1, 1)
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}

// RandomInUnitDisk rejection-samples a point strictly inside the unit disk in
// the z=0 plane.
func RandomInUnitDisk(src randsource.Source) T {
	for {
		p := T{src.Range(-1, 1), src.Range(-1, 1), 0}
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}

// RandomUnitVector returns a point on the unit sphere, obtained by normalizing
// a RandomInUnitSphere sample.
func RandomUnitVector(src randsource.Source) T {
	return Normalize(RandomInUnitSphere(src))
}
