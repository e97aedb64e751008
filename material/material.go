// Package material implements the surface scattering models.
//
// Material is a closed variant over the three supported models.  Scatter
// dispatches on Kind; there is no interface to implement.
package material

import (
	"fmt"
	"math"

	"rtweekend/contact"
	"rtweekend/randsource"
	"rtweekend/ray"
	"rtweekend/vmath/vec3"
)

type Kind int

const (
	KindLambertian Kind = iota
	KindMetal
	KindDielectric
)

func (k Kind) String() string {
	switch k {
	case KindLambertian:
		return "lambertian"
	case KindMetal:
		return "metal"
	case KindDielectric:
		return "dielectric"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Material holds the immutable parameters of one scattering model.  Only the
// fields relevant to Kind are meaningful.
type Material struct {
	Kind Kind

	// Albedo filters light leaving a Lambertian or Metal surface.
	Albedo vec3.T

	// Fuzz perturbs Metal reflections.  At most 1.
	Fuzz float64

	// RefractionIndex of a Dielectric, relative to the surrounding medium.
	RefractionIndex float64
}

func NewLambertian(albedo vec3.T) Material {
	return Material{Kind: KindLambertian, Albedo: albedo}
}

// NewMetal clamps fuzz to 1.
func NewMetal(albedo vec3.T, fuzz float64) Material {
	return Material{Kind: KindMetal, Albedo: albedo, Fuzz: math.Min(fuzz, 1.0)}
}

func NewDielectric(refractionIndex float64) Material {
	return Material{Kind: KindDielectric, RefractionIndex: refractionIndex}
}

// ShadeInfo is the outcome of a scattering event.
type ShadeInfo struct {
	// Attenuation multiplies the radiance carried back along Scattered.
	Attenuation vec3.T
	Scattered   ray.Ray
}

// Scatter decides what happens to in at c.  It returns false when the path is
// absorbed.
func (m Material) Scatter(src randsource.Source, in ray.Ray, c contact.Contact) (ShadeInfo, bool) {
	switch m.Kind {
	case KindLambertian:
		return m.scatterLambertian(src, c)
	case KindMetal:
		return m.scatterMetal(src, in, c)
	case KindDielectric:
		return m.scatterDielectric(src, in, c)
	}
	panic(fmt.Sprintf("material: unknown kind %v", m.Kind))
}

func (m Material) scatterLambertian(src randsource.Source, c contact.Contact) (ShadeInfo, bool) {
	dir := vec3.AddVV(c.N, vec3.RandomUnitVector(src))

	// The sample can cancel the normal almost exactly.
	if dir.NearZero() {
		dir = c.N
	}

	return ShadeInfo{
		Attenuation: m.Albedo,
		Scattered:   ray.Ray{Point: c.P, Slope: dir},
	}, true
}

func (m Material) scatterMetal(src randsource.Source, in ray.Ray, c contact.Contact) (ShadeInfo, bool) {
	reflected := vec3.Reflect(vec3.Normalize(in.Slope), c.N)
	dir := vec3.AddVV(reflected, vec3.MulVS(vec3.RandomInUnitSphere(src), m.Fuzz))

	info := ShadeInfo{
		Attenuation: m.Albedo,
		Scattered:   ray.Ray{Point: c.P, Slope: dir},
	}

	// Fuzz can push the reflection below the surface.
	return info, vec3.IProd(dir, c.N) > 0.0
}

func (m Material) scatterDielectric(src randsource.Source, in ray.Ray, c contact.Contact) (ShadeInfo, bool) {
	ratio := m.RefractionIndex
	if c.FrontFace {
		ratio = 1.0 / m.RefractionIndex
	}

	unitDir := vec3.Normalize(in.Slope)
	cosTheta := math.Min(vec3.IProd(vec3.Neg(unitDir), c.N), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	var dir vec3.T
	cannotRefract := ratio*sinTheta > 1.0
	if cannotRefract || Reflectance(cosTheta, ratio) > src.Float64() {
		dir = vec3.Reflect(unitDir, c.N)
	} else {
		dir = vec3.Refract(unitDir, c.N, ratio)
	}

	return ShadeInfo{
		Attenuation: vec3.Splat(1.0),
		Scattered:   ray.Ray{Point: c.P, Slope: dir},
	}, true
}

// Reflectance is Schlick's approximation of the Fresnel reflection
// coefficient for a ray at angle acos(cosine) and index ratio ratio.
func Reflectance(cosine, ratio float64) float64 {
	r0 := (1.0 - ratio) / (1.0 + ratio)
	r0 = r0 * r0
	return r0 + (1.0-r0)*math.Pow(1.0-cosine, 5)
}
