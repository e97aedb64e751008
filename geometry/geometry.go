package geometry

import (
	"math"

	"rtweekend/contact"
	"rtweekend/material"
	"rtweekend/ray"
	"rtweekend/vmath/vec3"
)

// Sphere is immutable once added to a World.
//
// A negative Radius turns the geometric normal inward, which models the inner
// wall of a hollow shell (e.g. a glass bubble).
type Sphere struct {
	Center   vec3.T
	Radius   float64
	Material material.Material
}

// Hit returns the nearest intersection of r with the sphere inside span.
func (s *Sphere) Hit(r *ray.Ray, span ray.Span) (contact.Contact, bool) {
	oc := vec3.SubVV(r.Point, s.Center)
	a := r.Slope.NormSquared()
	halfB := vec3.IProd(r.Slope, oc)
	c := oc.NormSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return contact.None(), false
	}
	sqrtd := math.Sqrt(discriminant)

	root := (-halfB - sqrtd) / a
	if !span.Contains(root) {
		root = (-halfB + sqrtd) / a
		if !span.Contains(root) {
			return contact.None(), false
		}
	}

	result := contact.Contact{
		T: root,
		P: r.Eval(root),
	}
	outward := vec3.DivVS(vec3.SubVV(result.P, s.Center), s.Radius)
	result.SetFaceNormal(r, outward)
	return result, true
}

// World is an ordered list of spheres.  It is not modified while rendering, so
// any number of goroutines may query it.
type World struct {
	Spheres []Sphere
}

func (w *World) Add(s Sphere) int {
	w.Spheres = append(w.Spheres, s)
	return len(w.Spheres) - 1
}

func (w *World) Len() int {
	return len(w.Spheres)
}

// Hit finds the closest intersection of r within span by checking every
// sphere.  It returns the contact and the index of the sphere that was hit, or
// -1 if nothing was.
//
// When two spheres are hit at exactly the same t, the one earlier in Spheres
// wins.
func (w *World) Hit(r *ray.Ray, span ray.Span) (contact.Contact, int) {
	minContact := contact.None()
	minIndex := -1

	for i := range w.Spheres {
		c, ok := w.Spheres[i].Hit(r, span)
		if !ok {
			continue
		}
		// span is closed, so an equal-t hit would otherwise replace the
		// earlier sphere.
		if minIndex != -1 && c.T >= minContact.T {
			continue
		}
		span.Hi = c.T
		minContact = c
		minIndex = i
	}

	return minContact, minIndex
}

// Material returns the material of sphere i.
func (w *World) Material(i int) material.Material {
	return w.Spheres[i].Material
}
