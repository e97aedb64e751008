// Package camera maps normalized image coordinates to primary rays.
package camera

import (
	"math"

	"rtweekend/randsource"
	"rtweekend/ray"
	"rtweekend/vmath/mat33"
	"rtweekend/vmath/vec3"
)

// Params describes a thin-lens camera.  VerticalFOV is in degrees.
type Params struct {
	LookFrom      vec3.T
	LookAt        vec3.T
	Up            vec3.T
	VerticalFOV   float64
	AspectRatio   float64
	Aperture      float64
	FocusDistance float64
}

// Camera is immutable after New and safe to share between render workers.
type Camera struct {
	Origin vec3.T

	// Columns are u (right), v (up) and w (backward, away from the scene).
	LensToWorld mat33.T

	Horizontal      vec3.T
	Vertical        vec3.T
	LowerLeftCorner vec3.T
	LensRadius      float64
}

func New(p Params) *Camera {
	theta := p.VerticalFOV * math.Pi / 180.0
	h := math.Tan(theta / 2)
	viewportHeight := 2.0 * h
	viewportWidth := p.AspectRatio * viewportHeight

	w := vec3.Normalize(vec3.SubVV(p.LookFrom, p.LookAt))
	u := vec3.Normalize(vec3.CProd(p.Up, w))
	v := vec3.CProd(w, u)

	c := &Camera{
		Origin:      p.LookFrom,
		LensToWorld: mat33.FromColumns(u, v, w),
		Horizontal:  vec3.MulVS(u, p.FocusDistance*viewportWidth),
		Vertical:    vec3.MulVS(v, p.FocusDistance*viewportHeight),
		LensRadius:  p.Aperture / 2,
	}

	c.LowerLeftCorner = c.Origin
	c.LowerLeftCorner = vec3.SubVV(c.LowerLeftCorner, vec3.MulVS(c.Horizontal, 0.5))
	c.LowerLeftCorner = vec3.SubVV(c.LowerLeftCorner, vec3.MulVS(c.Vertical, 0.5))
	c.LowerLeftCorner = vec3.SubVV(c.LowerLeftCorner, vec3.MulVS(w, p.FocusDistance))
	return c
}

func (c *Camera) U() vec3.T { return c.LensToWorld.Column(0) }
func (c *Camera) V() vec3.T { return c.LensToWorld.Column(1) }
func (c *Camera) W() vec3.T { return c.LensToWorld.Column(2) }

// ImageToRay returns the primary ray through image point (s, t), where (0, 0)
// is the lower-left corner and (1, 1) the upper-right.  The ray leaves from a
// random point on the lens disk, so only points on the focus plane are sharp.
func (c *Camera) ImageToRay(s, t float64, src randsource.Source) ray.Ray {
	rd := vec3.MulVS(vec3.RandomInUnitDisk(src), c.LensRadius)
	offset := mat33.MulMV(c.LensToWorld, vec3.T{rd[0], rd[1], 0})

	point := vec3.AddVV(c.Origin, offset)
	target := c.LowerLeftCorner
	target = vec3.AddVV(target, vec3.MulVS(c.Horizontal, s))
	target = vec3.AddVV(target, vec3.MulVS(c.Vertical, t))

	return ray.Ray{
		Point: point,
		Slope: vec3.SubVV(target, point),
	}
}
