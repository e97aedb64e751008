package contact

import (
	"rtweekend/ray"
	"rtweekend/vmath/vec3"
)

// Contact describes where a ray met a surface.
type Contact struct {
	// Ray parameter of the hit.  -1 means no hit has been recorded.
	T float64

	// World-space hit point.
	P vec3.T

	// Unit surface normal, always facing against the incoming ray.
	N vec3.T

	// FrontFace is true when the ray arrived from the side the geometric
	// normal points to.
	FrontFace bool
}

// None returns the sentinel "no prior hit" contact.
func None() Contact {
	return Contact{T: -1}
}

// SetFaceNormal stores outward as the normal, flipping it to face r if r
// originates on the inside.
func (c *Contact) SetFaceNormal(r *ray.Ray, outward vec3.T) {
	c.FrontFace = vec3.IProd(r.Slope, outward) < 0.0
	if c.FrontFace {
		c.N = outward
	} else {
		c.N = vec3.Neg(outward)
	}
}
