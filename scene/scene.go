package scene

import (
	"math"

	"rtweekend/camera"
	"rtweekend/geometry"
	"rtweekend/randsource"
	"rtweekend/ray"
	"rtweekend/vmath/vec3"
)

// Scene is everything a render worker reads.  Nothing in it is modified once
// rendering starts, so a single *Scene is shared by all workers.
type Scene struct {
	World  *geometry.World
	Camera *camera.Camera
}

var (
	skyHorizon = vec3.T{1.0, 1.0, 1.0}
	skyZenith  = vec3.T{0.5, 0.7, 1.0}
)

// Background is the radiance arriving along r from infinity: a vertical
// gradient from white at the horizon to light blue overhead.
func Background(r ray.Ray) vec3.T {
	dir := vec3.Normalize(r.Slope)
	t := 0.5 * (dir[1] + 1.0)
	return vec3.Lerp(t, skyHorizon, skyZenith)
}

// SampleRay estimates the radiance arriving back along initialQuery, following
// at most maxDepth bounces.  Paths that are absorbed, or still bouncing when
// the budget runs out, contribute black.
func (s *Scene) SampleRay(initialQuery ray.Ray, src randsource.Source, maxDepth int) vec3.T {
	attenuation := vec3.T{1, 1, 1}
	curRay := initialQuery

	for i := 0; i < maxDepth; i++ {
		c, hitIndex := s.World.Hit(&curRay, ray.Forward())
		if hitIndex == -1 {
			return vec3.MulVV(attenuation, Background(curRay))
		}

		shading, ok := s.World.Material(hitIndex).Scatter(src, curRay, c)
		if !ok {
			return vec3.T{}
		}

		attenuation = vec3.MulVV(attenuation, shading.Attenuation)
		curRay = shading.Scattered
	}

	return vec3.T{}
}

// imageCoord maps pixel index k (plus jitter) in a dimension of n pixels onto
// [0, 1].
func imageCoord(k int, jitter float64, n int) float64 {
	return (float64(k) + jitter) / math.Max(float64(n-1), 1)
}
