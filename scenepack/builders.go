package scenepack

import (
	"math"

	"rtweekend/geometry"
	"rtweekend/material"
	"rtweekend/randsource"
	"rtweekend/vmath/vec3"
)

const (
	gridLo = -11
	gridHi = 11
)

// addHeroes adds the three large spheres: glass in the middle, left and right
// on either side.
func addHeroes(w *geometry.World, left, right material.Material) {
	w.Add(geometry.Sphere{Center: vec3.T{0, 1, 0}, Radius: 1, Material: material.NewDielectric(1.5)})
	w.Add(geometry.Sphere{Center: vec3.T{-4, 1, 0}, Radius: 1, Material: left})
	w.Add(geometry.Sphere{Center: vec3.T{4, 1, 0}, Radius: 1, Material: right})
}

// addBallGrid scatters 22x22 small balls over the ground.  Every ball draws
// chooseMat and its position from next before its palette runs, in that order.
func addBallGrid(w *geometry.World, next func() float64, pick func(chooseMat float64) material.Material) {
	for a := gridLo; a < gridHi; a++ {
		for b := gridLo; b < gridHi; b++ {
			chooseMat := next()
			x := float64(a) + 0.9*next()
			z := float64(b) + 0.9*next()

			w.Add(geometry.Sphere{
				Center:   vec3.T{x, 0.2, z},
				Radius:   0.2,
				Material: pick(chooseMat),
			})
		}
	}
}

func newWorld() *geometry.World {
	return &geometry.World{Spheres: make([]geometry.Sphere, 0, 22*22+5)}
}

// Random is the cover scene: a large ground sphere, three large spheres and a
// grid of small random balls.
func Random(src randsource.Source) *geometry.World {
	w := newWorld()
	w.Add(geometry.Sphere{Center: vec3.T{0, -1000, 0}, Radius: 1000, Material: material.NewLambertian(vec3.Splat(0.5))})

	addBallGrid(w, src.Float64, func(chooseMat float64) material.Material {
		switch {
		case chooseMat < 0.8:
			albedo := vec3.MulVV(vec3.Random(src), vec3.Random(src))
			return material.NewLambertian(albedo)
		case chooseMat < 0.95:
			return randomMetal(src, 0.5)
		default:
			return material.NewDielectric(1.5)
		}
	})

	addHeroes(w,
		material.NewLambertian(vec3.T{0.4, 0.2, 0.1}),
		material.NewMetal(vec3.T{0.7, 0.6, 0.5}, 0.0))
	return w
}

func randomMetal(src randsource.Source, albedoLo float64) material.Material {
	r := src.Range(albedoLo, 1)
	g := src.Range(albedoLo, 1)
	b := src.Range(albedoLo, 1)
	fuzz := src.Range(0, 0.5)
	return material.NewMetal(vec3.T{r, g, b}, fuzz)
}

// Pastel is Random with a cream ground and pale balls.
func Pastel(src randsource.Source) *geometry.World {
	w := newWorld()
	w.Add(geometry.Sphere{Center: vec3.T{0, -1000, 0}, Radius: 1000, Material: material.NewLambertian(vec3.T{0.95, 0.95, 0.8})})

	addBallGrid(w, src.Float64, func(chooseMat float64) material.Material {
		switch {
		case chooseMat < 0.8:
			r := src.Range(0.9, 1)
			g := src.Range(0.9, 1)
			b := src.Range(0.9, 1)
			return material.NewLambertian(vec3.T{r, g, b})
		case chooseMat < 0.95:
			return randomMetal(src, 0.9)
		default:
			return material.NewDielectric(1.5)
		}
	})

	addPastelHeroes(w)
	return w
}

func addPastelHeroes(w *geometry.World) {
	addHeroes(w,
		material.NewLambertian(vec3.T{1.0, 0.9, 0.8}),
		material.NewMetal(vec3.T{0.6, 0.7, 0.8}, 0.0))
}

// Moon is Pastel with green and blue balls and four huge colored spheres
// hanging around the horizon.
func Moon(src randsource.Source) *geometry.World {
	w := newWorld()
	w.Add(geometry.Sphere{Center: vec3.T{0, -1000, 0}, Radius: 1000, Material: material.NewLambertian(vec3.T{0.95, 0.95, 0.8})})

	// Truncating a [0, 1) draw always yields zero, but the draw still
	// advances the stream.
	zero := func() float64 { return math.Trunc(src.Float64()) }

	addBallGrid(w, src.Float64, func(chooseMat float64) material.Material {
		switch {
		case chooseMat < 0.8:
			r := zero()
			g := src.Range(0.9, 1)
			b := zero()
			return material.NewLambertian(vec3.T{r, g, b})
		case chooseMat < 0.95:
			r := zero()
			g := zero()
			b := src.Range(0.9, 1)
			fuzz := src.Range(0, 0.5)
			return material.NewMetal(vec3.T{r, g, b}, fuzz)
		default:
			return material.NewDielectric(1.5)
		}
	})

	addPastelHeroes(w)

	w.Add(geometry.Sphere{Center: vec3.T{1000, 1000, -1700}, Radius: 700, Material: material.NewLambertian(vec3.T{0.4, 0, 0})})
	w.Add(geometry.Sphere{Center: vec3.T{1000, 0, 0}, Radius: 700, Material: material.NewLambertian(vec3.T{0, 0.3, 0})})
	w.Add(geometry.Sphere{Center: vec3.T{1000, 1300, 2000}, Radius: 700, Material: material.NewLambertian(vec3.T{0, 0, 0.5})})
	w.Add(geometry.Sphere{Center: vec3.T{-1000, 0, 0}, Radius: 700, Material: material.NewLambertian(vec3.T{0.1, 0.2, 0.3})})
	return w
}

// RedBlue is two touching spheres that exactly fill a 90 degree field of view
// from the origin.
func RedBlue(randsource.Source) *geometry.World {
	w := &geometry.World{}
	r := math.Cos(math.Pi / 4)
	w.Add(geometry.Sphere{Center: vec3.T{-r, 0, -1}, Radius: r, Material: material.NewLambertian(vec3.T{1, 0, 0})})
	w.Add(geometry.Sphere{Center: vec3.T{r, 0, -1}, Radius: r, Material: material.NewLambertian(vec3.T{0, 0, 1})})
	return w
}

// Normal is the small three-ball scene: a diffuse ball between a hollow
// glass ball and a polished metal one, on a large yellow ground.
func Normal(randsource.Source) *geometry.World {
	w := &geometry.World{}
	glass := material.NewDielectric(1.5)

	w.Add(geometry.Sphere{Center: vec3.T{0, -100.5, -1}, Radius: 100, Material: material.NewLambertian(vec3.T{0.8, 0.8, 0})})
	w.Add(geometry.Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5, Material: material.NewLambertian(vec3.T{0.1, 0.2, 0.5})})
	w.Add(geometry.Sphere{Center: vec3.T{-1, 0, -1}, Radius: 0.5, Material: glass})
	w.Add(geometry.Sphere{Center: vec3.T{-1, 0, -1}, Radius: -0.4, Material: glass})
	w.Add(geometry.Sphere{Center: vec3.T{1, 0, -1}, Radius: 0.5, Material: material.NewMetal(vec3.T{0.8, 0.6, 0.2}, 0.0)})
	return w
}

// perfSequence is a fixed, cheap stand-in for a random stream: three
// counters stepping by 1, 3 and 7 modulo 100, averaged.
type perfSequence struct {
	a, b, c int
}

func (p *perfSequence) next() float64 {
	p.a = (p.a + 1) % 100
	p.b = (p.b + 3) % 100
	p.c = (p.c + 7) % 100
	return float64(p.a+p.b+p.c) / 300.0
}

// Perf is the Random layout generated without a random source, so every run
// benchmarks the same world.
func Perf(randsource.Source) *geometry.World {
	w := newWorld()
	w.Add(geometry.Sphere{Center: vec3.T{0, -1000, 0}, Radius: 1000, Material: material.NewLambertian(vec3.Splat(0.5))})

	seq := &perfSequence{}
	addBallGrid(w, seq.next, func(chooseMat float64) material.Material {
		switch {
		case chooseMat < 0.8:
			a := vec3.T{seq.next(), seq.next(), seq.next()}
			b := vec3.T{seq.next(), seq.next(), seq.next()}
			return material.NewLambertian(vec3.MulVV(a, b))
		case chooseMat < 0.95:
			r := 0.5 + 0.5*seq.next()
			g := 0.5 + 0.5*seq.next()
			b := 0.5 + 0.5*seq.next()
			fuzz := 0.5 * seq.next()
			return material.NewMetal(vec3.T{r, g, b}, fuzz)
		default:
			return material.NewDielectric(1.5)
		}
	})

	addHeroes(w,
		material.NewLambertian(vec3.T{0.4, 0.2, 0.1}),
		material.NewMetal(vec3.T{0.7, 0.6, 0.5}, 0.0))
	return w
}
