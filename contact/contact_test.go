package contact

import (
	"testing"

	"rtweekend/ray"
	"rtweekend/vmath/vec3"
)

func TestSetFaceNormal(t *testing.T) {
	outward := vec3.T{0, 0, 1}

	for _, tc := range []struct {
		name      string
		slope     vec3.T
		wantFront bool
		wantN     vec3.T
	}{
		{"from outside", vec3.T{0, 0, -1}, true, vec3.T{0, 0, 1}},
		{"from inside", vec3.T{0, 0, 1}, false, vec3.T{0, 0, -1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := &ray.Ray{Slope: tc.slope}
			c := None()
			c.SetFaceNormal(r, outward)

			if c.FrontFace != tc.wantFront {
				t.Errorf("Bad FrontFace; got %v, want %v", c.FrontFace, tc.wantFront)
			}
			if c.N != tc.wantN {
				t.Errorf("Bad normal; got %v, want %v", c.N, tc.wantN)
			}
			if vec3.IProd(c.N, r.Slope) >= 0 {
				t.Errorf("Normal %v doesn't oppose ray direction %v", c.N, r.Slope)
			}
		})
	}
}

func TestNoneSentinel(t *testing.T) {
	if got := None().T; got != -1 {
		t.Errorf("Bad sentinel T; got %v, want -1", got)
	}
}
