package ray

import (
	"math"
	"testing"

	"rtweekend/vmath/vec3"
)

func TestEval(t *testing.T) {
	r := Ray{Point: vec3.T{1, 2, 3}, Slope: vec3.T{0, 0, -2}}
	if got, want := r.Eval(1.5), (vec3.T{1, 2, 0}); got != want {
		t.Errorf("Bad Eval; got %v, want %v", got, want)
	}
}

func TestSpanContainsIsClosed(t *testing.T) {
	s := Span{0.5, 2}
	for _, tc := range []struct {
		t    float64
		want bool
	}{
		{0.4, false},
		{0.5, true},
		{1, true},
		{2, true},
		{2.1, false},
		{math.NaN(), false},
	} {
		if got := s.Contains(tc.t); got != tc.want {
			t.Errorf("Bad Contains(%v); got %v, want %v", tc.t, got, tc.want)
		}
	}

	if !Forward().Contains(math.Inf(1)) || Forward().Contains(0) {
		t.Errorf("Forward span has wrong bounds: %+v", Forward())
	}
}
