package mat33

import (
	"testing"

	"rtweekend/vmath/vec3"
)

func TestFromColumnsMulMV(t *testing.T) {
	a := vec3.T{1, 2, 3}
	b := vec3.T{4, 5, 6}
	c := vec3.T{7, 8, 9}
	m := FromColumns(a, b, c)

	got := MulMV(m, vec3.T{1, 10, 100})
	want := vec3.T{1 + 40 + 700, 2 + 50 + 800, 3 + 60 + 900}
	if got != want {
		t.Errorf("Bad MulMV; got %v, want %v", got, want)
	}

	for i, col := range []vec3.T{a, b, c} {
		if got := m.Column(i); got != col {
			t.Errorf("Bad column %d; got %v, want %v", i, got, col)
		}
	}
}
