package main

import (
	"flag"
	"io"
	"testing"

	"rtweekend/vmath/vec3"
)

func TestVecFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	v := &vecFlag{13, 2, 3}
	fs.Var(v, "look-from", "")

	if got := v.String(); got != "13,2,3" {
		t.Errorf("Bad default; got %q, want \"13,2,3\"", got)
	}

	if err := fs.Parse([]string{"-look-from", "-1.5, 0,2e2"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := v.Vec(); got != (vec3.T{-1.5, 0, 200}) {
		t.Errorf("Bad parsed vector; got %v, want [-1.5 0 200]", got)
	}

	for _, bad := range []string{"1,2", "1,2,3,4", "a,b,c", ""} {
		if err := v.Set(bad); err == nil {
			t.Errorf("Expected an error for %q, got nil", bad)
		}
	}
}
