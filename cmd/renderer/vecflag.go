package main

import (
	"fmt"
	"strconv"
	"strings"

	"rtweekend/vmath/vec3"
)

// vecFlag is a flag.Value holding a vector written as "x,y,z".
type vecFlag vec3.T

func (v *vecFlag) String() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v[0], v[1], v[2])
}

func (v *vecFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("want three comma-separated numbers, got %q", s)
	}

	var out vec3.T
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("while parsing component %d: %w", i, err)
		}
		out[i] = f
	}
	*v = vecFlag(out)
	return nil
}

func (v *vecFlag) Vec() vec3.T {
	return vec3.T(*v)
}

func (v *vecFlag) List() []interface{} {
	return []interface{}{v[0], v[1], v[2]}
}
