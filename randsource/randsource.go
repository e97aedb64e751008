// Package randsource provides the uniform random streams consumed by the
// renderer.
//
// A Source is not safe for concurrent use.  The render scheduler gives every
// worker its own Source, built through a Factory.
package randsource

import (
	"fmt"
	"io"
)

// Source produces uniform doubles.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64

	// Range returns a value in [min, max).
	Range(min, max float64) float64
}

func remap(s Source, min, max float64) float64 {
	return min + (max-min)*s.Float64()
}

// Kind selects a Source backend.
type Kind int

const (
	KindFast Kind = iota
	KindCrypto
)

func (k Kind) String() string {
	switch k {
	case KindFast:
		return "fast"
	case KindCrypto:
		return "crypto"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "fast":
		return KindFast, nil
	case "crypto":
		return KindCrypto, nil
	}
	return 0, fmt.Errorf("unknown random source kind %q (want fast or crypto)", s)
}

// Factory builds the Source owned by a single worker.
type Factory func(worker int) Source

// NewFactory returns a Factory for the given backend.
//
// Fast sources are seeded with seed+worker, so each worker's stream is
// distinct but reproducible across runs.  The seed is ignored by the crypto
// backend.
func NewFactory(kind Kind, seed uint32) Factory {
	switch kind {
	case KindCrypto:
		return func(worker int) Source {
			return NewCrypto()
		}
	default:
		return func(worker int) Source {
			return NewFast(seed + uint32(worker))
		}
	}
}

// Release closes s if it owns resources.
func Release(s Source) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
