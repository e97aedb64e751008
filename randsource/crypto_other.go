//go:build !linux && !windows

package randsource

import (
	"crypto/rand"
	"fmt"
	"io"
)

type readerProvider struct {
	r io.Reader
}

func openProvider() (entropyProvider, error) {
	return readerProvider{r: rand.Reader}, nil
}

func (p readerProvider) Fill(buf []byte) error {
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return fmt.Errorf("while reading system entropy: %w", err)
	}
	return nil
}

func (readerProvider) Close() error {
	return nil
}
