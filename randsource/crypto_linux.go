package randsource

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// getrandomProvider reads from getrandom(2).  The kernel interface has no
// handle, so Close is a no-op.
type getrandomProvider struct{}

func openProvider() (entropyProvider, error) {
	// Probe once so a kernel without getrandom fails at open time.
	var probe [1]byte
	if _, err := unix.Getrandom(probe[:], 0); err != nil {
		return nil, fmt.Errorf("while probing getrandom: %w", err)
	}
	return getrandomProvider{}, nil
}

func (getrandomProvider) Fill(buf []byte) error {
	for len(buf) > 0 {
		n, err := unix.Getrandom(buf, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("while calling getrandom: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}

func (getrandomProvider) Close() error {
	return nil
}
