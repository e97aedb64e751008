package randsource

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// maxFill bounds each RtlGenRandom call, whose length argument is a ULONG.
const maxFill = 1 << 30

type rtlGenRandomProvider struct{}

func openProvider() (entropyProvider, error) {
	return rtlGenRandomProvider{}, nil
}

func (rtlGenRandomProvider) Fill(buf []byte) error {
	for len(buf) > 0 {
		chunk := len(buf)
		if chunk > maxFill {
			chunk = maxFill
		}
		if err := windows.RtlGenRandom(&buf[0], uint32(chunk)); err != nil {
			return fmt.Errorf("while calling RtlGenRandom: %w", err)
		}
		buf = buf[chunk:]
	}
	return nil
}

func (rtlGenRandomProvider) Close() error {
	return nil
}
