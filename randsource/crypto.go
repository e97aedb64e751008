package randsource

import (
	"encoding/binary"
	"math"

	"github.com/golang/glog"
)

// CryptoBufferSize is the number of entropy bytes fetched per refill.
const CryptoBufferSize = 1024 * 1024

const (
	fractionBits = 52
	exponentBias = 1023

	// epsilon is the gap between 1.0 and the next double.
	epsilon = 0x1p-52
)

// entropyProvider is the platform handle that fills buffers with
// cryptographically secure bytes.
type entropyProvider interface {
	Fill(buf []byte) error
	Close() error
}

// Crypto draws from the operating system's CSPRNG through a large buffer.
//
// Any failure to open, read or release the provider is fatal: a render made
// from a broken entropy source cannot be trusted, and there is no weaker
// source to fall back to.
type Crypto struct {
	provider entropyProvider
	buf      []byte
	pos      int
}

// NewCrypto opens the platform entropy provider and fills the first buffer.
func NewCrypto() *Crypto {
	p, err := openProvider()
	if err != nil {
		glog.Fatalf("Failed to open entropy provider: %v", err)
	}
	return newCryptoWithProvider(p, CryptoBufferSize)
}

func newCryptoWithProvider(p entropyProvider, size int) *Crypto {
	c := &Crypto{
		provider: p,
		buf:      make([]byte, size),
	}
	c.reload()
	return c
}

func (c *Crypto) reload() {
	if err := c.provider.Fill(c.buf); err != nil {
		glog.Fatalf("Failed to fill entropy buffer: %v", err)
	}
	c.pos = 0
}

// read copies len(dst) buffered bytes into dst, refilling as needed.
func (c *Crypto) read(dst []byte) {
	for len(dst) > 0 {
		if c.pos == len(c.buf) {
			c.reload()
		}
		n := copy(dst, c.buf[c.pos:])
		c.pos += n
		dst = dst[n:]
	}
}

func (c *Crypto) Float64() float64 {
	var b [8]byte
	c.read(b[:])
	return mantissaDouble(binary.LittleEndian.Uint64(b[:]))
}

func (c *Crypto) Range(min, max float64) float64 {
	return remap(c, min, max)
}

// Close releases the provider handle.
func (c *Crypto) Close() error {
	if err := c.provider.Close(); err != nil {
		glog.Fatalf("Failed to close entropy provider: %v", err)
	}
	return nil
}

// mantissaDouble maps the top 52 bits of v onto [0, 1).
//
// The bits become the mantissa of a double with a zero exponent, which lies in
// [1, 2).  Subtracting 1 - epsilon/2 shifts that into (0, 1) without ever
// reaching 1.0.
func mantissaDouble(v uint64) float64 {
	fraction := v >> (64 - fractionBits)
	exponent := uint64(exponentBias) << fractionBits
	return math.Float64frombits(fraction|exponent) - (1.0 - epsilon/2.0)
}
