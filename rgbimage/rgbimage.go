// Package rgbimage holds the 8-bit output buffer of a render and its
// encoders.
package rgbimage

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"rtweekend/vmath/vec3"
)

// Image is a packed RGB buffer, three bytes per pixel.  Row 0 is the top of
// the picture.
type Image struct {
	Width, Height int
	Pix           []byte
}

func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]byte, 3*width*height),
	}
}

// RowOffset returns the offset in Pix of scanline i.  Scanlines are numbered
// bottom-up, the way the camera's t coordinate runs, so scanline Height-1 is
// stored first.
func (im *Image) RowOffset(i int) int {
	return 3 * im.Width * (im.Height - 1 - i)
}

// Scanline returns the slice of Pix holding scanline i.  Distinct scanlines
// never overlap, so they may be filled concurrently.
func (im *Image) Scanline(i int) []byte {
	off := im.RowOffset(i)
	return im.Pix[off : off+3*im.Width]
}

// At returns the color of pixel (x, y), y counting down from the top.
func (im *Image) At(x, y int) [3]byte {
	off := 3 * (y*im.Width + x)
	return [3]byte{im.Pix[off], im.Pix[off+1], im.Pix[off+2]}
}

// EncodeColor averages an accumulated radiance sum over samples, applies
// gamma 2 and quantizes each channel to a byte.
//
// The clamp runs even on NaN (which becomes 0), so the result is always a
// valid byte.
func EncodeColor(sum vec3.T, samples int) [3]byte {
	scale := 1.0 / float64(samples)

	var out [3]byte
	for i := 0; i < 3; i++ {
		c := math.Sqrt(scale * sum[i])
		out[i] = byte(256 * clamp(c, 0.0, 0.999))
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// WritePPM writes im as a plain-text (P3) PPM.
func WritePPM(im *Image, w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", im.Width, im.Height); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	for off := 0; off+2 < len(im.Pix); off += 3 {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", im.Pix[off], im.Pix[off+1], im.Pix[off+2]); err != nil {
			return fmt.Errorf("while writing pixel %d: %w", off/3, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing: %w", err)
	}
	return nil
}

// WritePNG writes im as an 8-bit opaque PNG.
func WritePNG(im *Image, w io.Writer) error {
	rgba := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			p := im.At(x, y)
			rgba.SetNRGBA(x, y, color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255})
		}
	}

	if err := png.Encode(w, rgba); err != nil {
		return fmt.Errorf("while encoding png: %w", err)
	}
	return nil
}
