// Package imaging holds the in-memory image buffer the pipeline stages own
// and mutate in place. Buffers are interleaved float32 RGB; ownership moves
// stage to stage, never shared.
package imaging

import (
	"fmt"

	"github.com/lookforge/lookforge/pkg/colorspace"
)

// Image is a height x width x 3 buffer of float32 samples, channel order
// R,G,B, interleaved. Linear or log-encoded depending on pipeline stage.
type Image struct {
	W, H int
	Pix  []float32
}

// New allocates a zeroed image buffer.
func New(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]float32, w*h*3)}
}

// At returns the pixel at (x, y).
func (im *Image) At(x, y int) (r, g, b float32) {
	i := (y*im.W + x) * 3
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
}

// Set stores the pixel at (x, y).
func (im *Image) Set(x, y int, r, g, b float32) {
	i := (y*im.W + x) * 3
	im.Pix[i], im.Pix[i+1], im.Pix[i+2] = r, g, b
}

// Validate checks the buffer shape.
func (im *Image) Validate() error {
	if im.W <= 0 || im.H <= 0 {
		return fmt.Errorf("invalid image size %dx%d", im.W, im.H)
	}
	if len(im.Pix) != im.W*im.H*3 {
		return fmt.Errorf("pixel buffer length %d does not match %dx%dx3", len(im.Pix), im.W, im.H)
	}
	return nil
}

// ApplyGain multiplies every sample by g in place.
func (im *Image) ApplyGain(g float64) {
	f := float32(g)
	for i := range im.Pix {
		im.Pix[i] *= f
	}
}

// ApplyMatrix multiplies every pixel, as a column vector, by m in place.
func (im *Image) ApplyMatrix(m colorspace.Matrix3) {
	for i := 0; i < len(im.Pix); i += 3 {
		r := float64(im.Pix[i])
		g := float64(im.Pix[i+1])
		b := float64(im.Pix[i+2])
		im.Pix[i] = float32(m[0][0]*r + m[0][1]*g + m[0][2]*b)
		im.Pix[i+1] = float32(m[1][0]*r + m[1][1]*g + m[1][2]*b)
		im.Pix[i+2] = float32(m[2][0]*r + m[2][1]*g + m[2][2]*b)
	}
}

// ClampFloor raises every sample to at least floor. Log curves are
// undefined at or below zero, so this runs before any encode.
func (im *Image) ClampFloor(floor float32) {
	for i, v := range im.Pix {
		if v < floor {
			im.Pix[i] = floor
		}
	}
}

// Clamp01 clamps every sample into [0, 1].
func (im *Image) Clamp01() {
	for i, v := range im.Pix {
		if v < 0 {
			im.Pix[i] = 0
		} else if v > 1 {
			im.Pix[i] = 1
		}
	}
}

// EncodeCurve applies the curve's encode function elementwise in place.
func (im *Image) EncodeCurve(c *colorspace.Curve) {
	for i, v := range im.Pix {
		im.Pix[i] = float32(c.Encode(float64(v)))
	}
}

// Luminance returns the weighted luminance of the pixel at (x, y).
func (im *Image) Luminance(x, y int, w colorspace.Vec3) float64 {
	r, g, b := im.At(x, y)
	return float64(r)*w[0] + float64(g)*w[1] + float64(b)*w[2]
}

// MeanLuminance returns the arithmetic mean of the weighted luminance over
// the whole image.
func (im *Image) MeanLuminance(w colorspace.Vec3) float64 {
	if im.W == 0 || im.H == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < len(im.Pix); i += 3 {
		sum += float64(im.Pix[i])*w[0] + float64(im.Pix[i+1])*w[1] + float64(im.Pix[i+2])*w[2]
	}
	return sum / float64(im.W*im.H)
}
