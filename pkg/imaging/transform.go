package imaging

import (
	"github.com/lookforge/lookforge/pkg/colorspace"
)

// PositiveFloor is the smallest linear value allowed into a log encode.
// Decoded RAW data can carry small negative noise which no log curve is
// defined for.
const PositiveFloor = 1e-6

// TransformOptions controls the colorimetric transform.
type TransformOptions struct {
	// Adapt enables Bradford chromatic adaptation between differing white
	// points. Off by default: the gamut matrix is derived from the
	// primaries alone.
	Adapt bool
}

// Transform converts img from the src space into the dst working space and
// encodes the given log curve, in place. Steps run in fixed order: gamut
// matrix, positive floor clamp, elementwise encode. Name resolution happens
// at the call sites before any pixel is touched.
func Transform(img *Image, src, dst *colorspace.Space, curve *colorspace.Curve, opts TransformOptions) error {
	if err := img.Validate(); err != nil {
		return err
	}
	m := colorspace.MatrixRGBToRGB(src, dst, opts.Adapt)
	img.ApplyMatrix(m)
	img.ClampFloor(PositiveFloor)
	img.EncodeCurve(curve)
	return nil
}
