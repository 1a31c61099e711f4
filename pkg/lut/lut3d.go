// Package lut implements 3D colour lookup tables with tetrahedral
// interpolation, plus .cube file I/O.
package lut

import (
	"errors"
	"fmt"

	"github.com/lookforge/lookforge/pkg/imaging"
)

// ErrBadDimensions is returned for non-cubic or degenerate tables.
var ErrBadDimensions = errors.New("invalid LUT dimensions")

// LUT3D is a cubic N x N x N grid of RGB triples over the [0,1]^3 domain.
// The caller maps any physical domain into [0,1] before lookup. Flat layout
// is ((r*N+g)*N+b)*3 + channel: the red axis is outermost, blue innermost.
type LUT3D struct {
	Size  int
	Table []float32
}

// NewLUT3D allocates a zeroed cubic grid. Size must be at least 2 so the
// division count Size-1 is nonzero.
func NewLUT3D(size int) (*LUT3D, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: size %d, need >= 2", ErrBadDimensions, size)
	}
	return &LUT3D{Size: size, Table: make([]float32, size*size*size*3)}, nil
}

// Validate checks the table shape.
func (l *LUT3D) Validate() error {
	if l.Size < 2 {
		return fmt.Errorf("%w: size %d, need >= 2", ErrBadDimensions, l.Size)
	}
	if len(l.Table) != l.Size*l.Size*l.Size*3 {
		return fmt.Errorf("%w: table length %d does not match size %d", ErrBadDimensions, len(l.Table), l.Size)
	}
	return nil
}

// index returns the flat offset of grid cell (r, g, b).
func (l *LUT3D) index(r, g, b int) int {
	return ((r*l.Size+g)*l.Size + b) * 3
}

// At returns the RGB triple stored at grid cell (r, g, b).
func (l *LUT3D) At(r, g, b int) (float32, float32, float32) {
	i := l.index(r, g, b)
	return l.Table[i], l.Table[i+1], l.Table[i+2]
}

// Set stores the RGB triple at grid cell (r, g, b).
func (l *LUT3D) Set(r, g, b int, vr, vg, vb float32) {
	i := l.index(r, g, b)
	l.Table[i], l.Table[i+1], l.Table[i+2] = vr, vg, vb
}

// Identity returns the identity mapping on a grid of the given size.
func Identity(size int) (*LUT3D, error) {
	l, err := NewLUT3D(size)
	if err != nil {
		return nil, err
	}
	scale := 1.0 / float32(size-1)
	for r := 0; r < size; r++ {
		for g := 0; g < size; g++ {
			for b := 0; b < size; b++ {
				l.Set(r, g, b, float32(r)*scale, float32(g)*scale, float32(b)*scale)
			}
		}
	}
	return l, nil
}

// tetrahedron identifies one of the six decompositions of the unit cube.
// Exactly one case applies per sample, selected by the pairwise ordering of
// the three fractional coordinates with >= tie-breaks.
type tetrahedron int

const (
	tetraRGB tetrahedron = iota // fr >= fg >= fb
	tetraRBG                    // fr >= fb >  fg
	tetraBRG                    // fb >  fr >= fg
	tetraGRB                    // fg >  fr,  fr >= fb
	tetraGBR                    // fg >= fb,  fb >  fr
	tetraBGR                    // fb >  fg,  fg >  fr
)

// classify picks the tetrahedron for a fractional coordinate triple. The
// comparisons are exhaustive: every (fr, fg, fb) lands in exactly one case,
// including ties on the shared faces.
func classify(fr, fg, fb float64) tetrahedron {
	if fr >= fg {
		if fg >= fb {
			return tetraRGB
		}
		if fr >= fb {
			return tetraRBG
		}
		return tetraBRG
	}
	// fg > fr
	if fr >= fb {
		return tetraGRB
	}
	// fb > fr
	if fg >= fb {
		return tetraGBR
	}
	return tetraBGR
}

// tetraWeights returns the four corner offsets (in r/g/b grid steps) and
// their barycentric weights for the selected tetrahedron. The weights sum
// to 1 for every input.
func tetraWeights(tet tetrahedron, fr, fg, fb float64) (corners [4][3]int, weights [4]float64) {
	switch tet {
	case tetraRGB:
		corners = [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}}
		weights = [4]float64{1 - fr, fr - fg, fg - fb, fb}
	case tetraRBG:
		corners = [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {1, 1, 1}}
		weights = [4]float64{1 - fr, fr - fb, fb - fg, fg}
	case tetraBRG:
		corners = [4][3]int{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 1, 1}}
		weights = [4]float64{1 - fb, fb - fr, fr - fg, fg}
	case tetraGRB:
		corners = [4][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 1, 1}}
		weights = [4]float64{1 - fg, fg - fr, fr - fb, fb}
	case tetraGBR:
		corners = [4][3]int{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {1, 1, 1}}
		weights = [4]float64{1 - fg, fg - fb, fb - fr, fr}
	case tetraBGR:
		corners = [4][3]int{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {1, 1, 1}}
		weights = [4]float64{1 - fb, fb - fg, fg - fr, fr}
	}
	return corners, weights
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Sample interpolates the table at (r, g, b) in [0,1]^3 with tetrahedral
// interpolation. Out-of-domain input is clamped, never extrapolated.
func (l *LUT3D) Sample(r, g, b float64) (float64, float64, float64) {
	n := l.Size
	scale := float64(n - 1)

	rp := clamp01(r) * scale
	gp := clamp01(g) * scale
	bp := clamp01(b) * scale

	ri := int(rp)
	gi := int(gp)
	bi := int(bp)
	if ri > n-2 {
		ri = n - 2
	}
	if gi > n-2 {
		gi = n - 2
	}
	if bi > n-2 {
		bi = n - 2
	}

	fr := rp - float64(ri)
	fg := gp - float64(gi)
	fb := bp - float64(bi)

	corners, weights := tetraWeights(classify(fr, fg, fb), fr, fg, fb)

	var or, og, ob float64
	for k := 0; k < 4; k++ {
		i := l.index(ri+corners[k][0], gi+corners[k][1], bi+corners[k][2])
		w := weights[k]
		or += w * float64(l.Table[i])
		og += w * float64(l.Table[i+1])
		ob += w * float64(l.Table[i+2])
	}
	return or, og, ob
}

// Apply maps every pixel of img through the table in place. Channel order
// is preserved: R,G,B in, R,G,B out.
func (l *LUT3D) Apply(img *imaging.Image) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := img.Validate(); err != nil {
		return err
	}
	for i := 0; i < len(img.Pix); i += 3 {
		r, g, b := l.Sample(float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2]))
		img.Pix[i] = float32(r)
		img.Pix[i+1] = float32(g)
		img.Pix[i+2] = float32(b)
	}
	return nil
}

// ApplyGrid maps every cell of grid through the table in place.
func (l *LUT3D) ApplyGrid(grid *LUT3D) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	for i := 0; i < len(grid.Table); i += 3 {
		r, g, b := l.Sample(float64(grid.Table[i]), float64(grid.Table[i+1]), float64(grid.Table[i+2]))
		grid.Table[i] = float32(r)
		grid.Table[i+1] = float32(g)
		grid.Table[i+2] = float32(b)
	}
	return nil
}

// Resample returns the table resampled onto a grid of the given size via
// tetrahedral interpolation over the identity domain.
func (l *LUT3D) Resample(size int) (*LUT3D, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	out, err := NewLUT3D(size)
	if err != nil {
		return nil, err
	}
	scale := 1.0 / float64(size-1)
	for r := 0; r < size; r++ {
		for g := 0; g < size; g++ {
			for b := 0; b < size; b++ {
				vr, vg, vb := l.Sample(float64(r)*scale, float64(g)*scale, float64(b)*scale)
				out.Set(r, g, b, float32(vr), float32(vg), float32(vb))
			}
		}
	}
	return out, nil
}
