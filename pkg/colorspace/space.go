package colorspace

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSpace is returned when a colour space name is not registered.
var ErrUnknownSpace = errors.New("unknown colour space")

// Chromaticity is a CIE xy chromaticity coordinate.
type Chromaticity struct {
	X, Y float64
}

// XYZ returns the xyY coordinate lifted to XYZ with Y=1.
func (c Chromaticity) XYZ() Vec3 {
	if c.Y == 0 {
		return Vec3{}
	}
	return Vec3{c.X / c.Y, 1, (1 - c.X - c.Y) / c.Y}
}

// Space is a linear RGB colour space defined by its primaries and white point.
// The RGB<->XYZ matrices are derived once at registration time.
type Space struct {
	Name             string
	Red, Green, Blue Chromaticity
	White            Chromaticity

	toXYZ   Matrix3
	fromXYZ Matrix3
}

// ToXYZ returns the RGB -> XYZ matrix.
func (s *Space) ToXYZ() Matrix3 { return s.toXYZ }

// FromXYZ returns the XYZ -> RGB matrix.
func (s *Space) FromXYZ() Matrix3 { return s.fromXYZ }

// LumaWeights returns per-channel luminance weights for this space,
// normalised to sum to 1. This is the Y row of the RGB->XYZ matrix.
func (s *Space) LumaWeights() Vec3 {
	w := Vec3{s.toXYZ[1][0], s.toXYZ[1][1], s.toXYZ[1][2]}
	sum := w[0] + w[1] + w[2]
	if sum == 0 {
		return Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}
	return Vec3{w[0] / sum, w[1] / sum, w[2] / sum}
}

// newSpace derives the normalised primary matrix for the given primaries
// and white point. See SMPTE RP 177: the columns of the primary matrix are
// the XYZ coordinates of the primaries, scaled so the white point maps to
// RGB (1,1,1).
func newSpace(name string, r, g, b, w Chromaticity) *Space {
	p := Matrix3{}
	for col, c := range []Chromaticity{r, g, b} {
		xyz := c.XYZ()
		p[0][col] = xyz[0]
		p[1][col] = xyz[1]
		p[2][col] = xyz[2]
	}
	pInv, err := p.Inverse()
	if err != nil {
		panic(fmt.Sprintf("colorspace %q: degenerate primaries: %v", name, err))
	}
	scale := pInv.MulVec(w.XYZ())
	toXYZ := p.scaledColumns(scale)
	fromXYZ, err := toXYZ.Inverse()
	if err != nil {
		panic(fmt.Sprintf("colorspace %q: singular primary matrix: %v", name, err))
	}
	return &Space{
		Name: name, Red: r, Green: g, Blue: b, White: w,
		toXYZ: toXYZ, fromXYZ: fromXYZ,
	}
}

// Standard white points.
var (
	WhiteD65 = Chromaticity{0.3127, 0.3290}
	WhiteD50 = Chromaticity{0.3457, 0.3585}
)

var spaces = map[string]*Space{}

func registerSpace(s *Space) *Space {
	spaces[s.Name] = s
	return s
}

// Registered colour spaces. Primaries per the respective vendor papers.
var (
	ProPhotoRGB = registerSpace(newSpace("ProPhoto RGB",
		Chromaticity{0.7347, 0.2653}, Chromaticity{0.1596, 0.8404}, Chromaticity{0.0366, 0.0001}, WhiteD50))
	SRGB = registerSpace(newSpace("sRGB",
		Chromaticity{0.64, 0.33}, Chromaticity{0.30, 0.60}, Chromaticity{0.15, 0.06}, WhiteD65))
	BT2020 = registerSpace(newSpace("ITU-R BT.2020",
		Chromaticity{0.708, 0.292}, Chromaticity{0.170, 0.797}, Chromaticity{0.131, 0.046}, WhiteD65))
	SGamut3 = registerSpace(newSpace("S-Gamut3",
		Chromaticity{0.730, 0.280}, Chromaticity{0.140, 0.855}, Chromaticity{0.100, -0.050}, WhiteD65))
	SGamut3Cine = registerSpace(newSpace("S-Gamut3.Cine",
		Chromaticity{0.766, 0.275}, Chromaticity{0.225, 0.800}, Chromaticity{0.089, -0.087}, WhiteD65))
	VGamut = registerSpace(newSpace("V-Gamut",
		Chromaticity{0.730, 0.280}, Chromaticity{0.165, 0.840}, Chromaticity{0.100, -0.030}, WhiteD65))
	NGamut = registerSpace(newSpace("N-Gamut",
		Chromaticity{0.708, 0.292}, Chromaticity{0.170, 0.797}, Chromaticity{0.131, 0.046}, WhiteD65))
	FGamut = registerSpace(newSpace("F-Gamut",
		Chromaticity{0.708, 0.292}, Chromaticity{0.170, 0.797}, Chromaticity{0.131, 0.046}, WhiteD65))
	FGamutC = registerSpace(newSpace("F-Gamut C",
		Chromaticity{0.7347, 0.2653}, Chromaticity{0.0263, 0.9737}, Chromaticity{0.1173, -0.0224}, WhiteD65))
	CinemaGamut = registerSpace(newSpace("Cinema Gamut",
		Chromaticity{0.740, 0.270}, Chromaticity{0.170, 1.140}, Chromaticity{0.080, -0.100}, WhiteD65))
	ArriWideGamut3 = registerSpace(newSpace("ARRI Wide Gamut 3",
		Chromaticity{0.6840, 0.3130}, Chromaticity{0.2210, 0.8480}, Chromaticity{0.0861, -0.1020}, WhiteD65))
	ArriWideGamut4 = registerSpace(newSpace("ARRI Wide Gamut 4",
		Chromaticity{0.7347, 0.2653}, Chromaticity{0.1424, 0.8576}, Chromaticity{0.0991, -0.0308}, WhiteD65))
	REDWideGamutRGB = registerSpace(newSpace("REDWideGamutRGB",
		Chromaticity{0.780308, 0.304253}, Chromaticity{0.121595, 1.493994}, Chromaticity{0.095612, -0.084589}, WhiteD65))
)

// LookupSpace resolves a colour space by name.
func LookupSpace(name string) (*Space, error) {
	s, ok := spaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpace, name)
	}
	return s, nil
}

// SpaceNames returns the registered space names, sorted.
func SpaceNames() []string {
	names := make([]string, 0, len(spaces))
	for n := range spaces {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Bradford chromatic adaptation matrix and its inverse.
var (
	bradford = Matrix3{
		{0.8951, 0.2664, -0.1614},
		{-0.7502, 1.7135, 0.0367},
		{0.0389, -0.0685, 1.0296},
	}
	bradfordInv = Matrix3{
		{0.9869929, -0.1470543, 0.1599627},
		{0.4323053, 0.5183603, 0.0492912},
		{-0.0085287, 0.0400428, 0.9684867},
	}
)

// adaptation returns the Bradford chromatic adaptation transform from one
// white point to another in XYZ.
func adaptation(from, to Chromaticity) Matrix3 {
	src := bradford.MulVec(from.XYZ())
	dst := bradford.MulVec(to.XYZ())
	scale := Matrix3{
		{dst[0] / src[0], 0, 0},
		{0, dst[1] / src[1], 0},
		{0, 0, dst[2] / src[2]},
	}
	return bradfordInv.Mul(scale).Mul(bradford)
}

// MatrixRGBToRGB returns the linear gamut transform from src to dst.
// When adapt is true the source white point is adapted to the destination
// white point with a Bradford transform; otherwise the XYZ values are
// passed through unchanged.
func MatrixRGBToRGB(src, dst *Space, adapt bool) Matrix3 {
	m := src.toXYZ
	if adapt && src.White != dst.White {
		m = adaptation(src.White, dst.White).Mul(m)
	}
	return dst.fromXYZ.Mul(m)
}
