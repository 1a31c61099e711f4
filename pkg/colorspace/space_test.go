package colorspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixInverse(t *testing.T) {
	m := Matrix3{
		{0.7, 0.2, 0.1},
		{0.3, 0.6, 0.1},
		{0.0, 0.1, 0.9},
	}
	inv, err := m.Inverse()
	require.NoError(t, err)

	id := m.Mul(inv)
	want := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i][j], id[i][j], 1e-12)
		}
	}
}

func TestMatrixInverseSingular(t *testing.T) {
	m := Matrix3{
		{1, 2, 3},
		{2, 4, 6},
		{0, 0, 1},
	}
	_, err := m.Inverse()
	assert.Error(t, err)
}

func TestLookupSpace(t *testing.T) {
	s, err := LookupSpace("ProPhoto RGB")
	require.NoError(t, err)
	assert.Equal(t, "ProPhoto RGB", s.Name)

	_, err = LookupSpace("Kodachrome")
	assert.ErrorIs(t, err, ErrUnknownSpace)
}

func TestPrimaryMatrixMapsWhiteToOnes(t *testing.T) {
	// RGB (1,1,1) must land on the space's white point in XYZ.
	for _, name := range SpaceNames() {
		t.Run(name, func(t *testing.T) {
			s, err := LookupSpace(name)
			require.NoError(t, err)

			xyz := s.ToXYZ().MulVec(Vec3{1, 1, 1})
			sum := xyz[0] + xyz[1] + xyz[2]
			require.Greater(t, sum, 0.0)
			assert.InDelta(t, s.White.X, xyz[0]/sum, 1e-9)
			assert.InDelta(t, s.White.Y, xyz[1]/sum, 1e-9)
			assert.InDelta(t, 1.0, xyz[1], 1e-9, "white luminance normalised to 1")
		})
	}
}

func TestMatrixRGBToRGBRoundTrip(t *testing.T) {
	src, err := LookupSpace("ProPhoto RGB")
	require.NoError(t, err)
	dst, err := LookupSpace("S-Gamut3")
	require.NoError(t, err)

	fwd := MatrixRGBToRGB(src, dst, false)
	bwd := MatrixRGBToRGB(dst, src, false)

	samples := []Vec3{
		{0.18, 0.18, 0.18},
		{0.9, 0.1, 0.05},
		{0.001, 0.5, 1.0},
	}
	for _, v := range samples {
		got := bwd.MulVec(fwd.MulVec(v))
		for c := 0; c < 3; c++ {
			assert.InDelta(t, v[c], got[c], 1e-5)
		}
	}
}

func TestMatrixRGBToRGBIdentity(t *testing.T) {
	s, err := LookupSpace("V-Gamut")
	require.NoError(t, err)

	m := MatrixRGBToRGB(s, s, false)
	want := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i][j], m[i][j], 1e-9)
		}
	}
}

func TestMatrixRGBToRGBAdaptPreservesWhite(t *testing.T) {
	// ProPhoto is D50, S-Gamut3 is D65. With adaptation enabled, reference
	// white must map to reference white.
	src, _ := LookupSpace("ProPhoto RGB")
	dst, _ := LookupSpace("S-Gamut3")

	m := MatrixRGBToRGB(src, dst, true)
	got := m.MulVec(Vec3{1, 1, 1})
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 1.0, got[c], 1e-6)
	}
}

func TestLumaWeights(t *testing.T) {
	s, err := LookupSpace("sRGB")
	require.NoError(t, err)

	w := s.LumaWeights()
	assert.InDelta(t, 1.0, w[0]+w[1]+w[2], 1e-12)
	// Rec.709 luma coefficients.
	assert.InDelta(t, 0.2126, w[0], 1e-3)
	assert.InDelta(t, 0.7152, w[1], 1e-3)
	assert.InDelta(t, 0.0722, w[2], 1e-3)
}

func TestResolveLogSpace(t *testing.T) {
	tests := []struct {
		logSpace string
		gamut    string
		curve    string
	}{
		{"S-Log3", "S-Gamut3", "S-Log3"},
		{"S-Log3.Cine", "S-Gamut3.Cine", "S-Log3"},
		{"F-Log2C", "F-Gamut C", "F-Log2"},
		{"V-Log", "V-Gamut", "V-Log"},
		{"L-Log", "ITU-R BT.2020", "L-Log"},
		{"Arri LogC4", "ARRI Wide Gamut 4", "Arri LogC4"},
		{"Log3G10", "REDWideGamutRGB", "Log3G10"},
	}
	for _, tt := range tests {
		t.Run(tt.logSpace, func(t *testing.T) {
			space, curve, err := ResolveLogSpace(tt.logSpace)
			require.NoError(t, err)
			assert.Equal(t, tt.gamut, space.Name)
			assert.Equal(t, tt.curve, curve.Name)
		})
	}

	_, _, err := ResolveLogSpace("T-Log")
	assert.ErrorIs(t, err, ErrUnknownSpace)
}
