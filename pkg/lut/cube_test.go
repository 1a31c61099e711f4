package lut

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookforge/lookforge/pkg/imaging"
)

// Red varies fastest in the file; make each sample encode its grid index
// so the axis mapping is pinned down.
const tinyCube = `TITLE "axis order probe"
LUT_3D_SIZE 2
DOMAIN_MIN 0.0 0.0 0.0
DOMAIN_MAX 1.0 1.0 1.0
0.0 0.0 0.0
1.0 0.0 0.0
0.0 1.0 0.0
1.0 1.0 0.0
0.0 0.0 1.0
1.0 0.0 1.0
0.0 1.0 1.0
1.0 1.0 1.0
`

func TestReadCubeAxisOrder(t *testing.T) {
	cu, err := ReadCube(strings.NewReader(tinyCube))
	require.NoError(t, err)
	require.NotNil(t, cu.LUT3D)
	assert.Equal(t, "axis order probe", cu.Title)
	assert.Equal(t, 2, cu.LUT3D.Size)

	for r := 0; r < 2; r++ {
		for g := 0; g < 2; g++ {
			for b := 0; b < 2; b++ {
				vr, vg, vb := cu.LUT3D.At(r, g, b)
				assert.Equal(t, float32(r), vr, "cell (%d,%d,%d)", r, g, b)
				assert.Equal(t, float32(g), vg, "cell (%d,%d,%d)", r, g, b)
				assert.Equal(t, float32(b), vb, "cell (%d,%d,%d)", r, g, b)
			}
		}
	}
}

func TestReadCubeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no size", "0.0 0.0 0.0\n"},
		{"degenerate size", "LUT_3D_SIZE 1\n0.0 0.0 0.0\n"},
		{"sample count mismatch", "LUT_3D_SIZE 2\n0.0 0.0 0.0\n"},
		{"bad triple", "LUT_3D_SIZE 2\n0.0 zero 0.0\n"},
		{"both sizes", "LUT_1D_SIZE 2\nLUT_3D_SIZE 2\n0 0 0\n1 1 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCube(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestReadCubeFileMissing(t *testing.T) {
	_, err := ReadCubeFile("testdata/does-not-exist.cube")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.cube")
}

func TestWriteReadRoundTrip(t *testing.T) {
	l, err := Identity(5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCube(&buf, l, "identity"))

	cu, err := ReadCube(&buf)
	require.NoError(t, err)
	require.NotNil(t, cu.LUT3D)
	require.Equal(t, 5, cu.LUT3D.Size)
	for i := range l.Table {
		assert.InDelta(t, l.Table[i], cu.LUT3D.Table[i], 1e-6)
	}
}

func TestCubeDomainNormalisation(t *testing.T) {
	// Identity table declared over [0,2]: applying it to a value of 1.0
	// samples the domain midpoint, returning 0.5.
	in := `LUT_3D_SIZE 2
DOMAIN_MIN 0.0 0.0 0.0
DOMAIN_MAX 2.0 2.0 2.0
0.0 0.0 0.0
1.0 0.0 0.0
0.0 1.0 0.0
1.0 1.0 0.0
0.0 0.0 1.0
1.0 0.0 1.0
0.0 1.0 1.0
1.0 1.0 1.0
`
	cu, err := ReadCube(strings.NewReader(in))
	require.NoError(t, err)

	img := imaging.New(1, 1)
	img.Set(0, 0, 1.0, 1.0, 1.0)
	require.NoError(t, cu.Apply(img))

	r, g, b := img.At(0, 0)
	assert.InDelta(t, 0.5, r, 1e-6)
	assert.InDelta(t, 0.5, g, 1e-6)
	assert.InDelta(t, 0.5, b, 1e-6)
}

func TestRead1DShaper(t *testing.T) {
	in := `LUT_1D_SIZE 3
0.0 0.0 0.0
0.25 0.5 0.75
1.0 1.0 1.0
`
	cu, err := ReadCube(strings.NewReader(in))
	require.NoError(t, err)
	require.NotNil(t, cu.LUT1D)
	require.Nil(t, cu.LUT3D)

	img := imaging.New(1, 1)
	img.Set(0, 0, 0.5, 0.5, 0.5)
	require.NoError(t, cu.Apply(img))

	r, g, b := img.At(0, 0)
	assert.InDelta(t, 0.25, r, 1e-6)
	assert.InDelta(t, 0.5, g, 1e-6)
	assert.InDelta(t, 0.75, b, 1e-6)
}
