package metering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookforge/lookforge/pkg/colorspace"
	"github.com/lookforge/lookforge/pkg/imaging"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	space, err := colorspace.LookupSpace("ProPhoto RGB")
	require.NoError(t, err)
	return DefaultConfig(space)
}

func flat(w, h int, v float32) *imaging.Image {
	img := imaging.New(w, h)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestForMode(t *testing.T) {
	for _, mode := range []string{"average", "center-weighted", "highlight-safe", "matrix", "evaluative", "hybrid"} {
		s, err := ForMode(mode)
		require.NoError(t, err, mode)
		assert.NotEmpty(t, s.Name())
	}
	_, err := ForMode("spot")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestManualGain(t *testing.T) {
	assert.Equal(t, 1.0, ManualGain(0))
	assert.Equal(t, 2.0, ManualGain(1))
	assert.Equal(t, 0.5, ManualGain(-1))
	assert.InDelta(t, 2.82842712, ManualGain(1.5), 1e-8)
}

func TestAverageTargetsMidGray(t *testing.T) {
	cfg := testConfig(t)
	img := flat(32, 32, 0.09)

	s, _ := ForMode("average")
	gain, err := s.Gain(img, cfg)
	require.NoError(t, err)
	// Luma weights sum to 1, so a uniform 0.09 scene needs exactly 2x.
	assert.InDelta(t, 2.0, gain, 1e-5)
}

func TestAverageBlackSceneReturnsUnity(t *testing.T) {
	cfg := testConfig(t)
	img := flat(16, 16, 0)

	s, _ := ForMode("average")
	gain, err := s.Gain(img, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, gain)
}

func TestClampGainCapsAtConfiguredStops(t *testing.T) {
	cfg := testConfig(t)
	// Mean luminance 0.001 would imply 180x gain; the cap must win.
	img := flat(16, 16, 0.001)

	s, _ := ForMode("average")
	gain, err := s.Gain(img, cfg)
	require.NoError(t, err)
	assert.Greater(t, gain, 16.0)

	gain, clamped := ClampGain(gain, cfg.MaxStops)
	assert.True(t, clamped)
	assert.Equal(t, 16.0, gain)

	// Below the cap nothing changes.
	gain, clamped = ClampGain(3.0, cfg.MaxStops)
	assert.False(t, clamped)
	assert.Equal(t, 3.0, gain)
}

func TestCenterWeightedFavoursCenter(t *testing.T) {
	cfg := testConfig(t)
	// Dark centre, bright border: centre-weighting must meter darker than
	// the plain average, i.e. produce a larger gain.
	img := imaging.New(33, 33)
	for y := 0; y < 33; y++ {
		for x := 0; x < 33; x++ {
			v := float32(0.5)
			if x >= 11 && x < 22 && y >= 11 && y < 22 {
				v = 0.02
			}
			img.Set(x, y, v, v, v)
		}
	}

	avg, _ := ForMode("average")
	cw, _ := ForMode("center-weighted")

	avgGain, err := avg.Gain(img, cfg)
	require.NoError(t, err)
	cwGain, err := cw.Gain(img, cfg)
	require.NoError(t, err)
	assert.Greater(t, cwGain, avgGain)
}

func TestHighlightSafeProtectsClipping(t *testing.T) {
	cfg := testConfig(t)
	img := flat(32, 32, 0.5)

	s, _ := ForMode("highlight-safe")
	gain, err := s.Gain(img, cfg)
	require.NoError(t, err)
	// Uniform 0.5 max channel: exactly 2x fills the clip threshold.
	assert.InDelta(t, 2.0, gain, 1e-6)

	// A scene already at clip gets no push.
	img = flat(32, 32, 1.0)
	gain, err = s.Gain(img, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, gain, 1e-6)
}

func TestHybridIsLimitedByHighlights(t *testing.T) {
	cfg := testConfig(t)
	// Dark scene overall, but with a small hot region near clip: average
	// alone would blow it out, hybrid must hold back.
	img := imaging.New(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := float32(0.01)
			if y == 0 && x < 16 {
				v = 0.9
			}
			img.Set(x, y, v, v, v)
		}
	}

	avg, _ := ForMode("average")
	hyb, _ := ForMode("hybrid")

	avgGain, err := avg.Gain(img, cfg)
	require.NoError(t, err)
	hybGain, err := hyb.Gain(img, cfg)
	require.NoError(t, err)

	assert.Less(t, hybGain, avgGain)
	assert.InDelta(t, cfg.ClipThreshold/0.9, hybGain, 1e-6)
}

func TestMatrixDownWeightsBrightSky(t *testing.T) {
	cfg := testConfig(t)
	// Top fifth of the frame is a bright sky; matrix metering should land
	// between average (dragged down by the sky) and the centre-only view.
	img := imaging.New(50, 50)
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			v := float32(0.05)
			if y < 10 {
				v = 0.95
			}
			img.Set(x, y, v, v, v)
		}
	}

	avg, _ := ForMode("average")
	mtx, _ := ForMode("matrix")

	avgGain, err := avg.Gain(img, cfg)
	require.NoError(t, err)
	mtxGain, err := mtx.Gain(img, cfg)
	require.NoError(t, err)
	assert.Greater(t, mtxGain, avgGain)
}

func TestGainIsFiniteAndPositive(t *testing.T) {
	cfg := testConfig(t)
	imgs := map[string]*imaging.Image{
		"black":    flat(16, 16, 0),
		"tiny":     flat(16, 16, 1e-7),
		"mid":      flat(16, 16, 0.18),
		"clipping": flat(16, 16, 1.5),
	}
	for _, mode := range []string{"average", "center-weighted", "highlight-safe", "matrix", "hybrid"} {
		s, err := ForMode(mode)
		require.NoError(t, err)
		for name, img := range imgs {
			gain, err := s.Gain(img, cfg)
			require.NoError(t, err, "%s/%s", mode, name)
			assert.False(t, math.IsNaN(gain) || math.IsInf(gain, 0), "%s/%s", mode, name)
			assert.Greater(t, gain, 0.0, "%s/%s", mode, name)
		}
	}
}
