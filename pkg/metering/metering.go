// Package metering computes an auto-exposure gain from a linear image.
// The statistical formulas behind the non-average modes are kept behind the
// Strategy interface so they can be swapped without disturbing callers.
package metering

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lookforge/lookforge/pkg/colorspace"
	"github.com/lookforge/lookforge/pkg/imaging"
)

// ErrUnknownMode is returned for a metering mode that is not registered.
var ErrUnknownMode = errors.New("unknown metering mode")

// epsilon below which a luminance statistic is treated as an already-black
// scene: gain stays 1.0 instead of dividing by near-zero.
const epsilon = 1e-6

// Config holds the tunables shared by all strategies.
type Config struct {
	// TargetGray is the mid-tone reference the scene mean is placed at.
	TargetGray float64
	// ClipThreshold is the highlight level highlight-safe metering protects.
	ClipThreshold float64
	// HighlightPercentile is the fraction of highlight energy kept at or
	// below ClipThreshold.
	HighlightPercentile float64
	// MaxStops caps the computed gain at 2^MaxStops.
	MaxStops float64
	// Weights are the working space's luma weights.
	Weights colorspace.Vec3
}

// DefaultConfig returns the canonical metering configuration for a working
// space.
func DefaultConfig(space *colorspace.Space) Config {
	return Config{
		TargetGray:          0.18,
		ClipThreshold:       1.0,
		HighlightPercentile: 0.995,
		MaxStops:            4,
		Weights:             space.LumaWeights(),
	}
}

// Strategy computes a positive exposure gain for a linear image.
type Strategy interface {
	Name() string
	Gain(img *imaging.Image, cfg Config) (float64, error)
}

// ForMode resolves a metering mode name to its strategy.
func ForMode(mode string) (Strategy, error) {
	switch mode {
	case "average":
		return averageStrategy{}, nil
	case "center-weighted":
		return centerWeightedStrategy{}, nil
	case "highlight-safe":
		return highlightSafeStrategy{}, nil
	case "matrix", "evaluative":
		return matrixStrategy{}, nil
	case "hybrid":
		return hybridStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// ManualGain converts a manual exposure override in stops to a gain.
// It bypasses all metering.
func ManualGain(stops float64) float64 {
	return math.Exp2(stops)
}

// ClampGain caps gain at 2^maxStops. The second return reports whether the
// cap applied; a capped gain is not an error.
func ClampGain(gain, maxStops float64) (float64, bool) {
	limit := math.Exp2(maxStops)
	if gain > limit {
		return limit, true
	}
	return gain, false
}

type averageStrategy struct{}

func (averageStrategy) Name() string { return "average" }

func (averageStrategy) Gain(img *imaging.Image, cfg Config) (float64, error) {
	if err := img.Validate(); err != nil {
		return 0, err
	}
	mean := img.MeanLuminance(cfg.Weights)
	if mean <= epsilon {
		return 1.0, nil
	}
	return cfg.TargetGray / mean, nil
}

type centerWeightedStrategy struct{}

func (centerWeightedStrategy) Name() string { return "center-weighted" }

// Gain averages luminance with a half-cosine radial falloff: full weight at
// the image centre, 0.15 at the farthest corner.
func (centerWeightedStrategy) Gain(img *imaging.Image, cfg Config) (float64, error) {
	if err := img.Validate(); err != nil {
		return 0, err
	}
	const edgeWeight = 0.15
	cx := float64(img.W-1) / 2
	cy := float64(img.H-1) / 2
	maxDist := math.Hypot(cx, cy)
	if maxDist == 0 {
		maxDist = 1
	}

	var sum, wsum float64
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			w := edgeWeight + (1-edgeWeight)*0.5*(1+math.Cos(math.Pi*d))
			sum += w * img.Luminance(x, y, cfg.Weights)
			wsum += w
		}
	}
	mean := sum / wsum
	if mean <= epsilon {
		return 1.0, nil
	}
	return cfg.TargetGray / mean, nil
}

type highlightSafeStrategy struct{}

func (highlightSafeStrategy) Name() string { return "highlight-safe" }

// Gain picks the largest gain that keeps the configured percentile of the
// max channel at or below the clip threshold. It does not target mid-grey.
func (highlightSafeStrategy) Gain(img *imaging.Image, cfg Config) (float64, error) {
	if err := img.Validate(); err != nil {
		return 0, err
	}
	p := maxChannelPercentile(img, cfg.HighlightPercentile)
	if p <= epsilon {
		return 1.0, nil
	}
	return cfg.ClipThreshold / p, nil
}

type matrixStrategy struct{}

func (matrixStrategy) Name() string { return "matrix" }

// zoneGrid is the evaluative metering partition size per axis.
const zoneGrid = 5

// Gain partitions the image into a 5x5 zone grid and derives the gain from
// a weighted combination of zone means: centre zones weigh more, and zones
// much brighter than the median zone are down-weighted so a bright sky does
// not drag the exposure down.
func (matrixStrategy) Gain(img *imaging.Image, cfg Config) (float64, error) {
	if err := img.Validate(); err != nil {
		return 0, err
	}
	var zones [zoneGrid * zoneGrid]float64
	var counts [zoneGrid * zoneGrid]int
	for y := 0; y < img.H; y++ {
		zy := y * zoneGrid / img.H
		for x := 0; x < img.W; x++ {
			zx := x * zoneGrid / img.W
			zones[zy*zoneGrid+zx] += img.Luminance(x, y, cfg.Weights)
			counts[zy*zoneGrid+zx]++
		}
	}
	means := make([]float64, 0, len(zones))
	for i := range zones {
		if counts[i] > 0 {
			zones[i] /= float64(counts[i])
		}
		means = append(means, zones[i])
	}
	sort.Float64s(means)
	median := means[len(means)/2]

	var sum, wsum float64
	center := float64(zoneGrid-1) / 2
	for zy := 0; zy < zoneGrid; zy++ {
		for zx := 0; zx < zoneGrid; zx++ {
			d2 := (float64(zx)-center)*(float64(zx)-center) + (float64(zy)-center)*(float64(zy)-center)
			w := 1.0 / (1.0 + d2)
			m := zones[zy*zoneGrid+zx]
			if median > epsilon && m > 4*median {
				w *= 0.5
			}
			sum += w * m
			wsum += w
		}
	}
	mean := sum / wsum
	if mean <= epsilon {
		return 1.0, nil
	}
	return cfg.TargetGray / mean, nil
}

type hybridStrategy struct{}

func (hybridStrategy) Name() string { return "hybrid" }

// Gain computes the average-based gain, then clamps it down if it would
// push the protected highlight percentile past the clip threshold.
func (hybridStrategy) Gain(img *imaging.Image, cfg Config) (float64, error) {
	avg, err := averageStrategy{}.Gain(img, cfg)
	if err != nil {
		return 0, err
	}
	safe, err := highlightSafeStrategy{}.Gain(img, cfg)
	if err != nil {
		return 0, err
	}
	if safe < avg {
		return safe, nil
	}
	return avg, nil
}

// maxChannelPercentile returns the given percentile of per-pixel max
// channel values.
func maxChannelPercentile(img *imaging.Image, pct float64) float64 {
	n := img.W * img.H
	vals := make([]float64, 0, n)
	for i := 0; i < len(img.Pix); i += 3 {
		m := img.Pix[i]
		if img.Pix[i+1] > m {
			m = img.Pix[i+1]
		}
		if img.Pix[i+2] > m {
			m = img.Pix[i+2]
		}
		vals = append(vals, float64(m))
	}
	sort.Float64s(vals)
	idx := int(math.Round(pct * float64(len(vals)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(vals) {
		idx = len(vals) - 1
	}
	return vals[idx]
}
