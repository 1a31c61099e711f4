// Package pipeline runs the per-item develop and profile flows. Each item
// is a single synchronous computation owning its buffers; progress and
// outcome live on an explicit per-item Result, never in shared state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/lookforge/lookforge/pkg/colorspace"
	"github.com/lookforge/lookforge/pkg/imaging"
	"github.com/lookforge/lookforge/pkg/lut"
	"github.com/lookforge/lookforge/pkg/metering"
	"github.com/lookforge/lookforge/pkg/profile"
)

// Options is the configuration surface for one item.
type Options struct {
	// LogSpace is the target log space name, e.g. "S-Log3". Required.
	LogSpace string
	// SourceSpace is the colour space of the incoming linear buffer.
	// Defaults to ProPhoto RGB, the normalised hand-off from RAW decode.
	SourceSpace string
	// LUTPath optionally names a .cube creative LUT.
	LUTPath string
	// Exposure, when set, is a manual override in stops bypassing all
	// metering.
	Exposure *float64
	// Metering selects the auto-exposure strategy. Defaults to hybrid.
	Metering string
	// MaxStops caps auto-exposure gain. Defaults to 4 stops.
	MaxStops float64
	// Boost applies the camera-match saturation/contrast seasoning before
	// the log transform.
	Boost bool
	// Adapt enables chromatic adaptation in the gamut transform.
	Adapt bool
	// GridSize is the profile grid resolution. Defaults to 32.
	GridSize int
	// Table carries the profile footer options.
	Table profile.TableOptions
}

// DefaultOptions returns the canonical develop configuration for a log
// space.
func DefaultOptions(logSpace string) Options {
	return Options{
		LogSpace:    logSpace,
		SourceSpace: "ProPhoto RGB",
		Metering:    "hybrid",
		MaxStops:    4,
		Boost:       true,
		Table:       profile.DefaultTableOptions(),
	}
}

// Result is the per-item outcome: output artifact or error, plus the
// item's own message log.
type Result struct {
	Name     string
	Err      error
	Messages []string

	Image   *imaging.Image
	Profile *profile.Document
}

// Logf appends a message to the item's log.
func (r *Result) Logf(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *Result) fail(err error) *Result {
	r.Err = err
	return r
}

// Develop meters, gamut-transforms and log-encodes a linear image, then
// applies the optional creative LUT. The buffer is owned and mutated in
// place; the returned Result references it.
func Develop(ctx context.Context, name string, img *imaging.Image, opts Options) *Result {
	res := &Result{Name: name}

	// Resolve every name before touching pixels.
	space, curve, err := colorspace.ResolveLogSpace(opts.LogSpace)
	if err != nil {
		return res.fail(err)
	}
	srcName := opts.SourceSpace
	if srcName == "" {
		srcName = "ProPhoto RGB"
	}
	src, err := colorspace.LookupSpace(srcName)
	if err != nil {
		return res.fail(err)
	}
	var cube *lut.Cube
	if opts.LUTPath != "" {
		cube, err = lut.ReadCubeFile(opts.LUTPath)
		if err != nil {
			return res.fail(err)
		}
	}
	if err := img.Validate(); err != nil {
		return res.fail(err)
	}

	// Exposure.
	gain := 1.0
	if opts.Exposure != nil {
		gain = metering.ManualGain(*opts.Exposure)
		res.Logf("manual exposure %+.2f stops (gain %.3fx)", *opts.Exposure, gain)
	} else {
		mode := opts.Metering
		if mode == "" {
			mode = "hybrid"
		}
		strategy, err := metering.ForMode(mode)
		if err != nil {
			return res.fail(err)
		}
		cfg := metering.DefaultConfig(src)
		if opts.MaxStops > 0 {
			cfg.MaxStops = opts.MaxStops
		}
		gain, err = strategy.Gain(img, cfg)
		if err != nil {
			return res.fail(err)
		}
		var clamped bool
		gain, clamped = metering.ClampGain(gain, cfg.MaxStops)
		if clamped {
			slog.WarnContext(ctx, "metering gain capped", "item", name, "stops", cfg.MaxStops)
			res.Logf("auto exposure (%s) capped at %.1f stops", strategy.Name(), cfg.MaxStops)
		} else {
			res.Logf("auto exposure (%s): gain %.3fx", strategy.Name(), gain)
		}
	}
	img.ApplyGain(gain)

	if opts.Boost {
		applyCameraMatchBoost(img, src.LumaWeights())
		res.Logf("camera-match boost applied")
	}

	// Gamut transform and log encode.
	if err := imaging.Transform(img, src, space, curve, imaging.TransformOptions{Adapt: opts.Adapt}); err != nil {
		return res.fail(err)
	}
	res.Logf("colour transform: %s -> %s -> %s", src.Name, space.Name, curve.Name)

	if cube != nil {
		if err := cube.Apply(img); err != nil {
			return res.fail(err)
		}
		img.Clamp01()
		res.Logf("LUT applied: %s", opts.LUTPath)
	}

	res.Image = img
	return res
}

// camera-match seasoning before the log transform: modest saturation lift
// around luma, gentle power contrast pivoted at mid-grey.
const (
	boostSaturation = 1.25
	boostContrast   = 1.1
	boostPivot      = 0.18
)

func applyCameraMatchBoost(img *imaging.Image, w colorspace.Vec3) {
	for i := 0; i < len(img.Pix); i += 3 {
		r := float64(img.Pix[i])
		g := float64(img.Pix[i+1])
		b := float64(img.Pix[i+2])
		luma := r*w[0] + g*w[1] + b*w[2]

		r = luma + (r-luma)*boostSaturation
		g = luma + (g-luma)*boostSaturation
		b = luma + (b-luma)*boostSaturation

		img.Pix[i] = float32(contrast(r))
		img.Pix[i+1] = float32(contrast(g))
		img.Pix[i+2] = float32(contrast(b))
	}
}

func contrast(v float64) float64 {
	if v <= 0 {
		return v
	}
	return boostPivot * math.Pow(v/boostPivot, boostContrast)
}

// Profile builds a look profile from a user LUT file: the colour pipeline
// is baked into an identity grid, the LUT applied on top, and the grid
// serialised into an XMP document.
func Profile(ctx context.Context, name, lutPath string, opts Options) *Result {
	res := &Result{Name: name}

	var cube *lut.Cube
	if lutPath != "" {
		var err error
		cube, err = lut.ReadCubeFile(lutPath)
		if err != nil {
			return res.fail(err)
		}
		res.Logf("user LUT: %s", lutPath)
	}

	grid, err := profile.BuildGrid(opts.LogSpace, cube, profile.GridOptions{Size: opts.GridSize, Adapt: opts.Adapt})
	if err != nil {
		return res.fail(err)
	}
	res.Logf("pipeline grid baked (%s, %d^3)", opts.LogSpace, grid.Size)

	doc, err := profile.Generate(name, grid, opts.Table)
	if err != nil {
		return res.fail(err)
	}
	slog.DebugContext(ctx, "profile generated", "item", name, "fingerprint", doc.Fingerprint)
	res.Logf("profile %s (fingerprint %s)", doc.UUID, doc.Fingerprint)

	res.Profile = doc
	return res
}
