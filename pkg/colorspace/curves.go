package colorspace

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownCurve is returned when a log curve name is not registered.
var ErrUnknownCurve = errors.New("unknown log curve")

// Curve is a camera log transfer function mapping linear light to a
// compressed-range signal. Encode is defined for strictly positive input;
// callers clamp to a positive floor first. Values slightly above 1.0 are
// legal input.
type Curve struct {
	Name   string
	Encode func(float64) float64
}

var curves = map[string]*Curve{}

func registerCurve(name string, encode func(float64) float64) *Curve {
	c := &Curve{Name: name, Encode: encode}
	curves[name] = c
	return c
}

// LookupCurve resolves a log curve by name.
func LookupCurve(name string) (*Curve, error) {
	c, ok := curves[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}
	return c, nil
}

// CurveNames returns the registered curve names, sorted.
func CurveNames() []string {
	names := make([]string, 0, len(curves))
	for n := range curves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Linear passes values through unchanged. Useful as a pipeline no-op.
var Linear = registerCurve("Linear", func(x float64) float64 { return x })

// SLog3 is the Sony S-Log3 encode.
var SLog3 = registerCurve("S-Log3", func(x float64) float64 {
	if x >= 0.01125 {
		return (420.0 + math.Log10((x+0.01)/(0.18+0.01))*261.5) / 1023.0
	}
	return (x*(171.2102946929-95.0)/0.01125 + 95.0) / 1023.0
})

// VLog is the Panasonic V-Log encode.
var VLog = registerCurve("V-Log", func(x float64) float64 {
	const (
		cut = 0.01
		b   = 0.00873
		c   = 0.241514
		d   = 0.598206
	)
	if x < cut {
		return 5.6*x + 0.125
	}
	return c*math.Log10(x+b) + d
})

// NLog is the Nikon N-Log encode.
var NLog = registerCurve("N-Log", func(x float64) float64 {
	const cut = 0.328
	if x < cut {
		return 650.0 * math.Cbrt(x+0.0075) / 1023.0
	}
	return (150.0*math.Log(x) + 619.0) / 1023.0
})

// FLog is the Fujifilm F-Log encode.
var FLog = registerCurve("F-Log", flogEncode(0.555556, 0.009468, 0.344676, 0.790453, 8.735631, 0.092864, 0.00089))

// FLog2 is the Fujifilm F-Log2 encode.
var FLog2 = registerCurve("F-Log2", flogEncode(5.555556, 0.064829, 0.245281, 0.384316, 8.799461, 0.092864, 0.000889))

func flogEncode(a, b, c, d, e, f, cut float64) func(float64) float64 {
	return func(x float64) float64 {
		if x < cut {
			return e*x + f
		}
		return c*math.Log10(a*x+b) + d
	}
}

// CanonLog2 is the Canon Log 2 encode.
var CanonLog2 = registerCurve("Canon Log 2", func(x float64) float64 {
	if x < 0 {
		return -0.281863093*math.Log10(1.0-87.09937546*x) + 0.035388128
	}
	return 0.281863093*math.Log10(87.09937546*x+1.0) + 0.035388128
})

// CanonLog3 is the Canon Log 3 encode.
var CanonLog3 = registerCurve("Canon Log 3", func(x float64) float64 {
	switch {
	case x < -0.014:
		return -0.42889912*math.Log10(1.0-14.98325*x) + 0.07623209
	case x <= 0.014:
		return 2.3069815*x + 0.073059361
	default:
		return 0.42889912*math.Log10(14.98325*x+1.0) + 0.069886632
	}
})

// ArriLogC3 is the ARRI LogC3 encode at EI 800.
var ArriLogC3 = registerCurve("Arri LogC3", func(x float64) float64 {
	const (
		cut = 0.010591
		a   = 5.555556
		b   = 0.052272
		c   = 0.247190
		d   = 0.385537
		e   = 5.367655
		f   = 0.092809
	)
	if x > cut {
		return c*math.Log10(a*x+b) + d
	}
	return e*x + f
})

// ArriLogC4 is the ARRI LogC4 encode.
var ArriLogC4 = registerCurve("Arri LogC4", func() func(float64) float64 {
	a := (math.Exp2(18.0) - 16.0) / 117.45
	b := (1023.0 - 95.0) / 1023.0
	c := 95.0 / 1023.0
	s := (7.0 * math.Ln2 * math.Exp2(7.0-14.0*c/b)) / (a * b)
	t := (math.Exp2(14.0*(-c/b)+6.0) - 64.0) / a
	return func(x float64) float64 {
		if x < t {
			return (x - t) / s
		}
		return (math.Log2(a*x+64.0)-6.0)/14.0*b + c
	}
}())

// Log3G10 is the RED Log3G10 encode.
var Log3G10 = registerCurve("Log3G10", func(x float64) float64 {
	const (
		a = 0.224282
		b = 155.975327
		c = 0.01
		g = 15.1927
	)
	x += c
	if x < 0 {
		return x * g
	}
	return a * math.Log10(x*b+1.0)
})

// LLog is the Leica L-Log encode.
var LLog = registerCurve("L-Log", func(x float64) float64 {
	const (
		cut = 0.006
		a   = 8.0
		b   = 0.09
		c   = 0.27
		d   = 1.3
		e   = 0.0115
		f   = 0.6
	)
	if x < cut {
		return a*x + b
	}
	return c*math.Log10(d*x+e) + f
})
