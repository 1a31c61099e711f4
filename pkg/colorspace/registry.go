package colorspace

import (
	"fmt"
	"sort"
)

// logWorkingSpace maps user-facing log space names to the linear working
// gamut they are defined against.
var logWorkingSpace = map[string]string{
	"F-Log":       "F-Gamut",
	"F-Log2":      "F-Gamut",
	"F-Log2C":     "F-Gamut C",
	"V-Log":       "V-Gamut",
	"N-Log":       "N-Gamut",
	"L-Log":       "ITU-R BT.2020",
	"Canon Log 2": "Cinema Gamut",
	"Canon Log 3": "Cinema Gamut",
	"S-Log3":      "S-Gamut3",
	"S-Log3.Cine": "S-Gamut3.Cine",
	"Arri LogC3":  "ARRI Wide Gamut 3",
	"Arri LogC4":  "ARRI Wide Gamut 4",
	"Log3G10":     "REDWideGamutRGB",
}

// logCurveAlias maps composite log space names to the curve they share.
var logCurveAlias = map[string]string{
	"S-Log3.Cine": "S-Log3",
	"F-Log2C":     "F-Log2",
}

// ResolveLogSpace resolves a user-facing log space name to its working
// gamut and encode curve. Unknown names fail here, before any pixel work.
func ResolveLogSpace(name string) (*Space, *Curve, error) {
	gamut, ok := logWorkingSpace[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: log space %q", ErrUnknownSpace, name)
	}
	space, err := LookupSpace(gamut)
	if err != nil {
		return nil, nil, err
	}
	curveName := name
	if alias, ok := logCurveAlias[name]; ok {
		curveName = alias
	}
	curve, err := LookupCurve(curveName)
	if err != nil {
		return nil, nil, err
	}
	return space, curve, nil
}

// LogSpaceNames returns the supported log space names, sorted.
func LogSpaceNames() []string {
	names := make([]string, 0, len(logWorkingSpace))
	for n := range logWorkingSpace {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
