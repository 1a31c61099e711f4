package profile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lookforge/lookforge/pkg/lut"
)

// RGBTable binary layout constants. The header tags, loop nesting and the
// identity ramp are fixed by the consuming application and verified by
// golden byte vectors, not re-derived.
const (
	tableFormat     = 1 // btt_RGBTable
	tableVersion    = 1
	tableDimensions = 3
	headerSize      = 16
	footerSize      = 28
)

// TableOptions carries the footer fields of an RGBTable.
type TableOptions struct {
	// Colors tags the table's colour space (reference enum: 0=sRGB,
	// 2=ProPhoto, with matching Gamma pair).
	Colors uint32
	// Gamma tags the encoding baked into the table samples.
	Gamma uint32
	// Gamut selects clip (0) or extend (1) outside the table domain.
	Gamut uint32
	// MinAmount and MaxAmount bound the amount slider in UI percent;
	// they are stored divided by 100.
	MinAmount float64
	MaxAmount float64
}

// DefaultTableOptions returns the reference converter defaults: ProPhoto
// tags, clip gamut, full 0-200% amount range.
func DefaultTableOptions() TableOptions {
	return TableOptions{Colors: 2, Gamma: 2, Gamut: 0, MinAmount: 0, MaxAmount: 200}
}

// identityRamp returns the 16-bit identity value for axis index i on a grid
// with n divisions, using the reference integer rounding. Note the result
// can exceed 16 bits (n=2 yields 65536 at i=1); it stays an int and wraps
// only when a delta is formed.
func identityRamp(i, n int) int {
	return (i*0xFFFF + n>>1) / (n - 1)
}

// intRound matches the reference rounding: floor(x + 0.5).
func intRound(x float64) int {
	return int(math.Floor(x + 0.5))
}

// EncodeRGBTable serialises a LUT grid into the RGBTable wire format:
// 16-byte header, delta-coded little-endian uint16 samples iterated with
// the red axis outermost and blue innermost, three values per cell, then
// the footer.
func EncodeRGBTable(l *lut.LUT3D, opts TableOptions) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	n := l.Size

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+n*n*n*6+footerSize))
	writeU32 := func(v uint32) { binary.Write(buf, binary.LittleEndian, v) }

	writeU32(tableFormat)
	writeU32(tableVersion)
	writeU32(tableDimensions)
	writeU32(uint32(n))

	ramp := make([]int, n)
	for i := range ramp {
		ramp[i] = identityRamp(i, n)
	}

	sample := make([]uint16, 3)
	for r := 0; r < n; r++ {
		for g := 0; g < n; g++ {
			for b := 0; b < n; b++ {
				vr, vg, vb := l.At(r, g, b)
				sample[0] = uint16(intRound(clampUnit(vr)*65535) - ramp[r])
				sample[1] = uint16(intRound(clampUnit(vg)*65535) - ramp[g])
				sample[2] = uint16(intRound(clampUnit(vb)*65535) - ramp[b])
				binary.Write(buf, binary.LittleEndian, sample)
			}
		}
	}

	writeU32(opts.Colors)
	writeU32(opts.Gamma)
	writeU32(opts.Gamut)
	binary.Write(buf, binary.LittleEndian, opts.MinAmount*0.01)
	binary.Write(buf, binary.LittleEndian, opts.MaxAmount*0.01)

	return buf.Bytes(), nil
}

// DecodeRGBTable reverses EncodeRGBTable. The quantised grid is recovered
// exactly: sample = (identity + delta) mod 2^16.
func DecodeRGBTable(data []byte) (*lut.LUT3D, TableOptions, error) {
	var opts TableOptions
	if len(data) < headerSize+footerSize {
		return nil, opts, fmt.Errorf("rgbtable: truncated at %d bytes", len(data))
	}
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }

	if got := u32(0); got != tableFormat {
		return nil, opts, fmt.Errorf("rgbtable: unexpected format tag %d", got)
	}
	if got := u32(4); got != tableVersion {
		return nil, opts, fmt.Errorf("rgbtable: unsupported version %d", got)
	}
	if got := u32(8); got != tableDimensions {
		return nil, opts, fmt.Errorf("rgbtable: unsupported dimensions %d", got)
	}
	n := int(u32(12))
	if n < 2 {
		return nil, opts, fmt.Errorf("%w: divisions %d", lut.ErrBadDimensions, n)
	}
	payload := n * n * n * 6
	if len(data) != headerSize+payload+footerSize {
		return nil, opts, fmt.Errorf("rgbtable: length %d does not match divisions %d", len(data), n)
	}

	l, err := lut.NewLUT3D(n)
	if err != nil {
		return nil, opts, err
	}
	ramp := make([]int, n)
	for i := range ramp {
		ramp[i] = identityRamp(i, n)
	}

	off := headerSize
	for r := 0; r < n; r++ {
		for g := 0; g < n; g++ {
			for b := 0; b < n; b++ {
				dr := binary.LittleEndian.Uint16(data[off:])
				dg := binary.LittleEndian.Uint16(data[off+2:])
				db := binary.LittleEndian.Uint16(data[off+4:])
				off += 6
				l.Set(r, g, b,
					float32(uint16(ramp[r]+int(dr)))/65535,
					float32(uint16(ramp[g]+int(dg)))/65535,
					float32(uint16(ramp[b]+int(db)))/65535)
			}
		}
	}

	opts.Colors = u32(off)
	opts.Gamma = u32(off + 4)
	opts.Gamut = u32(off + 8)
	opts.MinAmount = math.Float64frombits(binary.LittleEndian.Uint64(data[off+12:])) * 100
	opts.MaxAmount = math.Float64frombits(binary.LittleEndian.Uint64(data[off+20:])) * 100
	return l, opts, nil
}

func clampUnit(v float32) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return float64(v)
}
