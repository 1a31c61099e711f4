package lut

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lookforge/lookforge/pkg/imaging"
)

// Cube is a parsed .cube LUT file: a 3D table or a 1D shaper, with its
// declared domain bounds.
type Cube struct {
	Title     string
	LUT3D     *LUT3D
	LUT1D     *LUT1D
	DomainMin [3]float64
	DomainMax [3]float64
}

// LUT1D is a per-channel shaper curve with N entries of RGB triples.
type LUT1D struct {
	Table []float32 // len N*3
}

// Size returns the entry count.
func (l *LUT1D) Size() int { return len(l.Table) / 3 }

// Sample linearly interpolates channel c at t in [0,1].
func (l *LUT1D) Sample(c int, t float64) float64 {
	n := l.Size()
	if n == 1 {
		return float64(l.Table[c])
	}
	p := clamp01(t) * float64(n-1)
	i := int(p)
	if i > n-2 {
		i = n - 2
	}
	f := p - float64(i)
	a := float64(l.Table[i*3+c])
	b := float64(l.Table[(i+1)*3+c])
	return a + (b-a)*f
}

// Apply maps every pixel of img through the shaper in place.
func (l *LUT1D) Apply(img *imaging.Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	for i := 0; i < len(img.Pix); i += 3 {
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = float32(l.Sample(c, float64(img.Pix[i+c])))
		}
	}
	return nil
}

// normalize maps v from the declared domain of channel c into [0,1].
func (cu *Cube) normalize(c int, v float64) float64 {
	span := cu.DomainMax[c] - cu.DomainMin[c]
	if span == 0 {
		return v
	}
	return (v - cu.DomainMin[c]) / span
}

// Apply maps every pixel of img through the cube in place, mapping the
// declared domain into [0,1] first.
func (cu *Cube) Apply(img *imaging.Image) error {
	if cu.LUT3D != nil {
		if cu.DomainMin == ([3]float64{}) && cu.DomainMax == ([3]float64{1, 1, 1}) {
			return cu.LUT3D.Apply(img)
		}
		if err := cu.LUT3D.Validate(); err != nil {
			return err
		}
		if err := img.Validate(); err != nil {
			return err
		}
		for i := 0; i < len(img.Pix); i += 3 {
			r, g, b := cu.LUT3D.Sample(
				cu.normalize(0, float64(img.Pix[i])),
				cu.normalize(1, float64(img.Pix[i+1])),
				cu.normalize(2, float64(img.Pix[i+2])))
			img.Pix[i] = float32(r)
			img.Pix[i+1] = float32(g)
			img.Pix[i+2] = float32(b)
		}
		return nil
	}
	if cu.LUT1D != nil {
		return cu.LUT1D.Apply(img)
	}
	return fmt.Errorf("%w: cube holds no table", ErrBadDimensions)
}

// ApplyGrid maps every cell of grid through the cube in place.
func (cu *Cube) ApplyGrid(grid *LUT3D) error {
	if cu.LUT3D == nil {
		return fmt.Errorf("%w: cube holds no 3D table", ErrBadDimensions)
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	for i := 0; i < len(grid.Table); i += 3 {
		r, g, b := cu.LUT3D.Sample(
			cu.normalize(0, float64(grid.Table[i])),
			cu.normalize(1, float64(grid.Table[i+1])),
			cu.normalize(2, float64(grid.Table[i+2])))
		grid.Table[i] = float32(r)
		grid.Table[i+1] = float32(g)
		grid.Table[i+2] = float32(b)
	}
	return nil
}

// ReadCubeFile parses a .cube file from disk.
func ReadCubeFile(path string) (*Cube, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read LUT %s: %w", path, err)
	}
	defer f.Close()
	cu, err := ReadCube(f)
	if err != nil {
		return nil, fmt.Errorf("read LUT %s: %w", path, err)
	}
	return cu, nil
}

// ReadCube parses the Resolve/IRIDAS .cube format: keyword lines followed
// by whitespace-delimited float triples, red axis varying fastest.
func ReadCube(r io.Reader) (*Cube, error) {
	cu := &Cube{DomainMax: [3]float64{1, 1, 1}}

	var size3, size1 int
	var data []float32

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "TITLE":
			cu.Title = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, fields[0])), `"`)
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: malformed LUT_3D_SIZE", lineNo)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 {
				return nil, fmt.Errorf("line %d: %w: LUT_3D_SIZE %s", lineNo, ErrBadDimensions, fields[1])
			}
			size3 = n
		case "LUT_1D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: malformed LUT_1D_SIZE", lineNo)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 {
				return nil, fmt.Errorf("line %d: %w: LUT_1D_SIZE %s", lineNo, ErrBadDimensions, fields[1])
			}
			size1 = n
		case "DOMAIN_MIN", "DOMAIN_MAX":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: malformed %s", lineNo, fields[0])
			}
			var v [3]float64
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %s: %w", lineNo, fields[0], err)
				}
				v[i] = f
			}
			if strings.ToUpper(fields[0]) == "DOMAIN_MIN" {
				cu.DomainMin = v
			} else {
				cu.DomainMax = v
			}
		default:
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: expected RGB triple, got %q", lineNo, line)
			}
			for _, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad sample %q: %w", lineNo, f, err)
				}
				data = append(data, float32(v))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	switch {
	case size3 > 0 && size1 > 0:
		return nil, fmt.Errorf("%w: both LUT_1D_SIZE and LUT_3D_SIZE declared", ErrBadDimensions)
	case size3 > 0:
		want := size3 * size3 * size3 * 3
		if len(data) != want {
			return nil, fmt.Errorf("%w: LUT_3D_SIZE %d needs %d samples, got %d", ErrBadDimensions, size3, want, len(data))
		}
		l, err := NewLUT3D(size3)
		if err != nil {
			return nil, err
		}
		// file order: red varies fastest, blue slowest
		i := 0
		for b := 0; b < size3; b++ {
			for g := 0; g < size3; g++ {
				for r := 0; r < size3; r++ {
					l.Set(r, g, b, data[i], data[i+1], data[i+2])
					i += 3
				}
			}
		}
		cu.LUT3D = l
		return cu, nil
	case size1 > 0:
		want := size1 * 3
		if len(data) != want {
			return nil, fmt.Errorf("%w: LUT_1D_SIZE %d needs %d samples, got %d", ErrBadDimensions, size1, want, len(data))
		}
		cu.LUT1D = &LUT1D{Table: data}
		return cu, nil
	default:
		return nil, fmt.Errorf("%w: no LUT_3D_SIZE or LUT_1D_SIZE", ErrBadDimensions)
	}
}

// WriteCube writes a 3D table in .cube format, red axis varying fastest.
func WriteCube(w io.Writer, l *LUT3D, title string) error {
	if err := l.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if title != "" {
		fmt.Fprintf(bw, "TITLE %q\n", title)
	}
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", l.Size)
	fmt.Fprintf(bw, "DOMAIN_MIN 0.0 0.0 0.0\n")
	fmt.Fprintf(bw, "DOMAIN_MAX 1.0 1.0 1.0\n")
	for b := 0; b < l.Size; b++ {
		for g := 0; g < l.Size; g++ {
			for r := 0; r < l.Size; r++ {
				vr, vg, vb := l.At(r, g, b)
				fmt.Fprintf(bw, "%.6f %.6f %.6f\n", vr, vg, vb)
			}
		}
	}
	return bw.Flush()
}

// WriteCubeFile writes a 3D table to a .cube file on disk.
func WriteCubeFile(path string, l *LUT3D, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write LUT %s: %w", path, err)
	}
	if err := WriteCube(f, l, title); err != nil {
		f.Close()
		return fmt.Errorf("write LUT %s: %w", path, err)
	}
	return f.Close()
}
