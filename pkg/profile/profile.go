// Package profile serialises a colour pipeline plus a user LUT into a
// portable look profile: a delta-coded RGBTable blob, zlib-compressed,
// base85-encoded and embedded in an XMP metadata document.
package profile

import (
	"bytes"
	"compress/zlib"
	"crypto/md5"
	"encoding/binary"
	"fmt"

	"github.com/lookforge/lookforge/pkg/colorspace"
	"github.com/lookforge/lookforge/pkg/imaging"
	"github.com/lookforge/lookforge/pkg/lut"
)

// CodecError marks a compression or fingerprinting failure. It is fatal
// for the single profile being processed, never for sibling items.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("codec %s: %v", e.Op, e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }

// Document is a finished look profile. Write-once: the codec produces it
// and nothing mutates it afterwards.
type Document struct {
	Name        string
	UUID        string
	Fingerprint string
	XMP         string
}

// GridOptions controls the pipeline baked into a profile grid.
type GridOptions struct {
	// Size is the output grid resolution per axis.
	Size int
	// Adapt enables chromatic adaptation in the gamut transform.
	Adapt bool
}

// DefaultGridSize matches the reference profiles.
const DefaultGridSize = 32

// BuildGrid bakes the colour pipeline and the user LUT into a grid: an
// identity grid in linear ProPhoto is gamut-transformed into the log
// space's working gamut, log-encoded, then pushed through the user LUT.
func BuildGrid(logSpace string, userLUT *lut.Cube, opts GridOptions) (*lut.LUT3D, error) {
	space, curve, err := colorspace.ResolveLogSpace(logSpace)
	if err != nil {
		return nil, err
	}
	size := opts.Size
	if size == 0 {
		size = DefaultGridSize
	}
	grid, err := lut.Identity(size)
	if err != nil {
		return nil, err
	}

	// The grid shares the image buffer layout, so the colorimetric
	// transform applies to it unchanged.
	img := &imaging.Image{W: size * size, H: size, Pix: grid.Table}
	src, err := colorspace.LookupSpace("ProPhoto RGB")
	if err != nil {
		return nil, err
	}
	if err := imaging.Transform(img, src, space, curve, imaging.TransformOptions{Adapt: opts.Adapt}); err != nil {
		return nil, err
	}

	// Cube.Apply rather than ApplyGrid so 1D shaper cubes work here too.
	if userLUT != nil {
		if err := userLUT.Apply(img); err != nil {
			return nil, err
		}
	}
	img.Clamp01()
	return grid, nil
}

// Fingerprint returns the MD5 digest of the uncompressed table bytes as an
// upper-case hex string.
func Fingerprint(raw []byte) string {
	return fmt.Sprintf("%X", md5.Sum(raw))
}

// Compress prefixes raw with its own uncompressed length as 4 bytes
// little-endian, then zlib-compresses everything after that prefix at best
// compression. The prefix itself is not compressed.
func Compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(raw))); err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	if err := zw.Close(); err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress and validates the length prefix.
func Decompress(blob []byte) ([]byte, error) {
	if len(blob) < 4 {
		return nil, &CodecError{Op: "decompress", Err: fmt.Errorf("blob truncated at %d bytes", len(blob))}
	}
	want := binary.LittleEndian.Uint32(blob)
	zr, err := zlib.NewReader(bytes.NewReader(blob[4:]))
	if err != nil {
		return nil, &CodecError{Op: "decompress", Err: err}
	}
	defer zr.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, &CodecError{Op: "decompress", Err: err}
	}
	if uint32(out.Len()) != want {
		return nil, &CodecError{Op: "decompress", Err: fmt.Errorf("length prefix %d does not match %d bytes", want, out.Len())}
	}
	return out.Bytes(), nil
}

// Generate serialises a finished grid into a look profile document. Grid
// validation happens before any binary work; codec failures surface as
// *CodecError for this item only.
func Generate(name string, grid *lut.LUT3D, opts TableOptions) (*Document, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	raw, err := EncodeRGBTable(grid, opts)
	if err != nil {
		return nil, err
	}
	fingerprint := Fingerprint(raw)
	blob, err := Compress(raw)
	if err != nil {
		return nil, err
	}
	encoded := EncodeBase85(blob)

	id := newProfileUUID()
	return &Document{
		Name:        name,
		UUID:        id,
		Fingerprint: fingerprint,
		XMP:         xmpDocument(name, id, fingerprint, encoded),
	}, nil
}
