// Package pal reads and writes Microsoft RIFF palette files (.pal).
//
// The format is a RIFF container with form type "PAL " holding a single
// LOGPALETTE data chunk: a version word (0x0300), an entry count, then one
// {red, green, blue, flags} quad per entry. Only the colors survive the
// trip; the flags byte is written as zero and ignored on read.
package pal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/riff"
)

var (
	// ErrFormat is returned for input that is not a RIFF palette.
	ErrFormat = errors.New("pal: malformed RIFF palette")

	// ErrTooManyEntries is returned when a palette holds more entries
	// than an indexed image can address.
	ErrTooManyEntries = errors.New("pal: more than 256 entries")
)

// MaxEntries is the largest palette this package accepts, the address
// space of one pixel index byte.
const MaxEntries = 256

// logPaletteVersion is the LOGPALETTE palVersion word.
const logPaletteVersion = 0x0300

var (
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

// Decode reads a RIFF palette and returns its colors, fully opaque, in
// file order. Chunks other than the LOGPALETTE data chunk are skipped; the
// first data chunk wins.
func Decode(r io.Reader) ([]color.NRGBA, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if formType != palType {
		return nil, fmt.Errorf("%w: form type %q", ErrFormat, formType[:])
	}

	for {
		id, _, data, err := rd.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: no data chunk", ErrFormat)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if id != dataType {
			continue
		}
		return decodeLogPalette(data)
	}
}

func decodeLogPalette(r io.Reader) ([]color.NRGBA, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	if v := binary.LittleEndian.Uint16(hdr[0:2]); v != logPaletteVersion {
		return nil, fmt.Errorf("%w: version %#04x", ErrFormat, v)
	}
	count := int(binary.LittleEndian.Uint16(hdr[2:4]))
	if count > MaxEntries {
		return nil, fmt.Errorf("%w: %d", ErrTooManyEntries, count)
	}

	out := make([]color.NRGBA, count)
	var e [4]byte
	for i := range out {
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrFormat, i, err)
		}
		out[i] = color.NRGBA{R: e[0], G: e[1], B: e[2], A: 255}
	}
	return out, nil
}

// Encode writes the colors as a RIFF palette. Alpha is not representable
// in the format and is dropped.
func Encode(w io.Writer, colors []color.NRGBA) error {
	if len(colors) > MaxEntries {
		return fmt.Errorf("%w: %d", ErrTooManyEntries, len(colors))
	}

	body := 4 + 4*len(colors)
	buf := make([]byte, 0, 12+8+body)
	buf = append(buf, 'R', 'I', 'F', 'F')
	buf = binary.LittleEndian.AppendUint32(buf, uint32(4+8+body))
	buf = append(buf, palType[:]...)
	buf = append(buf, dataType[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(body))
	buf = binary.LittleEndian.AppendUint16(buf, logPaletteVersion)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(colors)))
	for _, c := range colors {
		buf = append(buf, c.R, c.G, c.B, 0)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("pal: write: %w", err)
	}
	return nil
}
