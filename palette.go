package voxpix

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

// PaletteSize is the fixed number of entries in a Palette.
const PaletteSize = 256

// ErrBadHexColor is returned when a hex color string cannot be parsed.
var ErrBadHexColor = errors.New("voxpix: malformed hex color")

// defaultColors is the stock color table. Entry 0 is a visible gray but
// carries zero alpha, so the default background index renders as nothing.
var defaultColors = []color.NRGBA{
	{170, 170, 170, 0}, {255, 255, 255, 255}, {101, 101, 101, 255}, {223, 223, 223, 255},
	{207, 48, 69, 255}, {223, 138, 69, 255}, {207, 223, 69, 255}, {138, 138, 48, 255},
	{48, 138, 69, 255}, {69, 223, 69, 255}, {69, 223, 207, 255}, {48, 138, 207, 255},
	{138, 138, 223, 255}, {69, 48, 207, 255}, {207, 48, 207, 255}, {223, 138, 207, 255},
	{227, 227, 227, 255}, {223, 223, 223, 255}, {223, 223, 223, 255}, {195, 195, 195, 255},
	{178, 178, 178, 255}, {170, 170, 170, 255}, {146, 146, 146, 255}, {130, 130, 130, 255},
	{113, 113, 113, 255}, {113, 113, 113, 255}, {101, 101, 101, 255}, {81, 81, 81, 255},
	{65, 65, 65, 255}, {48, 48, 48, 255}, {32, 32, 32, 255}, {32, 32, 32, 255},
	{243, 0, 0, 255},
}

// Palette is a table of 256 RGBA colors shared by every slice of a volume
// and by its overlay.
//
// Foreground and Background are the indices an editing session paints and
// erases with; the package core never reads them, they just live with the
// table they refer to. Overrides are temporary per-index color
// substitutions layered over the stored table, used to preview a color edit
// without committing it. Color and Resolved see overrides; the stored table
// keeps its original entries until SetColor writes them.
//
// Palette is not synchronized; like buffers, callers serialize mutation
// against rendering.
type Palette struct {
	colors    [PaletteSize]color.NRGBA
	overrides map[uint8]color.NRGBA

	Foreground uint8
	Background uint8
}

// NewPalette builds a palette from the given colors, padded to 256 entries
// with opaque black. Entries beyond 256 are dropped.
func NewPalette(colors ...color.NRGBA) *Palette {
	p := &Palette{Foreground: 1, Background: 0}
	for i := range p.colors {
		p.colors[i] = color.NRGBA{A: 255}
	}
	n := min(len(colors), PaletteSize)
	copy(p.colors[:n], colors[:n])
	return p
}

// DefaultPalette returns the stock 33-color table padded to 256 entries.
func DefaultPalette() *Palette {
	return NewPalette(defaultColors...)
}

// Color returns entry i with any override applied.
func (p *Palette) Color(i uint8) color.NRGBA {
	if c, ok := p.overrides[i]; ok {
		return c
	}
	return p.colors[i]
}

// StoredColor returns entry i of the stored table, ignoring overrides.
func (p *Palette) StoredColor(i uint8) color.NRGBA {
	return p.colors[i]
}

// SetColor writes entry i of the stored table.
func (p *Palette) SetColor(i uint8, c color.NRGBA) {
	p.colors[i] = c
}

// SetColors writes a run of entries starting at index start. The run is
// silently truncated at the end of the table.
func (p *Palette) SetColors(start int, colors []color.NRGBA) {
	if start < 0 || start >= PaletteSize {
		return
	}
	n := min(len(colors), PaletteSize-start)
	copy(p.colors[start:start+n], colors[:n])
}

// SetOverride substitutes entry i with c until ClearOverrides.
func (p *Palette) SetOverride(i uint8, c color.NRGBA) {
	if p.overrides == nil {
		p.overrides = make(map[uint8]color.NRGBA)
	}
	p.overrides[i] = c
}

// ClearOverrides drops every override, restoring the stored table.
func (p *Palette) ClearOverrides() {
	clear(p.overrides)
}

// ForegroundColor returns the effective color of the foreground index.
func (p *Palette) ForegroundColor() color.NRGBA {
	return p.Color(p.Foreground)
}

// BackgroundColor returns the effective color of the background index.
func (p *Palette) BackgroundColor() color.NRGBA {
	return p.Color(p.Background)
}

// Resolved returns the effective table with overrides applied. The renderer
// takes one snapshot per frame so per-pixel lookups are flat array reads.
func (p *Palette) Resolved() [PaletteSize]color.NRGBA {
	out := p.colors
	for i, c := range p.overrides {
		out[i] = c
	}
	return out
}

// ColorPalette returns the effective table as a color.Palette for the
// standard image packages.
func (p *Palette) ColorPalette() color.Palette {
	resolved := p.Resolved()
	out := make(color.Palette, PaletteSize)
	for i := range resolved {
		out[i] = resolved[i]
	}
	return out
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" (the hash is optional) into
// an NRGBA color. Without an alpha component the color is opaque.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	c := color.NRGBA{A: 255}
	var err error
	switch len(s) {
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadHexColor, s)
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadHexColor, s)
	}
	return c, nil
}
