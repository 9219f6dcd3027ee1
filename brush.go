package voxpix

import "sync"

// Brush represents what to stamp along a stroke.
// This is a sealed interface - only types in this package implement it.
//
// A brush turns a palette index into concrete stamp pixels. The three
// variants cover the editor's needs: a bare one-pixel stamp, a filled
// rectangular pattern, and pixel data captured from a layer.
//
// Stamp always returns a usable buffer; "no brush" is not representable.
// Callers that just want a single pixel use SolidBrush.
type Brush interface {
	// brushMarker is an unexported method that seals this interface.
	// Only types in this package can implement Brush.
	brushMarker()

	// Size returns the stamp dimensions in pixels.
	Size() (w, h int)

	// Center returns the stamp's anchor cell, (w/2, h/2). Centered drawing
	// subtracts it so the stamp lands centered on the target point.
	Center() (x, y int)

	// Stamp returns the pixel data to blit for the given palette index.
	// The returned buffer may be shared between calls and must not be
	// mutated.
	Stamp(index uint8) *PixelBuffer
}

// SolidBrush is the single-pixel brush: every stamp is one fully covered
// cell carrying the requested index.
type SolidBrush struct{}

// brushMarker implements the sealed Brush interface.
func (SolidBrush) brushMarker() {}

// Size implements Brush.
func (SolidBrush) Size() (int, int) { return 1, 1 }

// Center implements Brush.
func (SolidBrush) Center() (int, int) { return 0, 0 }

// Stamp implements Brush.
func (SolidBrush) Stamp(index uint8) *PixelBuffer {
	b := NewPixelBuffer(1, 1)
	b.pix[0] = Opaque(index)
	return b
}

// RectBrush is a filled w x h rectangle, the default editing brush shape.
//
// Stamps are memoized per index: a stroke resolves the same color over and
// over, and interactive drawing flips between at most a couple of colors.
type RectBrush struct {
	w, h int

	mu        sync.Mutex
	lastIndex uint8
	last      *PixelBuffer
}

// NewRectBrush creates a rectangular brush. Dimensions below 1 are clamped
// to 1.
func NewRectBrush(w, h int) *RectBrush {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &RectBrush{w: w, h: h}
}

// brushMarker implements the sealed Brush interface.
func (b *RectBrush) brushMarker() {}

// Size implements Brush.
func (b *RectBrush) Size() (int, int) { return b.w, b.h }

// Center implements Brush.
func (b *RectBrush) Center() (int, int) { return b.w / 2, b.h / 2 }

// Stamp implements Brush.
func (b *RectBrush) Stamp(index uint8) *PixelBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last != nil && b.lastIndex == index {
		return b.last
	}
	s := NewPixelBuffer(b.w, b.h)
	s.Fill(Opaque(index))
	b.lastIndex = index
	b.last = s
	return s
}

// ImageBrush stamps pixel data captured from a layer. The capture is
// snapshotted at construction, so later edits to the source do not change
// the brush.
//
// A plain ImageBrush ignores the requested index and stamps the capture
// verbatim, transparent cells masking as usual. A colorized ImageBrush
// keeps only the capture's coverage and paints every covered cell with the
// requested index, turning the capture into a shaped pattern.
type ImageBrush struct {
	capture  *PixelBuffer
	colorize bool

	mu        sync.Mutex
	lastIndex uint8
	last      *PixelBuffer
}

// NewImageBrush creates a brush from a copy of buf. A nil or empty buf
// yields a 1x1 transparent brush that stamps nothing.
func NewImageBrush(buf *PixelBuffer) *ImageBrush {
	if buf == nil || buf.width == 0 || buf.height == 0 {
		return &ImageBrush{capture: NewPixelBuffer(1, 1)}
	}
	return &ImageBrush{capture: buf.Clone()}
}

// Colorized returns a colorizing variant sharing the same capture.
func (b *ImageBrush) Colorized() *ImageBrush {
	return &ImageBrush{capture: b.capture, colorize: true}
}

// brushMarker implements the sealed Brush interface.
func (b *ImageBrush) brushMarker() {}

// Size implements Brush.
func (b *ImageBrush) Size() (int, int) { return b.capture.width, b.capture.height }

// Center implements Brush.
func (b *ImageBrush) Center() (int, int) { return b.capture.width / 2, b.capture.height / 2 }

// Stamp implements Brush.
func (b *ImageBrush) Stamp(index uint8) *PixelBuffer {
	if !b.colorize {
		return b.capture
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last != nil && b.lastIndex == index {
		return b.last
	}
	s := NewPixelBuffer(b.capture.width, b.capture.height)
	for i, p := range b.capture.pix {
		if p.Covered() {
			s.pix[i] = Opaque(index)
		}
	}
	b.lastIndex = index
	b.last = s
	return s
}
