package voxpix

// PixelBuffer is a rectangular grid of packed pixels in row-major order.
//
// It is plain storage. The compositing primitives mutate a buffer in place
// and never resize or reallocate it; growing or shrinking means allocating a
// new buffer and pasting the old content across.
//
// PixelBuffer is not synchronized. Callers that mutate a buffer while a
// render is reading it get whatever mix of old and new pixels the race
// produces; Overlay wraps a buffer with the locking interactive use needs.
type PixelBuffer struct {
	width  int
	height int
	pix    []Pixel
}

// NewPixelBuffer creates a zeroed buffer of the given size. Negative
// dimensions are clamped to zero, yielding a buffer every operation treats
// as empty.
func NewPixelBuffer(width, height int) *PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &PixelBuffer{
		width:  width,
		height: height,
		pix:    make([]Pixel, width*height),
	}
}

// Width returns the buffer width in pixels.
func (b *PixelBuffer) Width() int {
	return b.width
}

// Height returns the buffer height in pixels.
func (b *PixelBuffer) Height() int {
	return b.height
}

// Bounds returns the buffer extent as a Rectangle at the origin.
func (b *PixelBuffer) Bounds() Rectangle {
	return Rectangle{W: b.width, H: b.height}
}

// Data returns the backing pixel slice. The layout is row-major with no
// padding: index y*Width()+x.
func (b *PixelBuffer) Data() []Pixel {
	return b.pix
}

// At returns the pixel at (x, y), or zero when the coordinate is outside
// the buffer.
func (b *PixelBuffer) At(x, y int) Pixel {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0
	}
	return b.pix[y*b.width+x]
}

// Set writes the pixel at (x, y). Writes outside the buffer are dropped.
func (b *PixelBuffer) Set(x, y int, p Pixel) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	b.pix[y*b.width+x] = p
}

// Fill sets every cell to p.
func (b *PixelBuffer) Fill(p Pixel) {
	for i := range b.pix {
		b.pix[i] = p
	}
}

// Clear zeroes the buffer.
func (b *PixelBuffer) Clear() {
	clear(b.pix)
}

// Clone returns an independent copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	c := &PixelBuffer{
		width:  b.width,
		height: b.height,
		pix:    make([]Pixel, len(b.pix)),
	}
	copy(c.pix, b.pix)
	return c
}

// Region returns a copy of the part of the buffer covered by r. The
// rectangle is clipped to the buffer first; the result has the clipped size,
// which is empty when r lies entirely outside.
func (b *PixelBuffer) Region(r Rectangle) *PixelBuffer {
	c := r.Intersect(b.Bounds())
	out := NewPixelBuffer(c.W, c.H)
	for row := 0; row < c.H; row++ {
		src := b.pix[(c.Y+row)*b.width+c.X:]
		copy(out.pix[row*c.W:(row+1)*c.W], src[:c.W])
	}
	return out
}
