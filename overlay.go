package voxpix

import "sync"

// Overlay is the scratch layer an in-progress stroke draws into. The
// renderer shows overlay pixels in place of the current layer's wherever
// their alpha byte is nonzero, so the stroke previews in real time; when
// the stroke finishes, the touched region is blitted into the target layer
// and cleared here.
//
// Strokes run on their own goroutine in an interactive session, so unlike
// bare buffers every Overlay operation takes an internal lock, and the
// renderer samples a locked snapshot rather than the live buffer.
//
// All drawing goes through a Brush and is anchored at the brush's center,
// not its top-left corner, so a stroke lands centered under the cursor.
// Each operation reports the clipped region it touched and folds it into a
// running dirty rectangle; TakeDirty hands the accumulated region to
// whoever commits or repaints, resetting it.
type Overlay struct {
	mu    sync.Mutex
	buf   *PixelBuffer
	dirty Rectangle
}

// NewOverlay creates a cleared overlay of the given size, normally the
// layer size of the view it previews for.
func NewOverlay(width, height int) *Overlay {
	return &Overlay{buf: NewPixelBuffer(width, height)}
}

// Size returns the overlay dimensions.
func (o *Overlay) Size() (w, h int) {
	return o.buf.width, o.buf.height
}

// Snapshot returns a copy of the overlay's pixels, taken under the lock.
func (o *Overlay) Snapshot() *PixelBuffer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Clone()
}

// Region returns a copy of the overlay pixels covered by r, clipped to the
// overlay. Committing a stroke takes the dirty region this way and blits
// it into the target layer.
func (o *Overlay) Region(r Rectangle) *PixelBuffer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Region(r)
}

// Stamp blits one brush stamp centered on (x, y) and returns the clipped
// region touched.
func (o *Overlay) Stamp(brush Brush, index uint8, x, y int) Rectangle {
	if brush == nil {
		panic("voxpix: Overlay.Stamp called with nil brush")
	}
	stamp := brush.Stamp(index)
	cx, cy := brush.Center()

	o.mu.Lock()
	defer o.mu.Unlock()
	r := Blit(o.buf, stamp, x-cx, y-cy)
	o.dirty = o.dirty.Union(r)
	return r
}

// DrawLine stamps brush along the line from (x0, y0) to (x1, y1), centered
// like Stamp, stamping every step-th path position. It returns the clipped
// region touched.
func (o *Overlay) DrawLine(brush Brush, index uint8, x0, y0, x1, y1, step int) Rectangle {
	if brush == nil {
		panic("voxpix: Overlay.DrawLine called with nil brush")
	}
	cx, cy := brush.Center()

	o.mu.Lock()
	defer o.mu.Unlock()
	r := DrawLine(o.buf, brush, index, x0-cx, y0-cy, x1-cx, y1-cy, step)
	o.dirty = o.dirty.Union(r)
	return r
}

// DrawRect traces the rectangle of the given origin and size. With fill
// set, the interior is filled with a bare covered pixel of the requested
// index; otherwise the brush is stamped along the four edges. The origin is
// brush-centered like the other operations. It returns the clipped region
// touched.
func (o *Overlay) DrawRect(brush Brush, index uint8, x, y, w, h int, fill bool) Rectangle {
	if brush == nil {
		panic("voxpix: Overlay.DrawRect called with nil brush")
	}
	if w <= 0 || h <= 0 {
		return Rectangle{}
	}
	cx, cy := brush.Center()
	x, y = x-cx, y-cy

	o.mu.Lock()
	defer o.mu.Unlock()

	var r Rectangle
	if fill {
		c := Rect(x, y, w, h).Intersect(o.buf.Bounds())
		p := Opaque(index)
		for row := 0; row < c.H; row++ {
			base := (c.Y+row)*o.buf.width + c.X
			for i := base; i < base+c.W; i++ {
				o.buf.pix[i] = p
			}
		}
		r = c
	} else {
		x1, y1 := x+w-1, y+h-1
		r = DrawLine(o.buf, brush, index, x, y, x1, y, 1)
		r = r.Union(DrawLine(o.buf, brush, index, x1, y, x1, y1, 1))
		r = r.Union(DrawLine(o.buf, brush, index, x1, y1, x, y1, 1))
		r = r.Union(DrawLine(o.buf, brush, index, x, y1, x, y, 1))
	}
	o.dirty = o.dirty.Union(r)
	return r
}

// Clear zeroes the overlay pixels inside r and returns the clipped region
// cleared. Clearing counts as dirt: the renderer must repaint cleared
// pixels from the volume again.
func (o *Overlay) Clear(r Rectangle) Rectangle {
	o.mu.Lock()
	defer o.mu.Unlock()
	c := r.Intersect(o.buf.Bounds())
	if c.Empty() {
		return Rectangle{}
	}
	for row := 0; row < c.H; row++ {
		base := (c.Y+row)*o.buf.width + c.X
		clear(o.buf.pix[base : base+c.W])
	}
	o.dirty = o.dirty.Union(c)
	return c
}

// ClearAll zeroes the whole overlay.
func (o *Overlay) ClearAll() Rectangle {
	return o.Clear(o.buf.Bounds())
}

// TakeDirty returns the accumulated dirty region and resets it.
func (o *Overlay) TakeDirty() Rectangle {
	o.mu.Lock()
	defer o.mu.Unlock()
	d := o.dirty
	o.dirty = Rectangle{}
	return d
}
