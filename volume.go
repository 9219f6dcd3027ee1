package voxpix

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidDimensions is returned when a requested width, height or
	// depth is not positive.
	ErrInvalidDimensions = errors.New("voxpix: invalid dimensions")

	// ErrSliceSize is returned when a slice buffer does not match the
	// volume's width and height.
	ErrSliceSize = errors.New("voxpix: slice size mismatch")

	// ErrSliceIndex is returned when a structural operation names a slice
	// position outside the stack.
	ErrSliceIndex = errors.New("voxpix: slice index out of range")

	// ErrLastSlice is returned when deleting the only remaining slice.
	ErrLastSlice = errors.New("voxpix: cannot delete the last slice")
)

// Axis identifies one of a volume's three storage axes. AxisZ is the
// stacking axis: slices are perpendicular to it.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Volume is an ordered stack of equally sized slices together with the
// palette and transparent-index sentinel the renderer shades them with.
// A higher slice index is closer to the viewer in the unrotated
// orientation.
//
// Pixel-level mutation goes through Paste, Blit and DrawLine on individual
// slices; Volume manages the stack structure, the per-axis visibility
// marks, and whole-volume reorientation. Like buffers, a Volume is not
// synchronized: callers serialize structural changes against rendering.
type Volume struct {
	width  int
	height int
	slices []*PixelBuffer

	palette     *Palette
	transparent uint8

	// hidden marks invisible positions per storage axis. A voxel is
	// invisible when any of its three coordinates is marked on its axis.
	hidden [3]map[int]bool
}

// VolumeOption configures a Volume at construction.
type VolumeOption func(*Volume)

// WithPalette sets the volume's palette. A nil palette is ignored.
func WithPalette(p *Palette) VolumeOption {
	return func(v *Volume) {
		if p != nil {
			v.palette = p
		}
	}
}

// WithTransparent sets the palette index the renderer treats as "empty
// space" when marching through the volume.
func WithTransparent(index uint8) VolumeOption {
	return func(v *Volume) {
		v.transparent = index
	}
}

// NewVolume creates a zeroed volume of the given size with the stock
// palette and transparent index 0.
func NewVolume(width, height, depth int, opts ...VolumeOption) (*Volume, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, width, height, depth)
	}
	v := &Volume{
		width:   width,
		height:  height,
		slices:  make([]*PixelBuffer, depth),
		palette: DefaultPalette(),
	}
	for i := range v.slices {
		v.slices[i] = NewPixelBuffer(width, height)
	}
	for a := range v.hidden {
		v.hidden[a] = make(map[int]bool)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// NewVolumeFromSlices creates a volume that adopts the given slice buffers
// as its stack, index 0 first. All buffers must share the same nonzero
// size. The buffers are not copied.
func NewVolumeFromSlices(slices []*PixelBuffer, opts ...VolumeOption) (*Volume, error) {
	if len(slices) == 0 || slices[0] == nil {
		return nil, fmt.Errorf("%w: no slices", ErrInvalidDimensions)
	}
	w, h := slices[0].width, slices[0].height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d slices", ErrInvalidDimensions, w, h)
	}
	for i, s := range slices {
		if s == nil || s.width != w || s.height != h {
			return nil, fmt.Errorf("%w: slice %d", ErrSliceSize, i)
		}
	}
	v := &Volume{
		width:   w,
		height:  h,
		slices:  slices,
		palette: DefaultPalette(),
	}
	for a := range v.hidden {
		v.hidden[a] = make(map[int]bool)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Width returns the slice width in pixels.
func (v *Volume) Width() int { return v.width }

// Height returns the slice height in pixels.
func (v *Volume) Height() int { return v.height }

// Depth returns the number of slices.
func (v *Volume) Depth() int { return len(v.slices) }

// Palette returns the volume's palette.
func (v *Volume) Palette() *Palette { return v.palette }

// SetPalette replaces the volume's palette. A nil palette is ignored.
func (v *Volume) SetPalette(p *Palette) {
	if p != nil {
		v.palette = p
	}
}

// Transparent returns the palette index treated as empty space.
func (v *Volume) Transparent() uint8 { return v.transparent }

// SetTransparent changes the empty-space index.
func (v *Volume) SetTransparent(index uint8) { v.transparent = index }

// Slice returns the buffer at stack position z, or nil when z is out of
// range. The buffer is the volume's own storage: edits to it are edits to
// the volume.
func (v *Volume) Slice(z int) *PixelBuffer {
	if z < 0 || z >= len(v.slices) {
		return nil
	}
	return v.slices[z]
}

// Voxel returns the pixel at (x, y, z), or zero outside the volume.
func (v *Volume) Voxel(x, y, z int) Pixel {
	if z < 0 || z >= len(v.slices) {
		return 0
	}
	return v.slices[z].At(x, y)
}

// SetVoxel writes the pixel at (x, y, z). Writes outside the volume are
// dropped.
func (v *Volume) SetVoxel(x, y, z int, p Pixel) {
	if z < 0 || z >= len(v.slices) {
		return
	}
	v.slices[z].Set(x, y, p)
}

// InsertSlice inserts a zeroed slice at stack position z, shifting the
// slices at z and above away from the viewer's near side. z may equal
// Depth to append. Hidden marks on the stack axis move with their slices.
func (v *Volume) InsertSlice(z int) error {
	if z < 0 || z > len(v.slices) {
		return fmt.Errorf("%w: insert at %d of %d", ErrSliceIndex, z, len(v.slices))
	}
	v.slices = append(v.slices, nil)
	copy(v.slices[z+1:], v.slices[z:])
	v.slices[z] = NewPixelBuffer(v.width, v.height)
	v.hidden[AxisZ] = remapInsert(v.hidden[AxisZ], z)
	return nil
}

// DeleteSlice removes the slice at stack position z. The last remaining
// slice cannot be deleted.
func (v *Volume) DeleteSlice(z int) error {
	if z < 0 || z >= len(v.slices) {
		return fmt.Errorf("%w: delete at %d of %d", ErrSliceIndex, z, len(v.slices))
	}
	if len(v.slices) == 1 {
		return ErrLastSlice
	}
	v.slices = append(v.slices[:z], v.slices[z+1:]...)
	v.hidden[AxisZ] = remapDelete(v.hidden[AxisZ], z)
	return nil
}

// DuplicateSlice inserts a copy of the slice at z directly above it.
func (v *Volume) DuplicateSlice(z int) error {
	if z < 0 || z >= len(v.slices) {
		return fmt.Errorf("%w: duplicate at %d of %d", ErrSliceIndex, z, len(v.slices))
	}
	dup := v.slices[z].Clone()
	v.slices = append(v.slices, nil)
	copy(v.slices[z+2:], v.slices[z+1:])
	v.slices[z+1] = dup
	v.hidden[AxisZ] = remapInsert(v.hidden[AxisZ], z+1)
	return nil
}

// MoveSlice moves the slice at from to position to, shifting the slices in
// between. Hidden marks travel with their slices.
func (v *Volume) MoveSlice(from, to int) error {
	d := len(v.slices)
	if from < 0 || from >= d {
		return fmt.Errorf("%w: move from %d of %d", ErrSliceIndex, from, d)
	}
	if to < 0 || to >= d {
		return fmt.Errorf("%w: move to %d of %d", ErrSliceIndex, to, d)
	}
	if from == to {
		return nil
	}

	moved := v.slices[from]
	movedHidden := v.hidden[AxisZ][from]
	if from < to {
		copy(v.slices[from:to], v.slices[from+1:to+1])
		v.hidden[AxisZ] = remapDelete(v.hidden[AxisZ], from)
		v.hidden[AxisZ] = remapInsert(v.hidden[AxisZ], to)
	} else {
		copy(v.slices[to+1:from+1], v.slices[to:from])
		v.hidden[AxisZ] = remapDelete(v.hidden[AxisZ], from)
		v.hidden[AxisZ] = remapInsert(v.hidden[AxisZ], to)
	}
	v.slices[to] = moved
	if movedHidden {
		v.hidden[AxisZ][to] = true
	}
	return nil
}

// Hide marks position i on the given axis invisible. Every voxel whose
// coordinate on that axis equals i disappears from renders.
func (v *Volume) Hide(axis Axis, i int) {
	if axis < AxisX || axis > AxisZ {
		return
	}
	v.hidden[axis][i] = true
}

// Show removes the invisibility mark at position i on the given axis.
func (v *Volume) Show(axis Axis, i int) {
	if axis < AxisX || axis > AxisZ {
		return
	}
	delete(v.hidden[axis], i)
}

// Toggle flips the invisibility mark at position i on the given axis.
func (v *Volume) Toggle(axis Axis, i int) {
	if axis < AxisX || axis > AxisZ {
		return
	}
	if v.hidden[axis][i] {
		delete(v.hidden[axis], i)
	} else {
		v.hidden[axis][i] = true
	}
}

// Visible reports whether position i on the given axis is unmarked.
func (v *Volume) Visible(axis Axis, i int) bool {
	if axis < AxisX || axis > AxisZ {
		return true
	}
	return !v.hidden[axis][i]
}

// HiddenPositions returns the marked positions on the given axis in
// ascending order.
func (v *Volume) HiddenPositions(axis Axis) []int {
	if axis < AxisX || axis > AxisZ {
		return nil
	}
	out := make([]int, 0, len(v.hidden[axis]))
	for i := range v.hidden[axis] {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// axisLen returns the volume extent along a storage axis.
func (v *Volume) axisLen(axis Axis) int {
	switch axis {
	case AxisX:
		return v.width
	case AxisY:
		return v.height
	default:
		return len(v.slices)
	}
}

// hiddenSnapshot flattens the hidden marks into per-axis lookup slices so
// the render loop avoids map reads. Marks outside the volume extent are
// dropped.
func (v *Volume) hiddenSnapshot() [3][]bool {
	var out [3][]bool
	for a := range out {
		n := v.axisLen(Axis(a))
		flags := make([]bool, n)
		for i := range v.hidden[a] {
			if i >= 0 && i < n {
				flags[i] = true
			}
		}
		out[a] = flags
	}
	return out
}

// Rotate90 reorients the whole volume by quarter turns about a storage
// axis, the destructive counterpart of viewing it through a rotated View.
// The volume's dimensions change accordingly. Hidden marks are cleared:
// they name axis positions that no longer exist once the data has moved.
func (v *Volume) Rotate90(axis Axis, turns int) {
	turns = ((turns % 4) + 4) % 4
	if turns == 0 || axis < AxisX || axis > AxisZ {
		return
	}
	var rx, ry, rz int
	switch axis {
	case AxisX:
		rx = turns
	case AxisY:
		ry = turns
	case AxisZ:
		rz = turns
	}
	v.adopt(v.View(rx, ry, rz).materialize())
}

// Flip mirrors the volume along a storage axis in place. Hidden marks on
// that axis are remapped to the mirrored positions; the other axes keep
// theirs.
func (v *Volume) Flip(axis Axis) {
	switch axis {
	case AxisX:
		for _, s := range v.slices {
			for y := 0; y < s.height; y++ {
				row := s.pix[y*s.width : (y+1)*s.width]
				for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
					row[i], row[j] = row[j], row[i]
				}
			}
		}
	case AxisY:
		for _, s := range v.slices {
			for y0, y1 := 0, s.height-1; y0 < y1; y0, y1 = y0+1, y1-1 {
				a := s.pix[y0*s.width : (y0+1)*s.width]
				b := s.pix[y1*s.width : (y1+1)*s.width]
				for i := range a {
					a[i], b[i] = b[i], a[i]
				}
			}
		}
	case AxisZ:
		for i, j := 0, len(v.slices)-1; i < j; i, j = i+1, j-1 {
			v.slices[i], v.slices[j] = v.slices[j], v.slices[i]
		}
	default:
		return
	}

	n := v.axisLen(axis)
	mirrored := make(map[int]bool, len(v.hidden[axis]))
	for i := range v.hidden[axis] {
		mirrored[n-1-i] = true
	}
	v.hidden[axis] = mirrored
}

// adopt replaces the volume's storage with another volume's, keeping the
// palette and transparent index.
func (v *Volume) adopt(src *Volume) {
	v.width = src.width
	v.height = src.height
	v.slices = src.slices
	for a := range v.hidden {
		clear(v.hidden[a])
	}
}

// remapInsert shifts marks at or above the insertion point up by one.
func remapInsert(marks map[int]bool, at int) map[int]bool {
	out := make(map[int]bool, len(marks))
	for i := range marks {
		if i >= at {
			out[i+1] = true
		} else {
			out[i] = true
		}
	}
	return out
}

// remapDelete drops the mark at the removed position and shifts the ones
// above it down by one.
func remapDelete(marks map[int]bool, at int) map[int]bool {
	out := make(map[int]bool, len(marks))
	for i := range marks {
		switch {
		case i == at:
		case i > at:
			out[i-1] = true
		default:
			out[i] = true
		}
	}
	return out
}
