package voxpix

import (
	"math"
	"testing"
)

// encodeCoord packs a storage coordinate into a Pixel so rotation tests can
// recognize every voxel after it moves.
func encodeCoord(x, y, z int) Pixel {
	return Pixel(x | y<<8 | z<<16)
}

// coordVolume builds a volume where every voxel holds its own storage
// coordinate.
func coordVolume(t *testing.T, w, h, d int) *Volume {
	t.Helper()
	v, err := NewVolume(w, h, d)
	if err != nil {
		t.Fatalf("NewVolume(%d, %d, %d) failed: %v", w, h, d, err)
	}
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v.SetVoxel(x, y, z, encodeCoord(x, y, z))
			}
		}
	}
	return v
}

// refGrid is a plain array-rotation reference: rotate moves the elements,
// where the view transform only moves indices. Comparing the two over every
// rotation catches composition mistakes in either direction.
type refGrid struct {
	dims [3]int
	data map[[3]int]Pixel
}

func newRefGrid(v *Volume) *refGrid {
	g := &refGrid{
		dims: [3]int{v.Width(), v.Height(), v.Depth()},
		data: make(map[[3]int]Pixel),
	}
	for z := 0; z < g.dims[2]; z++ {
		for y := 0; y < g.dims[1]; y++ {
			for x := 0; x < g.dims[0]; x++ {
				g.data[[3]int{x, y, z}] = v.Voxel(x, y, z)
			}
		}
	}
	return g
}

// rotate performs one quarter turn in the plane from axis a toward axis b:
// the new element at vn comes from vp, with vp[a] = vn[b] and
// vp[b] = dims[b]-1-vn[a].
func (g *refGrid) rotate(a, b int) {
	nd := g.dims
	nd[a], nd[b] = g.dims[b], g.dims[a]
	out := make(map[[3]int]Pixel, len(g.data))
	for z := 0; z < nd[2]; z++ {
		for y := 0; y < nd[1]; y++ {
			for x := 0; x < nd[0]; x++ {
				vn := [3]int{x, y, z}
				vp := vn
				vp[a] = vn[b]
				vp[b] = g.dims[b] - 1 - vn[a]
				out[vn] = g.data[vp]
			}
		}
	}
	g.dims = nd
	g.data = out
}

// TestView_MatchesArrayRotation compares every rotation of a view against
// rotating the voxel array itself, element by element.
func TestView_MatchesArrayRotation(t *testing.T) {
	v := coordVolume(t, 2, 3, 4)
	for rz := 0; rz < 4; rz++ {
		for rx := 0; rx < 4; rx++ {
			for ry := 0; ry < 4; ry++ {
				ref := newRefGrid(v)
				for i := 0; i < rz; i++ {
					ref.rotate(0, 1)
				}
				for i := 0; i < rx; i++ {
					ref.rotate(1, 2)
				}
				for i := 0; i < ry; i++ {
					ref.rotate(2, 0)
				}

				vw := v.View(rx, ry, rz)
				if vw.Width() != ref.dims[0] || vw.Height() != ref.dims[1] || vw.Depth() != ref.dims[2] {
					t.Fatalf("rotation (%d,%d,%d): dims = %dx%dx%d, want %v",
						rx, ry, rz, vw.Width(), vw.Height(), vw.Depth(), ref.dims)
				}
				for z := 0; z < ref.dims[2]; z++ {
					for y := 0; y < ref.dims[1]; y++ {
						for x := 0; x < ref.dims[0]; x++ {
							got := vw.Voxel(x, y, z)
							want := ref.data[[3]int{x, y, z}]
							if got != want {
								t.Fatalf("rotation (%d,%d,%d): voxel (%d,%d,%d) = %#x, want %#x",
									rx, ry, rz, x, y, z, got, want)
							}
						}
					}
				}
			}
		}
	}
}

// TestView_Direction pins the stacking direction of each elementary
// rotation.
func TestView_Direction(t *testing.T) {
	v := coordVolume(t, 3, 3, 3)
	tests := []struct {
		rx, ry, rz int
		wx, wy, wz int
	}{
		{0, 0, 0, 0, 0, 1},
		{1, 0, 0, 0, 1, 0},
		{2, 0, 0, 0, 0, -1},
		{3, 0, 0, 0, -1, 0},
		{0, 1, 0, -1, 0, 0},
		{0, 2, 0, 0, 0, -1},
		{0, 3, 0, 1, 0, 0},
		{0, 0, 1, 0, 0, 1},
		{0, 0, 3, 0, 0, 1},
	}
	for _, tt := range tests {
		vw := v.View(tt.rx, tt.ry, tt.rz)
		x, y, z := vw.Direction()
		if x != tt.wx || y != tt.wy || z != tt.wz {
			t.Errorf("View(%d,%d,%d).Direction() = (%d,%d,%d), want (%d,%d,%d)",
				tt.rx, tt.ry, tt.rz, x, y, z, tt.wx, tt.wy, tt.wz)
		}
		dv := vw.DirectionVec()
		if dv.X != float64(tt.wx) || dv.Y != float64(tt.wy) || dv.Z != float64(tt.wz) {
			t.Errorf("View(%d,%d,%d).DirectionVec() = %+v", tt.rx, tt.ry, tt.rz, dv)
		}
	}
}

// TestView_Dims checks rotation swaps the extents the way the direction
// table implies.
func TestView_Dims(t *testing.T) {
	v := coordVolume(t, 3, 4, 5)
	tests := []struct {
		rx, ry, rz int
		w, h, d    int
	}{
		{0, 0, 0, 3, 4, 5},
		{1, 0, 0, 3, 5, 4},
		{0, 1, 0, 5, 4, 3},
		{0, 0, 1, 4, 3, 5},
		{2, 0, 0, 3, 4, 5},
	}
	for _, tt := range tests {
		vw := v.View(tt.rx, tt.ry, tt.rz)
		if vw.Width() != tt.w || vw.Height() != tt.h || vw.Depth() != tt.d {
			t.Errorf("View(%d,%d,%d) dims = %dx%dx%d, want %dx%dx%d",
				tt.rx, tt.ry, tt.rz, vw.Width(), vw.Height(), vw.Depth(), tt.w, tt.h, tt.d)
		}
	}
}

// TestView_ContinuousMatchesInteger checks the continuous transform lands
// cell centers inside the cell the integer transform names, for every
// rotation. The free-direction renderer depends on this agreement.
func TestView_ContinuousMatchesInteger(t *testing.T) {
	v := coordVolume(t, 2, 3, 4)
	for rz := 0; rz < 4; rz++ {
		for rx := 0; rx < 4; rx++ {
			for ry := 0; ry < 4; ry++ {
				vw := v.View(rx, ry, rz)
				for z := 0; z < vw.Depth(); z++ {
					for y := 0; y < vw.Height(); y++ {
						for x := 0; x < vw.Width(); x++ {
							sx, sy, sz := vw.t.apply(x, y, z)
							fx, fy, fz := vw.t.applyCont(float64(x)+0.5, float64(y)+0.5, float64(z)+0.5)
							if int(math.Floor(fx)) != sx || int(math.Floor(fy)) != sy || int(math.Floor(fz)) != sz {
								t.Fatalf("rotation (%d,%d,%d): cell (%d,%d,%d) continuous (%g,%g,%g) vs integer (%d,%d,%d)",
									rx, ry, rz, x, y, z, fx, fy, fz, sx, sy, sz)
							}
						}
					}
				}
			}
		}
	}
}

// TestView_SetVoxel writes through a rotated view and reads the landing
// spot back through the volume.
func TestView_SetVoxel(t *testing.T) {
	v := coordVolume(t, 2, 3, 1)
	vw := v.View(0, 0, 1)
	if vw.Width() != 3 || vw.Height() != 2 {
		t.Fatalf("view dims = %dx%d, want 3x2", vw.Width(), vw.Height())
	}

	vw.SetVoxel(2, 1, 0, Opaque(7))
	if got := v.Voxel(1, 0, 0); got.Index() != 7 {
		t.Errorf("storage voxel (1,0,0) = %#x, want index 7", got)
	}
	if got := vw.Voxel(2, 1, 0); got.Index() != 7 {
		t.Errorf("view readback = %#x, want index 7", got)
	}

	before := v.Voxel(0, 0, 0)
	vw.SetVoxel(3, 0, 0, Opaque(9))
	vw.SetVoxel(0, 0, 1, Opaque(9))
	if v.Voxel(0, 0, 0) != before {
		t.Error("out-of-range view write landed in storage")
	}
	if got := vw.Voxel(-1, 0, 0); got != 0 {
		t.Errorf("out-of-range view read = %#x, want 0", got)
	}
}

// TestView_Layer captures a rotated layer and checks the copy is detached
// from the volume.
func TestView_Layer(t *testing.T) {
	v := coordVolume(t, 2, 2, 2)
	vw := v.View(1, 0, 0)

	layer := vw.Layer(0)
	if layer.Width() != vw.Width() || layer.Height() != vw.Height() {
		t.Fatalf("layer size = %dx%d, want %dx%d", layer.Width(), layer.Height(), vw.Width(), vw.Height())
	}
	for y := 0; y < layer.Height(); y++ {
		for x := 0; x < layer.Width(); x++ {
			if got, want := layer.At(x, y), vw.Voxel(x, y, 0); got != want {
				t.Errorf("layer (%d,%d) = %#x, want %#x", x, y, got, want)
			}
		}
	}

	orig := vw.Voxel(0, 0, 0)
	layer.Set(0, 0, Opaque(250))
	if vw.Voxel(0, 0, 0) != orig {
		t.Error("editing the layer copy changed the volume")
	}

	if got := vw.Layer(9); got.Width() != 0 || got.Height() != 0 {
		t.Errorf("out-of-range layer = %dx%d, want empty", got.Width(), got.Height())
	}
}

// TestView_BlitLayer pushes a masked buffer through a rotated view and
// checks clipping, masking and the storage landing spots.
func TestView_BlitLayer(t *testing.T) {
	v, err := NewVolume(3, 3, 1)
	if err != nil {
		t.Fatalf("NewVolume failed: %v", err)
	}
	vw := v.View(0, 0, 1)

	src := NewPixelBuffer(2, 2)
	src.Set(0, 0, Opaque(1))
	src.Set(1, 0, MakePixel(2, 0))
	src.Set(0, 1, Opaque(3))
	src.Set(1, 1, Opaque(4))

	got := vw.BlitLayer(0, src, -1, 0)
	want := Rectangle{X: 0, Y: 0, W: 1, H: 2}
	if got != want {
		t.Fatalf("BlitLayer rect = %+v, want %+v", got, want)
	}

	// Column 1 of src survives the clip; its uncovered pixel is skipped.
	if p := vw.Voxel(0, 0, 0); p != 0 {
		t.Errorf("view (0,0) = %#x, want untouched", p)
	}
	if p := vw.Voxel(0, 1, 0); p != Opaque(4) {
		t.Errorf("view (0,1) = %#x, want %#x", p, Opaque(4))
	}
	if p := v.Voxel(1, 2, 0); p != Opaque(4) {
		t.Errorf("storage (1,2,0) = %#x, want %#x", p, Opaque(4))
	}

	if got := vw.BlitLayer(0, nil, 0, 0); got != (Rectangle{}) {
		t.Errorf("nil src rect = %+v, want zero", got)
	}
	if got := vw.BlitLayer(5, src, 0, 0); got != (Rectangle{}) {
		t.Errorf("out-of-range layer rect = %+v, want zero", got)
	}
}

// TestView_LayerVisibility hides layers through rotated views and checks
// the marks land on the right storage positions.
func TestView_LayerVisibility(t *testing.T) {
	v := coordVolume(t, 3, 3, 3)

	// Depth along +Y: view layer z is storage y position z.
	vw := v.View(1, 0, 0)
	vw.HideLayer(0)
	if vw.LayerVisible(0) {
		t.Error("layer 0 still visible after HideLayer")
	}
	if v.Visible(AxisY, 0) {
		t.Error("hide through view missed storage axis y position 0")
	}
	vw.ShowLayer(0)
	if !v.Visible(AxisY, 0) {
		t.Error("ShowLayer did not clear the mark")
	}

	// Depth along -Z: view layer 0 is the far storage slice.
	back := v.View(2, 0, 0)
	back.HideLayer(0)
	if v.Visible(AxisZ, 2) {
		t.Error("hide through flipped view missed storage slice 2")
	}
	if v.View(0, 0, 0).LayerVisible(2) {
		t.Error("identity view disagrees about hidden storage slice 2")
	}
}

// TestView_Rotate checks incremental rotation accumulates modulo four.
func TestView_Rotate(t *testing.T) {
	v := coordVolume(t, 2, 3, 4)
	vw := v.View(3, 0, 0)
	vw.Rotate(1, 0, 0)

	rx, ry, rz := vw.Rotation()
	if rx != 0 || ry != 0 || rz != 0 {
		t.Errorf("Rotation() = (%d,%d,%d), want identity", rx, ry, rz)
	}
	if x, y, z := vw.Direction(); x != 0 || y != 0 || z != 1 {
		t.Errorf("Direction() = (%d,%d,%d), want (0,0,1)", x, y, z)
	}

	vw.Rotate(0, -1, 0)
	if rx, ry, rz := vw.Rotation(); rx != 0 || ry != 3 || rz != 0 {
		t.Errorf("Rotation() = (%d,%d,%d), want (0,3,0)", rx, ry, rz)
	}
}

// TestView_Refresh rebuilds the transform after the volume changes shape
// under the view.
func TestView_Refresh(t *testing.T) {
	v := coordVolume(t, 2, 2, 2)
	vw := v.View(1, 0, 0)
	if vw.Height() != 2 {
		t.Fatalf("Height() = %d, want 2", vw.Height())
	}

	if err := v.InsertSlice(0); err != nil {
		t.Fatalf("InsertSlice failed: %v", err)
	}
	vw.Refresh()
	if vw.Height() != 3 {
		t.Errorf("Height() after Refresh = %d, want 3", vw.Height())
	}
	if vw.Volume() != v {
		t.Error("Volume() does not return the underlying volume")
	}
}

// TestView_Axis maps each elementary direction to its storage axis.
func TestView_Axis(t *testing.T) {
	v := coordVolume(t, 3, 3, 3)
	tests := []struct {
		rx, ry, rz int
		want       Axis
	}{
		{0, 0, 0, AxisZ},
		{1, 0, 0, AxisY},
		{3, 0, 0, AxisY},
		{0, 1, 0, AxisX},
		{2, 0, 0, AxisZ},
		{0, 0, 2, AxisZ},
	}
	for _, tt := range tests {
		if got := v.View(tt.rx, tt.ry, tt.rz).Axis(); got != tt.want {
			t.Errorf("View(%d,%d,%d).Axis() = %v, want %v", tt.rx, tt.ry, tt.rz, got, tt.want)
		}
	}
}
