package voxpix

// Vec3 is a direction in storage space, used by the free-direction
// renderer.
type Vec3 struct {
	X, Y, Z float64
}

// axisMap is an affine index transform from view space to storage space:
// storage = m*view + off. m is a signed permutation matrix, so each view
// axis follows exactly one storage axis, forward or backward; off holds the
// "extent minus one" constants the backward axes need. dims are the
// view-space extents.
type axisMap struct {
	m    [3][3]int
	off  [3]int
	dims [3]int
}

// identityMap returns the transform of the unrotated view.
func identityMap(w, h, d int) axisMap {
	return axisMap{
		m:    [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		dims: [3]int{w, h, d},
	}
}

// rot90 composes one quarter turn of the view array in the plane from axis
// a toward axis b onto the transform. The turn follows the numpy rot90
// convention: the rotated array's coordinate vn reads the previous array at
// vp[a] = vn[b], vp[b] = dims[b]-1-vn[a].
func (t axisMap) rot90(a, b int) axisMap {
	var nt axisMap

	// P maps rotated view coordinates to pre-rotation view coordinates.
	var p [3][3]int
	var q [3]int
	for c := 0; c < 3; c++ {
		if c != a && c != b {
			p[c][c] = 1
		}
	}
	p[a][b] = 1
	p[b][a] = -1
	q[b] = t.dims[b] - 1

	// Compose: storage = m*(P*vn + q) + off.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s := 0
			for k := 0; k < 3; k++ {
				s += t.m[i][k] * p[k][j]
			}
			nt.m[i][j] = s
		}
		nt.off[i] = t.off[i]
		for k := 0; k < 3; k++ {
			nt.off[i] += t.m[i][k] * q[k]
		}
	}

	nt.dims = t.dims
	nt.dims[a], nt.dims[b] = nt.dims[b], nt.dims[a]
	return nt
}

// apply maps a view coordinate to its storage coordinate.
func (t axisMap) apply(x, y, z int) (sx, sy, sz int) {
	sx = t.m[0][0]*x + t.m[0][1]*y + t.m[0][2]*z + t.off[0]
	sy = t.m[1][0]*x + t.m[1][1]*y + t.m[1][2]*z + t.off[1]
	sz = t.m[2][0]*x + t.m[2][1]*y + t.m[2][2]*z + t.off[2]
	return sx, sy, sz
}

// applyCont maps a continuous view coordinate to storage space. The
// continuous form of a backward axis is s = extent - v, one more than the
// integer form's extent-1 offset, because cell k spans [k, k+1).
func (t axisMap) applyCont(x, y, z float64) (sx, sy, sz float64) {
	var s [3]float64
	in := [3]float64{x, y, z}
	for i := 0; i < 3; i++ {
		v := float64(t.off[i])
		neg := false
		for j := 0; j < 3; j++ {
			if t.m[i][j] != 0 {
				v += float64(t.m[i][j]) * in[j]
				neg = t.m[i][j] < 0
			}
		}
		if neg {
			v++
		}
		s[i] = v
	}
	return s[0], s[1], s[2]
}

// View presents a Volume rotated by whole quarter turns. It is a pure
// index transform: no voxels are copied, and edits through the view land in
// the underlying volume. Slices perpendicular to the view's depth axis are
// what the editor calls layers.
//
// Rotation state belongs to whoever holds the View; two views of the same
// volume are independent. A View is not synchronized.
type View struct {
	vol        *Volume
	rx, ry, rz int
	t          axisMap
}

// View creates a view of the volume with the given rotation, each component
// in whole quarter turns (taken modulo 4).
func (v *Volume) View(rx, ry, rz int) *View {
	vw := &View{vol: v}
	vw.setRotation(rx, ry, rz)
	return vw
}

// Rotate adds quarter turns to the view's rotation.
func (vw *View) Rotate(dx, dy, dz int) {
	vw.setRotation(vw.rx+dx, vw.ry+dy, vw.rz+dz)
}

func (vw *View) setRotation(rx, ry, rz int) {
	mod4 := func(r int) int { return ((r % 4) + 4) % 4 }
	vw.rx, vw.ry, vw.rz = mod4(rx), mod4(ry), mod4(rz)

	// Turn order fixes the composition: in-plane first, then pitch, then
	// yaw. The same order is what unrotating must undo in reverse.
	t := identityMap(vw.vol.width, vw.vol.height, len(vw.vol.slices))
	for i := 0; i < vw.rz; i++ {
		t = t.rot90(0, 1)
	}
	for i := 0; i < vw.rx; i++ {
		t = t.rot90(1, 2)
	}
	for i := 0; i < vw.ry; i++ {
		t = t.rot90(2, 0)
	}
	vw.t = t
}

// Refresh rebuilds the view's transform. Call it after the underlying
// volume changes shape through slice insertion or deletion, or through
// Rotate90; the view does not track those itself.
func (vw *View) Refresh() {
	vw.setRotation(vw.rx, vw.ry, vw.rz)
}

// Rotation returns the view's quarter-turn rotation.
func (vw *View) Rotation() (rx, ry, rz int) {
	return vw.rx, vw.ry, vw.rz
}

// Volume returns the underlying volume.
func (vw *View) Volume() *Volume {
	return vw.vol
}

// Width returns the view-space width. Rotation can swap it with the
// volume's other extents.
func (vw *View) Width() int { return vw.t.dims[0] }

// Height returns the view-space height.
func (vw *View) Height() int { return vw.t.dims[1] }

// Depth returns the view-space depth, the number of layers.
func (vw *View) Depth() int { return vw.t.dims[2] }

// Direction returns the storage-space vector along which the view's layers
// are stacked, one of the six principal directions. It is the image of the
// view's depth step under the index transform, so marching a view depth
// coordinate and walking this vector through storage are the same thing.
func (vw *View) Direction() (x, y, z int) {
	return vw.t.m[0][2], vw.t.m[1][2], vw.t.m[2][2]
}

// DirectionVec returns Direction as a Vec3.
func (vw *View) DirectionVec() Vec3 {
	x, y, z := vw.Direction()
	return Vec3{X: float64(x), Y: float64(y), Z: float64(z)}
}

// Axis returns the storage axis the view's depth runs along.
func (vw *View) Axis() Axis {
	x, y, _ := vw.Direction()
	if x != 0 {
		return AxisX
	}
	if y != 0 {
		return AxisY
	}
	return AxisZ
}

// storageSlice returns the storage position on Axis() of the view layer at
// depth z.
func (vw *View) storageSlice(z int) int {
	a := vw.Axis()
	return vw.t.m[a][2]*z + vw.t.off[a]
}

// LayerVisible reports whether the layer at view depth z is unmarked on the
// view's depth axis.
func (vw *View) LayerVisible(z int) bool {
	return vw.vol.Visible(vw.Axis(), vw.storageSlice(z))
}

// HideLayer marks the layer at view depth z invisible.
func (vw *View) HideLayer(z int) {
	vw.vol.Hide(vw.Axis(), vw.storageSlice(z))
}

// ShowLayer unmarks the layer at view depth z.
func (vw *View) ShowLayer(z int) {
	vw.vol.Show(vw.Axis(), vw.storageSlice(z))
}

// Voxel returns the pixel at view coordinate (x, y, z), or zero outside the
// view.
func (vw *View) Voxel(x, y, z int) Pixel {
	if x < 0 || x >= vw.t.dims[0] || y < 0 || y >= vw.t.dims[1] || z < 0 || z >= vw.t.dims[2] {
		return 0
	}
	sx, sy, sz := vw.t.apply(x, y, z)
	return vw.vol.slices[sz].pix[sy*vw.vol.width+sx]
}

// SetVoxel writes the pixel at view coordinate (x, y, z). Writes outside
// the view are dropped.
func (vw *View) SetVoxel(x, y, z int, p Pixel) {
	if x < 0 || x >= vw.t.dims[0] || y < 0 || y >= vw.t.dims[1] || z < 0 || z >= vw.t.dims[2] {
		return
	}
	sx, sy, sz := vw.t.apply(x, y, z)
	vw.vol.slices[sz].pix[sy*vw.vol.width+sx] = p
}

// Layer returns a copy of the view layer at depth z, or an empty buffer
// when z is out of range. Capturing a layer region is how image brushes are
// made.
func (vw *View) Layer(z int) *PixelBuffer {
	if z < 0 || z >= vw.t.dims[2] {
		return NewPixelBuffer(0, 0)
	}
	w, h := vw.t.dims[0], vw.t.dims[1]
	out := NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy, sz := vw.t.apply(x, y, z)
			out.pix[y*w+x] = vw.vol.slices[sz].pix[sy*vw.vol.width+sx]
		}
	}
	return out
}

// BlitLayer writes src onto the view layer at depth z with src's origin at
// (x, y), masked by coverage like Blit, the transform carrying each pixel
// to its storage position. It returns the clipped view-space region
// written; commit a finished overlay stroke with it.
func (vw *View) BlitLayer(z int, src *PixelBuffer, x, y int) Rectangle {
	if src == nil || z < 0 || z >= vw.t.dims[2] {
		return Rectangle{}
	}
	dx, sx, w := clipAxis(vw.t.dims[0], src.width, x)
	dy, sy, h := clipAxis(vw.t.dims[1], src.height, y)
	if w <= 0 || h <= 0 {
		return Rectangle{}
	}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			p := src.pix[(sy+row)*src.width+sx+col]
			if !p.Covered() {
				continue
			}
			mx, my, mz := vw.t.apply(dx+col, dy+row, z)
			vw.vol.slices[mz].pix[my*vw.vol.width+mx] = p
		}
	}
	return Rectangle{X: dx, Y: dy, W: w, H: h}
}

// baseCoord returns the continuous storage-space position of the center of
// view pixel (x, y) on the depth-0 face, the ray origin for a free
// direction march.
func (vw *View) baseCoord(x, y int) (float64, float64, float64) {
	return vw.t.applyCont(float64(x)+0.5, float64(y)+0.5, 0)
}

// materialize copies the view's rotated content into a fresh volume of the
// view's dimensions, sharing the palette and transparent index.
func (vw *View) materialize() *Volume {
	w, h, d := vw.t.dims[0], vw.t.dims[1], vw.t.dims[2]
	out := &Volume{
		width:       w,
		height:      h,
		slices:      make([]*PixelBuffer, d),
		palette:     vw.vol.palette,
		transparent: vw.vol.transparent,
	}
	for a := range out.hidden {
		out.hidden[a] = make(map[int]bool)
	}
	for z := 0; z < d; z++ {
		s := NewPixelBuffer(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				mx, my, mz := vw.t.apply(x, y, z)
				s.pix[y*w+x] = vw.vol.slices[mz].pix[my*vw.vol.width+mx]
			}
		}
		out.slices[z] = s
	}
	return out
}
