package voxpix

// Rectangle is an axis-aligned pixel region described by its origin and
// size. W and H are never negative in a well-formed value; a Rectangle with
// zero area means "nothing", which is what drawing operations report when
// they touched no pixels. The zero Rectangle is therefore a valid identity
// for Union, so dirty regions can be accumulated from it directly.
type Rectangle struct {
	X, Y int
	W, H int
}

// Rect builds a Rectangle, clamping negative sizes to zero.
func Rect(x, y, w, h int) Rectangle {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rectangle{X: x, Y: y, W: w, H: h}
}

// Empty reports whether the rectangle covers no pixels.
func (r Rectangle) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rectangle) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersect returns the overlap of r and s, or the zero Rectangle when they
// are disjoint.
func (r Rectangle) Intersect(s Rectangle) Rectangle {
	x0 := max(r.X, s.X)
	y0 := max(r.Y, s.Y)
	x1 := min(r.X+r.W, s.X+s.W)
	y1 := min(r.Y+r.H, s.Y+s.H)
	if x1 <= x0 || y1 <= y0 {
		return Rectangle{}
	}
	return Rectangle{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the smallest rectangle covering both r and s. An empty
// operand contributes nothing, so unioning into a zero Rectangle yields the
// other rectangle unchanged.
func (r Rectangle) Union(s Rectangle) Rectangle {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	x0 := min(r.X, s.X)
	y0 := min(r.Y, s.Y)
	x1 := max(r.X+r.W, s.X+s.W)
	y1 := max(r.Y+r.H, s.Y+s.H)
	return Rectangle{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
