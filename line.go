package voxpix

// DrawLine stamps brush along the straight line from (x0, y0) to (x1, y1)
// on dst, both endpoints included. The path is the classic integer
// Bresenham walk, which visits one position per step and is monotonic on
// both axes.
//
// The brush is resolved against index once, up front. Path positions are
// numbered from 0; the stamp is blitted at every position whose number is a
// multiple of step, so the starting point always receives a stamp. A step
// below 1 is treated as 1 (stamp everywhere). Stamps are placed with their
// top-left corner on the path position and clip silently at the buffer
// edges.
//
// The returned Rectangle bounds the affected region. It is computed from
// the endpoints and the stamp size alone, clipped to dst, which is exact
// for the positions the path can touch; with a large step it can cover
// positions that were skipped. The zero Rectangle means the line lies
// entirely outside dst.
//
// DrawLine panics if brush is nil. There is no default stamp; pass
// SolidBrush for a bare single-pixel line.
func DrawLine(dst *PixelBuffer, brush Brush, index uint8, x0, y0, x1, y1, step int) Rectangle {
	if brush == nil {
		panic("voxpix: DrawLine called with nil brush")
	}
	if dst == nil {
		return Rectangle{}
	}
	if step < 1 {
		step = 1
	}
	stamp := brush.Stamp(index)

	dx := iabs(x1 - x0)
	dy := -iabs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for i := 0; ; i++ {
		if i%step == 0 {
			Blit(dst, stamp, x, y)
		}
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}

	lx := max(0, min(x0, x1))
	ly := max(0, min(y0, y1))
	ux := min(dst.width, max(x0, x1)+stamp.width)
	uy := min(dst.height, max(y0, y1)+stamp.height)
	if ux <= lx || uy <= ly {
		return Rectangle{}
	}
	return Rectangle{X: lx, Y: ly, W: ux - lx, H: uy - ly}
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
