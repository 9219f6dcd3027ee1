package voxpix

// clipAxis intersects the span [off, off+srcLen) with [0, dstLen) and
// returns the destination start, the source start, and the overlap length.
// A length <= 0 means the spans do not overlap.
func clipAxis(dstLen, srcLen, off int) (dstStart, srcStart, n int) {
	dstStart = off
	if dstStart < 0 {
		srcStart = -dstStart
		dstStart = 0
	}
	end := off + srcLen
	if end > dstLen {
		end = dstLen
	}
	return dstStart, srcStart, end - dstStart
}

// Paste copies src onto dst with src's origin at (x, y), overwriting the
// overlapping region verbatim, fully transparent pixels included. The
// placement is clipped independently on each axis, so any offset is legal
// and an empty overlap is a no-op. Paste never fails.
func Paste(dst, src *PixelBuffer, x, y int) {
	if dst == nil || src == nil {
		return
	}
	dx, sx, w := clipAxis(dst.width, src.width, x)
	dy, sy, h := clipAxis(dst.height, src.height, y)
	if w <= 0 || h <= 0 {
		return
	}
	for row := 0; row < h; row++ {
		di := (dy+row)*dst.width + dx
		si := (sy+row)*src.width + sx
		copy(dst.pix[di:di+w], src.pix[si:si+w])
	}
}

// Blit copies src onto dst with src's origin at (x, y), masked by coverage:
// only source pixels whose alpha byte is nonzero are written, and those are
// written verbatim. Clipping matches Paste.
//
// The returned Rectangle is the clipped destination region the copy scanned,
// for accumulating dirty state; the zero Rectangle means the buffers did not
// overlap and nothing was touched.
func Blit(dst, src *PixelBuffer, x, y int) Rectangle {
	if dst == nil || src == nil {
		return Rectangle{}
	}
	dx, sx, w := clipAxis(dst.width, src.width, x)
	dy, sy, h := clipAxis(dst.height, src.height, y)
	if w <= 0 || h <= 0 {
		return Rectangle{}
	}
	for row := 0; row < h; row++ {
		di := (dy+row)*dst.width + dx
		si := (sy+row)*src.width + sx
		drow := dst.pix[di : di+w]
		srow := src.pix[si : si+w]
		for i, p := range srow {
			if p.Covered() {
				drow[i] = p
			}
		}
	}
	return Rectangle{X: dx, Y: dy, W: w, H: h}
}
