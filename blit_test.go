package voxpix

import "testing"

func numberedBuffer(w, h int) *PixelBuffer {
	b := NewPixelBuffer(w, h)
	for i := range b.pix {
		b.pix[i] = Opaque(uint8(i + 1))
	}
	return b
}

// TestPaste_Overhang pastes a 4x4 stamp at (-1, -1) on an 8x8 buffer: only
// the 3x3 overlap lands, taken from source rows and columns 1..3.
func TestPaste_Overhang(t *testing.T) {
	dst := NewPixelBuffer(8, 8)
	src := numberedBuffer(4, 4)

	Paste(dst, src, -1, -1)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			var want Pixel
			if x < 3 && y < 3 {
				want = src.At(x+1, y+1)
			}
			if got := dst.At(x, y); got != want {
				t.Errorf("dst(%d, %d) = %08x, want %08x", x, y, uint32(got), uint32(want))
			}
		}
	}
}

// TestPaste_Verbatim verifies Paste copies transparent pixels too,
// clearing whatever the destination held.
func TestPaste_Verbatim(t *testing.T) {
	dst := NewPixelBuffer(4, 4)
	dst.Fill(Opaque(9))

	src := NewPixelBuffer(2, 2)
	src.Set(0, 0, Opaque(1))
	// The other three src cells stay fully transparent.

	Paste(dst, src, 1, 1)

	if got := dst.At(1, 1); got != Opaque(1) {
		t.Errorf("dst(1, 1) = %08x, want opaque 1", uint32(got))
	}
	for _, p := range [][2]int{{2, 1}, {1, 2}, {2, 2}} {
		if got := dst.At(p[0], p[1]); got != 0 {
			t.Errorf("dst(%d, %d) = %08x, want 0 (transparent copied verbatim)", p[0], p[1], uint32(got))
		}
	}
	if got := dst.At(0, 0); got != Opaque(9) {
		t.Errorf("dst(0, 0) = %08x, pixel outside the paste changed", uint32(got))
	}
}

// TestPaste_NoOverlap checks a fully off-buffer paste is a no-op.
func TestPaste_NoOverlap(t *testing.T) {
	dst := NewPixelBuffer(4, 4)
	dst.Fill(Opaque(5))
	src := numberedBuffer(2, 2)

	Paste(dst, src, 10, 0)
	Paste(dst, src, 0, -7)
	Paste(dst, src, -2, -2)

	for i, p := range dst.pix {
		if p != Opaque(5) {
			t.Fatalf("cell %d changed by non-overlapping paste", i)
		}
	}
}

// TestBlit_Masked blits a stamp whose corners carry alpha 0: the corner
// destinations keep their previous values while every covered stamp pixel
// overwrites.
func TestBlit_Masked(t *testing.T) {
	dst := NewPixelBuffer(5, 5)
	dst.Fill(Opaque(9))

	src := NewPixelBuffer(3, 3)
	src.Fill(Opaque(2))
	for _, c := range [][2]int{{0, 0}, {2, 0}, {0, 2}, {2, 2}} {
		src.Set(c[0], c[1], MakePixel(2, 0))
	}

	r := Blit(dst, src, 1, 1)

	if want := Rect(1, 1, 3, 3); r != want {
		t.Errorf("Blit rect = %+v, want %+v", r, want)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			got := dst.At(1+x, 1+y)
			corner := (x == 0 || x == 2) && (y == 0 || y == 2)
			if corner {
				if got != Opaque(9) {
					t.Errorf("corner dst(%d, %d) = %08x, want untouched", 1+x, 1+y, uint32(got))
				}
			} else if got != Opaque(2) {
				t.Errorf("dst(%d, %d) = %08x, want opaque 2", 1+x, 1+y, uint32(got))
			}
		}
	}
}

// TestBlit_CopiesVerbatim verifies covered pixels transfer whole, middle
// bytes included, rather than just their index.
func TestBlit_CopiesVerbatim(t *testing.T) {
	dst := NewPixelBuffer(2, 1)
	src := NewPixelBuffer(2, 1)
	fancy := Pixel(0x55_12_34_08)
	src.Set(0, 0, fancy)
	src.Set(1, 0, MakePixel(3, 0))

	Blit(dst, src, 0, 0)

	if got := dst.At(0, 0); got != fancy {
		t.Errorf("dst(0, 0) = %08x, want %08x", uint32(got), uint32(fancy))
	}
	if got := dst.At(1, 0); got != 0 {
		t.Errorf("dst(1, 0) = %08x, want untouched", uint32(got))
	}
}

// TestBlit_ClippedRect checks the returned region is the clipped overlap
// and the zero Rectangle when the buffers are disjoint.
func TestBlit_ClippedRect(t *testing.T) {
	dst := NewPixelBuffer(8, 8)
	src := NewPixelBuffer(4, 4)
	src.Fill(Opaque(1))

	tests := []struct {
		name string
		x, y int
		want Rectangle
	}{
		{"interior", 2, 3, Rect(2, 3, 4, 4)},
		{"top left overhang", -2, -1, Rect(0, 0, 2, 3)},
		{"bottom right overhang", 6, 7, Rect(6, 7, 2, 1)},
		{"disjoint", 8, 0, Rectangle{}},
		{"far negative", -4, -4, Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Blit(dst, src, tt.x, tt.y); got != tt.want {
				t.Errorf("Blit at (%d, %d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}
