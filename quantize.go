package voxpix

import (
	"image"

	"golang.org/x/image/draw"
)

// QuantizeImage converts an RGBA image into an indexed buffer over the
// palette's effective color table, optionally Floyd-Steinberg dithered.
// This is how external raster images become volume slices.
//
// Every resulting cell is fully covered except where the source pixel is
// fully transparent; those become the given transparent index with a zero
// alpha byte, so they read as empty space both to masked copies and to the
// renderer.
func QuantizeImage(img image.Image, pal *Palette, transparent uint8, dither bool) *PixelBuffer {
	if img == nil || pal == nil {
		return NewPixelBuffer(0, 0)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return NewPixelBuffer(0, 0)
	}

	idx := image.NewPaletted(image.Rect(0, 0, w, h), pal.ColorPalette())
	if dither {
		draw.FloydSteinberg.Draw(idx, idx.Bounds(), img, b.Min)
	} else {
		draw.Draw(idx, idx.Bounds(), img, b.Min, draw.Src)
	}

	out := NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if _, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA(); a == 0 {
				out.pix[y*w+x] = MakePixel(transparent, 0)
				continue
			}
			out.pix[y*w+x] = Opaque(idx.ColorIndexAt(x, y))
		}
	}
	return out
}
