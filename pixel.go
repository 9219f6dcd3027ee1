package voxpix

// Pixel is one packed cell of a PixelBuffer.
//
// The high byte is an alpha flag: zero means the cell carries no coverage,
// and masked copies leave the destination untouched there. The low byte is a
// palette index, which is what the renderer resolves against the color
// table. Both interpretations read the same storage; which byte matters
// depends on the operation, and the two middle bytes ride along untouched.
type Pixel uint32

// MakePixel packs a palette index and an alpha byte into a Pixel.
func MakePixel(index, alpha uint8) Pixel {
	return Pixel(uint32(alpha)<<24 | uint32(index))
}

// Opaque returns a fully covered Pixel carrying the given palette index.
func Opaque(index uint8) Pixel {
	return MakePixel(index, 0xFF)
}

// Index returns the palette index in the low byte.
func (p Pixel) Index() uint8 {
	return uint8(p)
}

// Alpha returns the coverage flag in the high byte.
func (p Pixel) Alpha() uint8 {
	return uint8(p >> 24)
}

// Covered reports whether the alpha byte is nonzero.
func (p Pixel) Covered() bool {
	return p>>24 != 0
}
