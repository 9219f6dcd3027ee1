package parallel

import (
	"math/bits"
	"sync/atomic"
)

// DirtyRegion tracks which tile spans of a raster need re-rendering.
//
// The bitmap holds one bit per tile, packed into uint64 words. Marking is an
// atomic OR, so editing code can flag regions from any goroutine while a
// render is reading the raster; the renderer collects and clears the flags
// with GetAndClear at the start of a frame.
type DirtyRegion struct {
	// words is the bitmap. Bit index = ty*tilesX + tx.
	words []atomic.Uint64

	tilesX int
	tilesY int
}

// NewDirtyRegion creates a tracker for the given tile grid. All tiles start
// clean. Returns nil if either dimension is not positive.
func NewDirtyRegion(tilesX, tilesY int) *DirtyRegion {
	if tilesX <= 0 || tilesY <= 0 {
		return nil
	}
	numWords := (tilesX*tilesY + 63) / 64
	return &DirtyRegion{
		words:  make([]atomic.Uint64, numWords),
		tilesX: tilesX,
		tilesY: tilesY,
	}
}

// Mark flags the tile at grid coordinate (tx, ty). Out-of-bounds coordinates
// are ignored.
func (d *DirtyRegion) Mark(tx, ty int) {
	if tx < 0 || tx >= d.tilesX || ty < 0 || ty >= d.tilesY {
		return
	}
	idx := ty*d.tilesX + tx
	// CAS loop equivalent of atomic.Uint64.Or, which needs Go 1.23+.
	w := &d.words[idx/64]
	mask := uint64(1) << (idx & 63)
	for {
		old := w.Load()
		if w.CompareAndSwap(old, old|mask) {
			return
		}
	}
}

// MarkRect flags every tile intersecting the pixel rectangle of the given
// origin and size. An empty rectangle, or one entirely outside the grid, is
// ignored.
func (d *DirtyRegion) MarkRect(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}

	tx1 := x / TileWidth
	ty1 := y / TileHeight
	tx2 := (x + w - 1) / TileWidth
	ty2 := (y + h - 1) / TileHeight

	if tx1 < 0 {
		tx1 = 0
	}
	if ty1 < 0 {
		ty1 = 0
	}
	if tx2 >= d.tilesX {
		tx2 = d.tilesX - 1
	}
	if ty2 >= d.tilesY {
		ty2 = d.tilesY - 1
	}
	if tx1 > tx2 || ty1 > ty2 {
		return
	}

	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			d.Mark(tx, ty)
		}
	}
}

// MarkAll flags every tile.
func (d *DirtyRegion) MarkAll() {
	totalTiles := d.tilesX * d.tilesY
	fullWords := totalTiles / 64
	for i := 0; i < fullWords; i++ {
		d.words[i].Store(^uint64(0))
	}
	// Bits past the last tile stay zero so Count and GetAndClear never see
	// phantom tiles.
	if rem := totalTiles % 64; rem > 0 {
		d.words[fullWords].Store((uint64(1) << rem) - 1)
	}
}

// Clear resets every tile to clean.
func (d *DirtyRegion) Clear() {
	for i := range d.words {
		d.words[i].Store(0)
	}
}

// IsDirty reports whether the tile at (tx, ty) is flagged. Out-of-bounds
// coordinates report false.
func (d *DirtyRegion) IsDirty(tx, ty int) bool {
	if tx < 0 || tx >= d.tilesX || ty < 0 || ty >= d.tilesY {
		return false
	}
	idx := ty*d.tilesX + tx
	return d.words[idx/64].Load()&(1<<(idx&63)) != 0
}

// IsEmpty reports whether no tile is flagged.
func (d *DirtyRegion) IsEmpty() bool {
	for i := range d.words {
		if d.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of flagged tiles.
func (d *DirtyRegion) Count() int {
	count := 0
	for i := range d.words {
		count += bits.OnesCount64(d.words[i].Load())
	}
	return count
}

// GetAndClear atomically collects the flagged tile coordinates and resets
// them, one word at a time. Marks that land on a word after it was swapped
// out are kept for the next frame rather than lost.
func (d *DirtyRegion) GetAndClear() [][2]int {
	var dirty [][2]int
	totalTiles := d.tilesX * d.tilesY

	for wordIdx := range d.words {
		word := d.words[wordIdx].Swap(0)
		for word != 0 {
			bitIdx := bits.TrailingZeros64(word)
			tileIdx := wordIdx*64 + bitIdx
			if tileIdx >= totalTiles {
				break
			}
			dirty = append(dirty, [2]int{tileIdx % d.tilesX, tileIdx / d.tilesX})
			word &^= 1 << bitIdx
		}
	}
	return dirty
}

// TilesX returns the number of tile columns.
func (d *DirtyRegion) TilesX() int {
	return d.tilesX
}

// TilesY returns the number of tile rows.
func (d *DirtyRegion) TilesY() int {
	return d.tilesY
}
