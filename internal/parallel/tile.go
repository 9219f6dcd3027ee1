// Package parallel provides the tile and worker infrastructure used to
// distribute per-pixel rendering work.
//
// The output raster is divided into 64x64 pixel spans that are resolved
// independently in parallel. Because every output pixel is written by exactly
// one span, spans write disjoint regions of the caller's raster and no
// composite step is needed afterwards. Dirty tracking is per span, via an
// atomic bitmap that editing code can mark from any goroutine.
package parallel

// Span dimensions. 64x64 keeps a span's working set inside L1 and yields
// enough work items for stealing to balance uneven tiles.
const (
	// TileWidth is the width of a tile span in pixels.
	TileWidth = 64

	// TileHeight is the height of a tile span in pixels.
	TileHeight = 64
)

// Tile is one rectangular span of the output raster, in pixel coordinates.
// The span covers [X0, X1) x [Y0, Y1). Tiles at the right and bottom edges
// may be smaller than TileWidth x TileHeight.
//
// A Tile carries no pixel storage of its own; it only names the region a
// work item is responsible for.
type Tile struct {
	X0, Y0 int
	X1, Y1 int
}

// Width returns the span width in pixels.
func (t Tile) Width() int { return t.X1 - t.X0 }

// Height returns the span height in pixels.
func (t Tile) Height() int { return t.Y1 - t.Y0 }

// Empty reports whether the span covers no pixels.
func (t Tile) Empty() bool { return t.X1 <= t.X0 || t.Y1 <= t.Y0 }

// GridDims returns the number of tile columns and rows needed to cover a
// raster of the given pixel dimensions. Non-positive dimensions yield zero.
func GridDims(width, height int) (tilesX, tilesY int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	tilesX = (width + TileWidth - 1) / TileWidth
	tilesY = (height + TileHeight - 1) / TileHeight
	return tilesX, tilesY
}

// SpanAt returns the pixel span of the tile at grid coordinate (tx, ty) for
// a raster of the given dimensions, clipped to the raster edge. Coordinates
// outside the grid yield an empty Tile.
func SpanAt(tx, ty, width, height int) Tile {
	tilesX, tilesY := GridDims(width, height)
	if tx < 0 || tx >= tilesX || ty < 0 || ty >= tilesY {
		return Tile{}
	}
	t := Tile{
		X0: tx * TileWidth,
		Y0: ty * TileHeight,
		X1: (tx + 1) * TileWidth,
		Y1: (ty + 1) * TileHeight,
	}
	if t.X1 > width {
		t.X1 = width
	}
	if t.Y1 > height {
		t.Y1 = height
	}
	return t
}

// Covering returns the tiles covering a raster of the given dimensions in
// row-major order. A non-positive dimension yields nil.
func Covering(width, height int) []Tile {
	tilesX, tilesY := GridDims(width, height)
	if tilesX == 0 {
		return nil
	}
	tiles := make([]Tile, 0, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			tiles = append(tiles, SpanAt(tx, ty, width, height))
		}
	}
	return tiles
}
