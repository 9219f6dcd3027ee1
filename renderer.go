package voxpix

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"voxpix/internal/parallel"
)

// RenderParams control one rendered frame.
type RenderParams struct {
	// SliceLo and SliceHi bound the half-open depth window
	// [SliceLo, SliceHi) in view depth coordinates. The window is clamped
	// to the view's depth; an empty window covers no pixels.
	SliceLo, SliceHi int

	// GlobalAlpha scales the alpha of every covered output pixel, in
	// [0, 1]. It fades the frame as a whole and never affects which
	// pixels are covered or which colors they resolve to.
	GlobalAlpha float64
}

// ParamsFor returns params covering the view's whole depth at full alpha.
func ParamsFor(view *View) RenderParams {
	return RenderParams{SliceHi: view.Depth(), GlobalAlpha: 1}
}

// RenderStats describes rendering activity since the renderer was created.
type RenderStats struct {
	// FramesRendered counts completed render calls.
	FramesRendered uint64

	// LastTiles is the number of tile spans resolved by the last frame.
	// For a dirty render this is the dirty subset, not the full grid.
	LastTiles int

	// LastFrameTime is the wall time of the last frame.
	LastFrameTime time.Duration

	// TotalTime accumulates wall time across all frames.
	TotalTime time.Duration
}

// Renderer flattens a volume, seen through a View, into an RGBA raster.
//
// Per output pixel it marches the depth window from the near side toward
// the far side and shades the first voxel that is not empty space; an
// Overlay, when given, overrides wherever it has coverage. Pixels that
// resolve to no coverage are left exactly as they were in the target, so
// callers control the backdrop by preparing the raster.
//
// The raster is resolved in 64x64 tiles distributed over an internal worker
// pool. The renderer also keeps a dirty-tile bitmap: editing code calls
// MarkDirty with the rectangles reported by the drawing operations, and
// RenderDirty then repaints only the affected tiles of an otherwise
// unchanged frame.
//
// Render calls are serialized by the caller; marking dirt is safe from any
// goroutine.
type Renderer struct {
	width   int
	height  int
	workers int

	pool  *parallel.WorkerPool
	dirty *parallel.DirtyRegion

	statsMu sync.Mutex
	stats   RenderStats
}

// RendererOption configures a Renderer at construction.
type RendererOption func(*Renderer)

// WithWorkers sets the number of render workers. Zero or negative means
// one per CPU.
func WithWorkers(n int) RendererOption {
	return func(r *Renderer) {
		r.workers = n
	}
}

// NewRenderer creates a renderer for rasters of the given size.
func NewRenderer(width, height int, opts ...RendererOption) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d raster", ErrInvalidDimensions, width, height)
	}
	r := &Renderer{width: width, height: height}
	for _, opt := range opts {
		opt(r)
	}
	r.pool = parallel.NewWorkerPool(r.workers)
	r.workers = r.pool.Workers()
	tx, ty := parallel.GridDims(width, height)
	r.dirty = parallel.NewDirtyRegion(tx, ty)
	r.dirty.MarkAll()
	return r, nil
}

// Width returns the raster width the renderer was sized for.
func (r *Renderer) Width() int { return r.width }

// Height returns the raster height the renderer was sized for.
func (r *Renderer) Height() int { return r.height }

// Workers returns the number of render workers.
func (r *Renderer) Workers() int { return r.workers }

// Resize changes the raster size the renderer covers. The dirty bitmap is
// rebuilt with every tile marked.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d raster", ErrInvalidDimensions, width, height)
	}
	r.width = width
	r.height = height
	tx, ty := parallel.GridDims(width, height)
	r.dirty = parallel.NewDirtyRegion(tx, ty)
	r.dirty.MarkAll()
	return nil
}

// MarkDirty flags the tiles under the given pixel rectangle for the next
// RenderDirty. Drawing operations return exactly the rectangles to pass
// here.
func (r *Renderer) MarkDirty(rect Rectangle) {
	r.dirty.MarkRect(rect.X, rect.Y, rect.W, rect.H)
}

// MarkAllDirty flags every tile.
func (r *Renderer) MarkAllDirty() {
	r.dirty.MarkAll()
}

// Close releases the worker pool. The renderer must not be used after
// Close.
func (r *Renderer) Close() {
	r.pool.Close()
}

// Stats returns a copy of the accumulated render statistics.
func (r *Renderer) Stats() RenderStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// Render resolves a full frame of view into dst. The renderer's pixel
// (0, 0) lands on dst's bounds minimum. overlay may be nil. Uncovered
// pixels keep whatever dst already holds.
func (r *Renderer) Render(dst *image.NRGBA, view *View, overlay *Overlay, p RenderParams) error {
	return r.RenderWithContext(context.Background(), dst, view, overlay, p)
}

// RenderWithContext is Render honoring ctx. Cancellation is checked
// between tiles; a canceled frame returns the context error with the
// raster partially updated.
func (r *Renderer) RenderWithContext(ctx context.Context, dst *image.NRGBA, view *View, overlay *Overlay, p RenderParams) error {
	f, err := newFrame(view, overlay, p)
	if err != nil {
		return err
	}
	err = r.renderTiles(ctx, dst, f, parallel.Covering(r.width, r.height), "full")
	if err == nil {
		// The frame repainted everything; pending dirt is stale.
		r.dirty.Clear()
	}
	return err
}

// RenderDirty repaints only the tiles marked dirty since the last render.
// The rest of dst is untouched, so it must still hold the previous frame
// of the same view for the result to be coherent.
func (r *Renderer) RenderDirty(dst *image.NRGBA, view *View, overlay *Overlay, p RenderParams) error {
	return r.RenderDirtyWithContext(context.Background(), dst, view, overlay, p)
}

// RenderDirtyWithContext is RenderDirty honoring ctx. On cancellation the
// collected tiles are re-flagged so the next call picks them up again.
func (r *Renderer) RenderDirtyWithContext(ctx context.Context, dst *image.NRGBA, view *View, overlay *Overlay, p RenderParams) error {
	f, err := newFrame(view, overlay, p)
	if err != nil {
		return err
	}
	coords := r.dirty.GetAndClear()
	if len(coords) == 0 {
		return ctx.Err()
	}
	tiles := make([]parallel.Tile, 0, len(coords))
	for _, c := range coords {
		t := parallel.SpanAt(c[0], c[1], r.width, r.height)
		if !t.Empty() {
			tiles = append(tiles, t)
		}
	}
	err = r.renderTiles(ctx, dst, f, tiles, "dirty")
	if err != nil {
		for _, c := range coords {
			r.dirty.Mark(c[0], c[1])
		}
	}
	return err
}

// RenderDirection resolves a full frame marching along an arbitrary
// storage-space direction instead of the view's stacking axis. Components
// are clamped to [-1, 1]. With dir equal to the view's DirectionVec the
// result is identical to Render.
func (r *Renderer) RenderDirection(dst *image.NRGBA, view *View, overlay *Overlay, dir Vec3, p RenderParams) error {
	return r.RenderDirectionWithContext(context.Background(), dst, view, overlay, dir, p)
}

// RenderDirectionWithContext is RenderDirection honoring ctx.
func (r *Renderer) RenderDirectionWithContext(ctx context.Context, dst *image.NRGBA, view *View, overlay *Overlay, dir Vec3, p RenderParams) error {
	f, err := newFrame(view, overlay, p)
	if err != nil {
		return err
	}
	f.free = true
	f.dir = Vec3{X: clamp1(dir.X), Y: clamp1(dir.Y), Z: clamp1(dir.Z)}
	err = r.renderTiles(ctx, dst, f, parallel.Covering(r.width, r.height), "direction")
	if err == nil {
		r.dirty.Clear()
	}
	return err
}

// renderTiles dispatches the tile spans across the pool and waits for the
// frame to finish.
func (r *Renderer) renderTiles(ctx context.Context, dst *image.NRGBA, f *frame, tiles []parallel.Tile, mode string) error {
	if dst == nil || len(tiles) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	work := make([]func(), len(tiles))
	for i, t := range tiles {
		t := t
		work[i] = func() {
			if ctx.Err() != nil {
				return
			}
			renderTile(dst, t, f)
		}
	}
	r.pool.ExecuteAll(work)

	if err := ctx.Err(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	r.statsMu.Lock()
	r.stats.FramesRendered++
	r.stats.LastTiles = len(tiles)
	r.stats.LastFrameTime = elapsed
	r.stats.TotalTime += elapsed
	r.statsMu.Unlock()

	Logger().Debug("frame rendered",
		"mode", mode,
		"tiles", len(tiles),
		"duration", elapsed)
	return nil
}

// renderTile resolves one tile span into dst. Pixels without coverage are
// skipped, leaving the target untouched there.
func renderTile(dst *image.NRGBA, t parallel.Tile, f *frame) {
	b := dst.Bounds()
	for y := t.Y0; y < t.Y1; y++ {
		dy := b.Min.Y + y
		if dy >= b.Max.Y {
			return
		}
		row := dst.Pix[dst.PixOffset(b.Min.X, dy):]
		for x := t.X0; x < t.X1; x++ {
			if b.Min.X+x >= b.Max.X {
				break
			}
			c, ok := f.resolve(x, y)
			if !ok {
				continue
			}
			i := x * 4
			row[i] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
}

// frame is the immutable per-frame sampling state shared by the tile
// workers: the view, the overlay snapshot, the resolved palette and the
// flattened visibility marks.
type frame struct {
	view    *View
	overlay *PixelBuffer
	pal     [PaletteSize]color.NRGBA
	hidden  [3][]bool
	trans   uint8
	lo, hi  int
	alpha   uint8

	free bool
	dir  Vec3
}

func newFrame(view *View, overlay *Overlay, p RenderParams) (*frame, error) {
	if view == nil {
		return nil, fmt.Errorf("%w: nil view", ErrInvalidDimensions)
	}
	lo, hi := p.SliceLo, p.SliceHi
	if lo < 0 {
		lo = 0
	}
	if hi > view.Depth() {
		hi = view.Depth()
	}
	f := &frame{
		view:   view,
		pal:    view.vol.palette.Resolved(),
		hidden: view.vol.hiddenSnapshot(),
		trans:  view.vol.transparent,
		lo:     lo,
		hi:     hi,
		alpha:  alphaByte(p.GlobalAlpha),
	}
	if overlay != nil {
		f.overlay = overlay.Snapshot()
	}
	return f, nil
}

func alphaByte(a float64) uint8 {
	if a <= 0 {
		return 0
	}
	if a >= 1 {
		return 255
	}
	return uint8(a*255 + 0.5)
}

func clamp1(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// resolve shades one output pixel. The overlay wins wherever it has
// coverage; otherwise the depth window is marched near to far. A false
// result means no coverage.
func (f *frame) resolve(x, y int) (color.NRGBA, bool) {
	if f.overlay != nil {
		if op := f.overlay.At(x, y); op.Alpha() != 0 {
			e := f.pal[op.Index()]
			if e.A == 0 {
				return color.NRGBA{}, false
			}
			return color.NRGBA{R: e.R, G: e.G, B: e.B, A: f.alpha}, true
		}
	}

	sample, sampled := f.march(x, y)
	if !sampled {
		return color.NRGBA{}, false
	}
	e := f.pal[sample.Index()]
	if sample.Alpha() == 0 || e.A == 0 {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: e.R, G: e.G, B: e.B, A: f.alpha}, true
}

// march walks the depth window from the near side down and returns the
// first voxel that is not empty space. When the window is exhausted the
// far-end sample is returned as a fallback; whether it shades is up to the
// alpha checks in resolve. sampled is false only for an empty window.
func (f *frame) march(x, y int) (sample Pixel, sampled bool) {
	if f.free {
		return f.marchFree(x, y)
	}
	for z := f.hi - 1; z >= f.lo; z-- {
		sample = f.sampleView(x, y, z)
		sampled = true
		if sample.Index() != f.trans {
			break
		}
	}
	return sample, sampled
}

// marchFree is march along an arbitrary direction: the ray starts at the
// pixel's base coordinate on the depth-0 face and samples at half-step
// centers, which reproduces the axis-aligned walk exactly when dir is a
// principal direction.
func (f *frame) marchFree(x, y int) (sample Pixel, sampled bool) {
	bx, by, bz := f.view.baseCoord(x, y)
	for i := f.hi - 1; i >= f.lo; i-- {
		t := float64(i) + 0.5
		sx := int(math.Floor(bx + t*f.dir.X))
		sy := int(math.Floor(by + t*f.dir.Y))
		sz := int(math.Floor(bz + t*f.dir.Z))
		sample = f.sampleStorage(sx, sy, sz)
		sampled = true
		if sample.Index() != f.trans {
			break
		}
	}
	return sample, sampled
}

// sampleView reads the voxel at a view coordinate. Coordinates outside the
// volume and voxels hidden on any axis read as uncovered empty space, so
// they neither stop the march nor shade as a fallback.
func (f *frame) sampleView(x, y, z int) Pixel {
	t := &f.view.t
	if x < 0 || x >= t.dims[0] || y < 0 || y >= t.dims[1] || z < 0 || z >= t.dims[2] {
		return MakePixel(f.trans, 0)
	}
	sx, sy, sz := t.apply(x, y, z)
	if f.hidden[0][sx] || f.hidden[1][sy] || f.hidden[2][sz] {
		return MakePixel(f.trans, 0)
	}
	return f.view.vol.slices[sz].pix[sy*f.view.vol.width+sx]
}

// sampleStorage reads the voxel at a storage coordinate under the same
// rules as sampleView.
func (f *frame) sampleStorage(sx, sy, sz int) Pixel {
	vol := f.view.vol
	if sx < 0 || sx >= vol.width || sy < 0 || sy >= vol.height || sz < 0 || sz >= len(vol.slices) {
		return MakePixel(f.trans, 0)
	}
	if f.hidden[0][sx] || f.hidden[1][sy] || f.hidden[2][sz] {
		return MakePixel(f.trans, 0)
	}
	return vol.slices[sz].pix[sy*vol.width+sx]
}
