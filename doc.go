// Package voxpix implements the core of a palette-indexed pixel editor
// that treats a drawing as a stack of 2D slices forming a small voxel
// volume.
//
// # Data Model
//
// A PixelBuffer is a grid of packed Pixel cells. Each cell carries a
// palette index in its low byte and an alpha flag in its high byte; the
// alpha byte masks copies, the index byte is what rendering resolves
// against the shared 256-entry Palette. A Volume stacks equally sized
// buffers along a depth axis, and a View presents the volume rotated by
// quarter turns without copying anything.
//
// # Drawing
//
// Editing happens with a few primitives: Paste copies pixels verbatim,
// Blit copies them masked by coverage, and DrawLine stamps a Brush along a
// stepped Bresenham path. All of them clip silently at buffer edges and
// report the touched region as a Rectangle for dirty tracking. Interactive
// strokes preview in an Overlay, a locked scratch layer the renderer shows
// in place of the current slice, and are committed to the volume when
// finished.
//
// # Rendering
//
// The Renderer flattens a view into an RGBA raster: per pixel it marches
// the depth window front to back and shades the first voxel that is not
// empty space, leaving pixels with no coverage untouched. Work is split
// into 64x64 tiles across a worker pool, and a dirty-tile bitmap lets
// repaints after small edits touch only the affected tiles.
//
// # Quick Start
//
//	vol, _ := voxpix.NewVolume(64, 64, 8)
//	voxpix.DrawLine(vol.Slice(0), voxpix.SolidBrush{}, 1, 4, 4, 60, 30, 1)
//
//	view := vol.View(0, 0, 0)
//	r, _ := voxpix.NewRenderer(view.Width(), view.Height())
//	defer r.Close()
//
//	img := image.NewNRGBA(image.Rect(0, 0, view.Width(), view.Height()))
//	r.Render(img, view, nil, voxpix.ParamsFor(view))
//
// # Coordinate System
//
// Origin (0, 0) is the top-left of a slice, X increases right, Y increases
// down. Slice index increases toward the viewer in the unrotated view.
//
// # Concurrency
//
// Buffers, volumes and views are plain data: whoever mutates them
// serializes against rendering. Overlay and the renderer's dirty marking
// are the two places built for cross-goroutine use, because interactive
// strokes run off the main goroutine.
package voxpix

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
