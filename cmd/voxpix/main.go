// Command voxpix inspects, renders and builds palette-indexed pixel
// volumes stored as OpenRaster files.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"voxpix"
	"voxpix/ora"
	"voxpix/pal"

	"github.com/alecthomas/kong"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

var cli struct {
	Verbose bool `help:"Log debug detail." short:"v"`

	Render  renderCmd  `cmd:"" help:"Flatten a volume to a raster image."`
	Info    infoCmd    `cmd:"" help:"Describe a volume file."`
	Convert convertCmd `cmd:"" help:"Quantize raster images into a new volume."`
	Palette paletteCmd `cmd:"" help:"Apply a RIFF palette to a volume."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("voxpix"),
		kong.Description("Inspect, render and build palette-indexed pixel volumes."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	voxpix.SetLogger(logger)

	kctx.FatalIfErrorf(kctx.Run())
}

type renderCmd struct {
	Input      string  `arg:"" help:"Volume to render (.ora)." type:"existingfile"`
	Output     string  `help:"Raster to write; the extension picks the encoder (png, gif, jpeg, bmp, tiff)." short:"o" default:"out.png"`
	Rx         int     `help:"Quarter turns around the view x axis." default:"0"`
	Ry         int     `help:"Quarter turns around the view y axis." default:"0"`
	Rz         int     `help:"Quarter turns around the view z axis." default:"0"`
	Lo         int     `help:"First slice of the depth window." default:"0"`
	Hi         int     `help:"One past the last slice of the depth window; -1 means the whole depth." default:"-1"`
	Alpha      float64 `help:"Uniform fade in [0,1] applied to the frame." default:"1"`
	Direction  string  `help:"March along an arbitrary storage-space direction given as x,y,z."`
	Scale      float64 `help:"Output scale factor. Whole factors stay pixel-exact; fractional ones resample." default:"1"`
	Background string  `help:"Backdrop color as RRGGBB or RRGGBBAA, with or without #."`
	Workers    int     `help:"Render workers; 0 means one per CPU." default:"0"`

	Dir      voxpix.Vec3 `kong:"-"`
	FreeDir  bool        `kong:"-"`
	Backdrop color.NRGBA `kong:"-"`
}

func (c *renderCmd) Validate(kctx *kong.Context) error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha %v outside [0, 1]", c.Alpha)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("invalid scale factor: %v", c.Scale)
	}
	if c.Direction != "" {
		n, err := fmt.Sscanf(c.Direction, "%f,%f,%f", &c.Dir.X, &c.Dir.Y, &c.Dir.Z)
		if err != nil || n < 3 {
			return fmt.Errorf("invalid direction %q, want x,y,z", c.Direction)
		}
		if c.Dir == (voxpix.Vec3{}) {
			return fmt.Errorf("direction must not be the zero vector")
		}
		c.FreeDir = true
	}
	if c.Background != "" {
		bg, err := voxpix.ParseHexColor(c.Background)
		if err != nil {
			return err
		}
		c.Backdrop = bg
	}
	if _, err := encoderFor(c.Output); err != nil {
		return err
	}
	return nil
}

func (c *renderCmd) Run() error {
	v, err := ora.Load(c.Input)
	if err != nil {
		return err
	}
	view := v.View(c.Rx, c.Ry, c.Rz)

	r, err := voxpix.NewRenderer(view.Width(), view.Height(), voxpix.WithWorkers(c.Workers))
	if err != nil {
		return err
	}
	defer r.Close()

	p := voxpix.ParamsFor(view)
	p.SliceLo = c.Lo
	if c.Hi >= 0 {
		p.SliceHi = c.Hi
	}
	p.GlobalAlpha = c.Alpha

	dst := image.NewNRGBA(image.Rect(0, 0, view.Width(), view.Height()))
	if c.Background != "" {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(c.Backdrop), image.Point{}, draw.Src)
	}

	if c.FreeDir {
		err = r.RenderDirection(dst, view, nil, c.Dir, p)
	} else {
		err = r.Render(dst, view, nil, p)
	}
	if err != nil {
		return err
	}

	out := scaleImage(dst, c.Scale)
	if err := saveImage(c.Output, out); err != nil {
		return err
	}
	slog.Info("rendered", "input", c.Input, "output", c.Output,
		"size", fmt.Sprintf("%dx%d", out.Bounds().Dx(), out.Bounds().Dy()))
	return nil
}

type infoCmd struct {
	Input string `arg:"" help:"Volume to inspect (.ora)." type:"existingfile"`
}

func (c *infoCmd) Run() error {
	v, err := ora.Load(c.Input)
	if err != nil {
		return err
	}
	p := v.Palette()
	fmt.Printf("%s: %dx%d pixels, %d slices\n",
		filepath.Base(c.Input), v.Width(), v.Height(), v.Depth())
	fmt.Printf("palette: %d distinct colors, transparent %d, foreground %d, background %d\n",
		distinctColors(p), v.Transparent(), p.Foreground, p.Background)
	for _, axis := range []voxpix.Axis{voxpix.AxisX, voxpix.AxisY, voxpix.AxisZ} {
		if hidden := v.HiddenPositions(axis); len(hidden) > 0 {
			fmt.Printf("hidden %s positions: %v\n", axis, hidden)
		}
	}
	return nil
}

type convertCmd struct {
	Inputs []string `arg:"" help:"Raster images, one per slice, bottom first." type:"existingfile"`
	Output string   `help:"Volume to write." short:"o" default:"out.ora"`
	Fit    string   `help:"Fit every image inside WxH before quantizing."`
	Dither bool     `help:"Diffuse quantization error instead of snapping to the nearest color."`

	FitW int `kong:"-"`
	FitH int `kong:"-"`
}

func (c *convertCmd) Validate(kctx *kong.Context) error {
	if c.Fit == "" {
		return nil
	}
	n, err := fmt.Sscanf(c.Fit, "%dx%d", &c.FitW, &c.FitH)
	if err != nil || n < 2 || c.FitW < 1 || c.FitH < 1 {
		return fmt.Errorf("invalid fit size %q, want WxH", c.Fit)
	}
	return nil
}

func (c *convertCmd) Run() error {
	palette := voxpix.NewPalette()
	layers := make([]*voxpix.PixelBuffer, 0, len(c.Inputs))
	for _, name := range c.Inputs {
		img, err := imaging.Open(name, imaging.AutoOrientation(true))
		if err != nil {
			return fmt.Errorf("could not open image %q: %w", name, err)
		}
		if c.Fit != "" {
			img = imaging.Fit(img, c.FitW, c.FitH, imaging.Lanczos)
		}
		layers = append(layers, voxpix.QuantizeImage(img, palette, 0, c.Dither))
		slog.Debug("quantized", "file", name, "bounds", img.Bounds())
	}

	v, err := voxpix.NewVolumeFromSlices(layers, voxpix.WithPalette(palette))
	if err != nil {
		return err
	}
	if err := ora.Save(c.Output, v); err != nil {
		return err
	}
	slog.Info("converted", "slices", len(layers), "output", c.Output)
	return nil
}

type paletteCmd struct {
	Input  string `arg:"" help:"Volume to recolor (.ora)." type:"existingfile"`
	Pal    string `help:"RIFF palette file to apply." required:"" type:"existingfile"`
	Output string `help:"Volume to write; defaults to rewriting the input in place." short:"o"`
}

func (c *paletteCmd) Run() error {
	v, err := ora.Load(c.Input)
	if err != nil {
		return err
	}

	f, err := os.Open(c.Pal)
	if err != nil {
		return fmt.Errorf("could not open palette %q: %w", c.Pal, err)
	}
	colors, err := pal.Decode(f)
	f.Close()
	if err != nil {
		return err
	}
	v.Palette().SetColors(0, colors)

	out := c.Output
	if out == "" {
		out = c.Input
	}
	if err := ora.Save(out, v); err != nil {
		return err
	}
	slog.Info("palette applied", "colors", len(colors), "output", out)
	return nil
}

func distinctColors(p *voxpix.Palette) int {
	seen := make(map[color.NRGBA]struct{}, voxpix.PaletteSize)
	for i := 0; i < voxpix.PaletteSize; i++ {
		seen[p.StoredColor(uint8(i))] = struct{}{}
	}
	return len(seen)
}

// scaleImage resamples by the given factor. Whole factors use nearest
// neighbor so pixels stay exact; anything else goes through Catmull-Rom.
func scaleImage(src *image.NRGBA, factor float64) image.Image {
	if factor == 1 {
		return src
	}
	w := max(1, int(math.Round(float64(src.Bounds().Dx())*factor)))
	h := max(1, int(math.Round(float64(src.Bounds().Dy())*factor)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	scaler := xdraw.Interpolator(xdraw.CatmullRom)
	if factor == math.Trunc(factor) {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func encoderFor(path string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, nil)
		}, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
		}, nil
	case ".png":
		return func(w io.Writer, img image.Image) error {
			enc := png.Encoder{CompressionLevel: png.BestCompression}
			return enc.Encode(w, img)
		}, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, nil)
		}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", filepath.Ext(path))
}

// saveImage writes the raster next to its final name and renames it into
// place once synced, so readers never observe a half-written file.
func saveImage(path string, img image.Image) (err error) {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}

	outFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", path, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", path, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", path, defErr)
		}
		if !canRename || err != nil {
			os.Remove(outFile.Name())
			return
		}
		if defErr := os.Rename(outFile.Name(), path); defErr != nil {
			err = fmt.Errorf("could not rename destination file %q: %w", path, defErr)
		}
	}()

	if err = encode(outFile, img); err != nil {
		return fmt.Errorf("could not encode destination %q: %w", path, err)
	}
	canRename = true
	return nil
}
