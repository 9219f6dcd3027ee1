// Package ora stores volumes as OpenRaster (.ora) files.
//
// An OpenRaster file is a zip archive: a "mimetype" entry (stored first,
// uncompressed), a "stack.xml" describing the layer stack topmost-first,
// and one image per layer. Volumes are written with one 8-bit indexed PNG
// per slice, the shared 256-color table in each PLTE/tRNS, a "visibility"
// attribute per layer, and a "voxpix.json" entry carrying what the format
// itself cannot: the transparent index, the editing indices, and hidden
// positions on the non-stack axes. Files written by other programs load as
// long as every layer is an indexed PNG.
//
// The coverage byte of a pixel is not stored. Loading reconstructs it from
// the index: cells of the transparent index come back uncovered, all
// others fully covered.
package ora

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"voxpix"
)

var (
	// ErrFormat is returned for input that is not an OpenRaster file this
	// package can read.
	ErrFormat = errors.New("ora: malformed openraster file")

	// ErrNotIndexed is returned when a layer image is not a
	// palette-indexed PNG.
	ErrNotIndexed = errors.New("ora: layer png is not palette-indexed")
)

const (
	mimeType     = "image/openraster"
	stackVersion = "0.0.3"
	metaName     = "voxpix.json"
)

type imageXML struct {
	XMLName xml.Name `xml:"image"`
	Version string   `xml:"version,attr"`
	W       int      `xml:"w,attr"`
	H       int      `xml:"h,attr"`
	Stack   stackXML `xml:"stack"`
}

type stackXML struct {
	Layers []layerXML `xml:"layer"`
}

type layerXML struct {
	Name       string `xml:"name,attr"`
	Src        string `xml:"src,attr"`
	Visibility string `xml:"visibility,attr"`
}

// metadata is the voxpix.json sidecar. Hidden stack-axis positions are not
// listed here; they ride in the layers' visibility attributes.
type metadata struct {
	Transparent uint8 `json:"transparent"`
	Foreground  uint8 `json:"foreground"`
	Background  uint8 `json:"background"`
	HiddenX     []int `json:"hidden_x,omitempty"`
	HiddenY     []int `json:"hidden_y,omitempty"`
}

// Save writes the volume to path atomically: the archive is built in a
// temporary file in the same directory and renamed into place once synced.
func Save(path string, v *voxpix.Volume) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("ora: create temporary file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err := Write(f, v); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("ora: flush %q: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ora: close %q: %w", f.Name(), err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("ora: rename into place: %w", err)
	}
	committed = true

	voxpix.Logger().Info("volume saved",
		"path", path,
		"size", fmt.Sprintf("%dx%dx%d", v.Width(), v.Height(), v.Depth()))
	return nil
}

// Write writes the volume to w as an OpenRaster archive.
func Write(w io.Writer, v *voxpix.Volume) error {
	if v == nil {
		return errors.New("ora: nil volume")
	}
	zw := zip.NewWriter(w)

	// The mimetype entry must come first and uncompressed, so sniffing
	// tools can identify the file from its head bytes.
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("ora: write mimetype: %w", err)
	}
	if _, err := io.WriteString(mt, mimeType); err != nil {
		return fmt.Errorf("ora: write mimetype: %w", err)
	}

	d := v.Depth()
	doc := imageXML{Version: stackVersion, W: v.Width(), H: v.Height()}
	for i := 1; i <= d; i++ {
		z := d - i
		vis := "visible"
		if !v.Visible(voxpix.AxisZ, z) {
			vis = "hidden"
		}
		doc.Stack.Layers = append(doc.Stack.Layers, layerXML{
			Name:       fmt.Sprintf("layer%d", i),
			Src:        fmt.Sprintf("data/layer%d.png", z),
			Visibility: vis,
		})
	}
	sw, err := zw.Create("stack.xml")
	if err != nil {
		return fmt.Errorf("ora: write stack.xml: %w", err)
	}
	data, err := xml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("ora: marshal stack.xml: %w", err)
	}
	if _, err := io.WriteString(sw, xml.Header); err != nil {
		return fmt.Errorf("ora: write stack.xml: %w", err)
	}
	if _, err := sw.Write(data); err != nil {
		return fmt.Errorf("ora: write stack.xml: %w", err)
	}

	cp := storedPalette(v.Palette())
	for z := 0; z < d; z++ {
		lw, err := zw.Create(fmt.Sprintf("data/layer%d.png", z))
		if err != nil {
			return fmt.Errorf("ora: write layer %d: %w", z, err)
		}
		if err := png.Encode(lw, sliceImage(v.Slice(z), cp)); err != nil {
			return fmt.Errorf("ora: encode layer %d: %w", z, err)
		}
	}

	mw, err := zw.Create(metaName)
	if err != nil {
		return fmt.Errorf("ora: write %s: %w", metaName, err)
	}
	meta := metadata{
		Transparent: v.Transparent(),
		Foreground:  v.Palette().Foreground,
		Background:  v.Palette().Background,
		HiddenX:     v.HiddenPositions(voxpix.AxisX),
		HiddenY:     v.HiddenPositions(voxpix.AxisY),
	}
	if err := json.NewEncoder(mw).Encode(meta); err != nil {
		return fmt.Errorf("ora: encode %s: %w", metaName, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("ora: finish archive: %w", err)
	}
	return nil
}

// Load reads the OpenRaster file at path into a volume.
func Load(path string) (*voxpix.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ora: open: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("ora: stat: %w", err)
	}
	v, err := Read(f, st.Size())
	if err != nil {
		return nil, err
	}
	voxpix.Logger().Info("volume loaded",
		"path", path,
		"size", fmt.Sprintf("%dx%dx%d", v.Width(), v.Height(), v.Depth()))
	return v, nil
}

// Read reads an OpenRaster archive from ra into a volume. The layer stack
// becomes the slice stack bottom-first, the palette is recovered from the
// topmost layer's color table, and editor metadata is applied when the
// archive carries it.
func Read(ra io.ReaderAt, size int64) (*voxpix.Volume, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if data, err := readEntry(zr, "mimetype"); err == nil {
		if got := string(bytes.TrimSpace(data)); got != mimeType {
			return nil, fmt.Errorf("%w: mimetype %q", ErrFormat, got)
		}
	}

	data, err := readEntry(zr, "stack.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: stack.xml: %v", ErrFormat, err)
	}
	var doc imageXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: stack.xml: %v", ErrFormat, err)
	}
	if len(doc.Stack.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrFormat)
	}

	meta := metadata{Foreground: 1}
	if data, err := readEntry(zr, metaName); err == nil {
		if jerr := json.Unmarshal(data, &meta); jerr != nil {
			voxpix.Logger().Warn("ignoring malformed metadata entry",
				"entry", metaName, "error", jerr)
			meta = metadata{Foreground: 1}
		}
	}

	d := len(doc.Stack.Layers)
	slices := make([]*voxpix.PixelBuffer, d)
	var hiddenZ []int
	var pal *voxpix.Palette
	for i, layer := range doc.Stack.Layers {
		z := d - 1 - i
		img, err := readLayerPNG(zr, layer.Src)
		if err != nil {
			return nil, err
		}
		if pal == nil {
			pal = paletteFrom(img.Palette)
		}
		slices[z] = bufferFrom(img, meta.Transparent)
		if layer.Visibility == "hidden" {
			hiddenZ = append(hiddenZ, z)
		}
	}

	pal.Foreground = meta.Foreground
	pal.Background = meta.Background
	v, err := voxpix.NewVolumeFromSlices(slices,
		voxpix.WithPalette(pal),
		voxpix.WithTransparent(meta.Transparent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	for _, z := range hiddenZ {
		v.Hide(voxpix.AxisZ, z)
	}
	for _, x := range meta.HiddenX {
		v.Hide(voxpix.AxisX, x)
	}
	for _, y := range meta.HiddenY {
		v.Hide(voxpix.AxisY, y)
	}
	return v, nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	rc, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func readLayerPNG(zr *zip.Reader, name string) (*image.Paletted, error) {
	rc, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: layer %q: %v", ErrFormat, name, err)
	}
	defer rc.Close()
	img, err := png.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: layer %q: %v", ErrFormat, name, err)
	}
	p, ok := img.(*image.Paletted)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotIndexed, name)
	}
	return p, nil
}

// storedPalette exports the stored color table, without overrides;
// previews are not persisted.
func storedPalette(p *voxpix.Palette) color.Palette {
	out := make(color.Palette, voxpix.PaletteSize)
	for i := range out {
		out[i] = p.StoredColor(uint8(i))
	}
	return out
}

// paletteFrom rebuilds a palette from a decoded PNG color table. The png
// decoder yields NRGBA entries when the file carries transparency and RGBA
// otherwise; both convert losslessly.
func paletteFrom(cp color.Palette) *voxpix.Palette {
	colors := make([]color.NRGBA, 0, len(cp))
	for _, c := range cp {
		colors = append(colors, color.NRGBAModel.Convert(c).(color.NRGBA))
	}
	return voxpix.NewPalette(colors...)
}

// sliceImage flattens a slice to its indices over the shared color table.
func sliceImage(buf *voxpix.PixelBuffer, cp color.Palette) *image.Paletted {
	w, h := buf.Width(), buf.Height()
	img := image.NewPaletted(image.Rect(0, 0, w, h), cp)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x := 0; x < w; x++ {
			row[x] = buf.At(x, y).Index()
		}
	}
	return img
}

// bufferFrom re-expresses a decoded layer as pixels, reconstructing the
// coverage byte from the transparent index.
func bufferFrom(img *image.Paletted, transparent uint8) *voxpix.PixelBuffer {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	buf := voxpix.NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := img.ColorIndexAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			a := uint8(255)
			if idx == transparent {
				a = 0
			}
			buf.Set(x, y, voxpix.MakePixel(idx, a))
		}
	}
	return buf
}
