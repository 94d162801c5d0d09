package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/phpdave11/gofpdi"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

var pdfMagic = []byte("%PDF")

// SVG user units are CSS pixels at 96 per inch.
const svgUnitsPerInch = 96.0

// Resolver turns raw design bytes into embeddable assets with known
// sizes. A Resolver is stateless and safe for concurrent use.
type Resolver struct {
	// DPI maps raster pixels to points and sets the SVG rasterization
	// density. Defaults to geom.DefaultDPI when zero.
	DPI float64
}

// NewResolver creates a resolver with the default print density.
func NewResolver() *Resolver {
	return &Resolver{DPI: geom.DefaultDPI}
}

func (r *Resolver) dpi() float64 {
	if r.DPI > 0 {
		return r.DPI
	}
	return geom.DefaultDPI
}

// Resolve detects what the given bytes are, measures them and normalizes
// the data for embedding. Detection tries PDF first, then the registered
// image decoders, then SVG; anything else is an unsupported kind.
func (r *Resolver) Resolve(name string, data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeAssetLoad, "asset %q: no data", name)
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return r.resolveVector(name, data)
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return r.resolveRaster(name, data, cfg, format)
	}
	if icon, err := oksvg.ReadIconStream(bytes.NewReader(data)); err == nil {
		return r.resolveSVG(name, icon)
	}
	return nil, errors.New(errors.ErrCodeUnsupportedAssetKind,
		"asset %q: not a PDF, bitmap image or SVG", name)
}

func (r *Resolver) resolveVector(name string, data []byte) (*Asset, error) {
	pages, box, err := probePDF(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "asset %q: unreadable PDF", name)
	}
	if pages != 1 {
		return nil, errors.New(errors.ErrCodeUnsupportedAssetKind,
			"asset %q: PDF has %d pages, want exactly 1", name, pages)
	}
	if err := checkSize(name, box.w, box.h); err != nil {
		return nil, err
	}
	return &Asset{Name: name, Kind: KindVector, Width: box.w, Height: box.h, Data: data}, nil
}

func (r *Resolver) resolveRaster(name string, data []byte, cfg image.Config, format string) (*Asset, error) {
	w := geom.PixelsToPoints(float64(cfg.Width), r.dpi())
	h := geom.PixelsToPoints(float64(cfg.Height), r.dpi())
	if err := checkSize(name, w, h); err != nil {
		return nil, err
	}

	a := &Asset{Name: name, Kind: KindRaster, Width: w, Height: h}
	switch format {
	case "png":
		a.Data, a.ImageType = data, "PNG"
	case "jpeg":
		a.Data, a.ImageType = data, "JPG"
	case "gif":
		a.Data, a.ImageType = data, "GIF"
	default:
		// bmp, tiff and webp decode fine but the PDF writer cannot
		// embed them, so re-encode to PNG.
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "asset %q: failed to decode %s", name, format)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "asset %q: failed to re-encode as png", name)
		}
		a.Data, a.ImageType = buf.Bytes(), "PNG"
	}
	return a, nil
}

func (r *Resolver) resolveSVG(name string, icon *oksvg.SvgIcon) (*Asset, error) {
	w := icon.ViewBox.W / svgUnitsPerInch * geom.PointsPerInch
	h := icon.ViewBox.H / svgUnitsPerInch * geom.PointsPerInch
	if err := checkSize(name, w, h); err != nil {
		return nil, err
	}
	data, err := rasterizeSVG(icon, r.dpi())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "asset %q: failed to rasterize svg", name)
	}
	return &Asset{Name: name, Kind: KindSVG, Width: w, Height: h, Data: data, ImageType: "PNG"}, nil
}

func checkSize(name string, w, h float64) error {
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeDegenerateAsset,
			"asset %q has degenerate dimensions %.2fx%.2fpt", name, w, h)
	}
	return nil
}

type mediaBox struct {
	w, h float64
}

// probePDF reads the page count and the first page MediaBox. gofpdi
// reports parse failures by panicking, so the probe recovers and turns
// them into ordinary errors.
func probePDF(data []byte) (pages int, box mediaBox, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	imp.SetSourceStream(&rs)

	pages = imp.GetNumPages()
	first, ok := imp.GetPageSizes()[1]["/MediaBox"]
	if !ok {
		return pages, box, fmt.Errorf("parse pdf: page 1 has no MediaBox")
	}
	box.w, box.h = first["w"], first["h"]
	return pages, box, nil
}

// rasterizeSVG renders the icon to PNG at the given density so print
// output stays sharp when the tile is scaled to its point size.
func rasterizeSVG(icon *oksvg.SvgIcon, dpi float64) ([]byte, error) {
	scale := dpi / svgUnitsPerInch
	w := int(math.Ceil(icon.ViewBox.W * scale))
	h := int(math.Ceil(icon.ViewBox.H * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
