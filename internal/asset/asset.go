// Package asset detects, measures and normalizes design sources so the
// layout and render stages can treat every design as a sized rectangle
// with embeddable bytes.
package asset

// Kind identifies how a design source is interpreted and embedded.
// The set is closed: anything else resolves to an unsupported-kind error.
type Kind string

const (
	// KindVector is a single-page PDF placed as an imported template,
	// preserving vector data end to end.
	KindVector Kind = "vector"
	// KindRaster is a bitmap image embedded at its pixel dimensions.
	KindRaster Kind = "raster"
	// KindSVG is an SVG document rasterized to PNG at the resolver DPI.
	KindSVG Kind = "svg"
)

// Asset is a resolved design source: its kind, intrinsic size in points
// and bytes normalized for embedding.
type Asset struct {
	Name string
	Kind Kind

	// Width and Height are the intrinsic dimensions in points.
	Width  float64
	Height float64

	// Data is ready for embedding: the original bytes for KindVector
	// and directly embeddable rasters, PNG otherwise.
	Data []byte

	// ImageType is the registration type the PDF writer expects for
	// non-vector data ("PNG", "JPG" or "GIF"). Empty for KindVector.
	ImageType string
}
