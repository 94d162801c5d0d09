// Package geom provides the measurement primitives shared by the packing
// engine and the PDF assembler. All engine math happens in points
// (1 inch = 72 points) with a bottom-left origin; conversions to and from
// inches, millimeters, and pixels happen only at the boundaries.
package geom

import "math"

// PointsPerInch is the PDF unit density.
const PointsPerInch = 72.0

// MillimetersPerInch converts between metric input and points.
const MillimetersPerInch = 25.4

// DefaultDPI is the resolution assumed for raster assets that carry no
// density metadata. Print shops rasterize transfers at 300 dots per inch.
const DefaultDPI = 300.0

// InchesToPoints converts inches to points.
func InchesToPoints(in float64) float64 {
	return in * PointsPerInch
}

// PointsToInches converts points to inches.
func PointsToInches(pts float64) float64 {
	return pts / PointsPerInch
}

// MillimetersToPoints converts millimeters to points.
func MillimetersToPoints(mm float64) float64 {
	return mm / MillimetersPerInch * PointsPerInch
}

// PixelsToPoints converts a pixel count at the given resolution to points.
func PixelsToPoints(px, dpi float64) float64 {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return px / dpi * PointsPerInch
}

// CeilToWholeInches rounds pts up to the next whole-inch multiple of points.
// Rounding never goes down: a sheet reported shorter than its content would
// clip tiles at the press.
func CeilToWholeInches(pts float64) float64 {
	return math.Ceil(pts/PointsPerInch) * PointsPerInch
}

// WholeInches returns the whole-inch length of a point measurement that is
// already inch-aligned. Fractional leftovers round up.
func WholeInches(pts float64) int {
	return int(math.Ceil(pts / PointsPerInch))
}
