// Package layout computes tile placements for gang sheets: given design
// footprints and sheet constraints, it decides how many copies fit on one
// sheet and where each copy sits. Packing is pure arithmetic in points
// with a bottom-left origin; it performs no I/O and holds no state.
package layout

import (
	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// Constraints bound one output sheet. All values are points.
type Constraints struct {
	// Width is the fixed sheet width, set by the press roll.
	Width float64
	// MaxHeight caps how long a single sheet may grow.
	MaxHeight float64
	// Margin is kept clear on all four sides.
	Margin float64
	// Spacing separates adjacent tiles so transfers can be cut apart.
	Spacing float64
}

// Validate checks the constraint invariants.
func (c Constraints) Validate() error {
	if c.Width <= 0 {
		return errors.New(errors.ErrCodeInvalidConstraint, "sheet width must be positive, got %.2fpt", c.Width)
	}
	if c.MaxHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConstraint, "max sheet height must be positive, got %.2fpt", c.MaxHeight)
	}
	if c.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidConstraint, "margin must not be negative, got %.2fpt", c.Margin)
	}
	if c.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidConstraint, "spacing must not be negative, got %.2fpt", c.Spacing)
	}
	if c.Width <= 2*c.Margin {
		return errors.New(errors.ErrCodeInvalidConstraint,
			"width %.2fpt leaves no printable area inside %.2fpt margins", c.Width, c.Margin)
	}
	return nil
}

// PrintableWidth returns the width available to tiles between the side
// margins.
func (c Constraints) PrintableWidth() float64 {
	return c.Width - 2*c.Margin
}

// Footprint is a design's axis-aligned bounding box before placement.
type Footprint struct {
	// BaseWidth and BaseHeight are the unrotated dimensions in points.
	BaseWidth  float64
	BaseHeight float64
	// Rotated turns every copy 90 degrees on the sheet.
	Rotated bool
}

// OrientedWidth returns the width the footprint occupies on the sheet.
func (f Footprint) OrientedWidth() float64 {
	if f.Rotated {
		return f.BaseHeight
	}
	return f.BaseWidth
}

// OrientedHeight returns the height the footprint occupies on the sheet.
func (f Footprint) OrientedHeight() float64 {
	if f.Rotated {
		return f.BaseWidth
	}
	return f.BaseHeight
}

// Design pairs a footprint with how many copies the request wants.
type Design struct {
	Name      string
	Footprint Footprint
	Copies    int
}

// Item is one queued copy awaiting placement.
type Item struct {
	// Design indexes the originating design in the request.
	Design    int
	Footprint Footprint
}

// NewQueue expands designs into placement order, one entry per copy,
// preserving per-design grouping.
func NewQueue(designs []Design) []Item {
	total := 0
	for _, d := range designs {
		total += d.Copies
	}
	queue := make([]Item, 0, total)
	for i, d := range designs {
		for n := 0; n < d.Copies; n++ {
			queue = append(queue, Item{Design: i, Footprint: d.Footprint})
		}
	}
	return queue
}

// Placement locates one copy on a sheet. X and Y anchor the bottom-left
// corner of the tile's oriented bounding box, in points from the sheet's
// bottom-left corner.
type Placement struct {
	// Design indexes the originating design in the request.
	Design int
	// Row and Col give the grid position: row 0 is the topmost row. In
	// shelf layouts Row is the shelf index and Col the position within
	// the shelf.
	Row int
	Col int

	X       float64
	Y       float64
	Rotated bool
}

// Bounds returns the oriented bounding box the placement occupies.
func (p Placement) Bounds(f Footprint) geom.Rect {
	return geom.NewRect(p.X, p.Y, f.OrientedWidth(), f.OrientedHeight())
}

// DrawAnchor returns the point handed to the renderer. The draw primitive
// spins a tile 90 degrees counter-clockwise about its anchor, so a
// rotated tile anchors at the cell's bottom-right corner: the spin lands
// the tile exactly on the cell instead of hanging out to its left.
func (p Placement) DrawAnchor(f Footprint) (x, y float64) {
	if p.Rotated {
		return p.X + f.OrientedWidth(), p.Y
	}
	return p.X, p.Y
}

// Sheet is one packed output page.
type Sheet struct {
	// Width and Height are the final page dimensions in points. Height is
	// rounded up to a whole inch and never exceeds the constraint cap.
	Width  float64
	Height float64
	// Placements lists the tiles in the order they were packed.
	Placements []Placement
}

// WidthInches reports the sheet width in whole inches.
func (s *Sheet) WidthInches() int {
	return geom.WholeInches(s.Width)
}

// HeightInches reports the billed sheet length in whole inches.
func (s *Sheet) HeightInches() int {
	return geom.WholeInches(s.Height)
}
