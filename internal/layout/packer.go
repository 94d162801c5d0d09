package layout

import (
	"math"

	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// PackSheet fills one sheet from the front of the queue and reports how
// many copies it consumed. Queues that repeat a single footprint get the
// dense grid layout; mixed queues fall back to shelf packing. An empty
// queue produces no sheet.
func PackSheet(queue []Item, c Constraints) (*Sheet, int, error) {
	if len(queue) == 0 {
		return nil, 0, nil
	}
	if fp, ok := uniformFootprint(queue); ok {
		return packUniform(queue, fp, c)
	}
	return packShelf(queue, c)
}

// ColumnsPerRow returns how many copies of f fit across one row under c,
// or 0 when the footprint is too wide or too tall for any sheet.
func ColumnsPerRow(f Footprint, c Constraints) int {
	ow, oh := f.OrientedWidth(), f.OrientedHeight()
	if ow <= 0 || oh <= 0 {
		return 0
	}
	if oh > c.MaxHeight-2*c.Margin {
		return 0
	}
	cols := int(math.Floor((c.Width - 2*c.Margin + c.Spacing) / (ow + c.Spacing)))
	if cols < 1 {
		return 0
	}
	return cols
}

// uniformFootprint reports whether every queued item shares one footprint.
func uniformFootprint(queue []Item) (Footprint, bool) {
	fp := queue[0].Footprint
	for _, it := range queue[1:] {
		if it.Footprint != fp {
			return Footprint{}, false
		}
	}
	return fp, true
}

// packUniform lays identical tiles in a grid: rows fill top to bottom,
// each row left to right, with the bottom row sitting on the margin. The
// sheet is only as tall as the rows it holds, rounded up to a whole inch.
func packUniform(queue []Item, fp Footprint, c Constraints) (*Sheet, int, error) {
	ow, oh := fp.OrientedWidth(), fp.OrientedHeight()
	remaining := len(queue)

	cols := int(math.Floor((c.Width - 2*c.Margin + c.Spacing) / (ow + c.Spacing)))
	if cols < 1 {
		return nil, 0, errors.New(errors.ErrCodeAssetTooWide,
			"tile is %.2fpt wide but only %.2fpt fits between the margins", ow, c.PrintableWidth())
	}
	maxRows := int(math.Floor((c.MaxHeight - 2*c.Margin + c.Spacing) / (oh + c.Spacing)))
	if maxRows < 1 {
		return nil, 0, errors.New(errors.ErrCodeAssetTooTall,
			"tile is %.2fpt tall but only %.2fpt fits within the %.2fpt length cap",
			oh, c.MaxHeight-2*c.Margin, c.MaxHeight)
	}

	rows := (remaining + cols - 1) / cols
	if rows > maxRows {
		rows = maxRows
	}

	rawHeight := float64(rows)*oh + float64(rows-1)*c.Spacing + 2*c.Margin
	height := geom.CeilToWholeInches(rawHeight)
	if height > c.MaxHeight {
		height = c.MaxHeight
	}

	consumed := rows * cols
	if consumed > remaining {
		consumed = remaining
	}

	// Inch rounding makes the sheet slightly taller than the rows need;
	// the slack sits above the top row so the bottom row stays on the
	// margin.
	placements := make([]Placement, 0, consumed)
	for i := 0; i < consumed; i++ {
		row, col := i/cols, i%cols
		placements = append(placements, Placement{
			Design:  queue[i].Design,
			Row:     row,
			Col:     col,
			X:       c.Margin + float64(col)*(ow+c.Spacing),
			Y:       c.Margin + float64(rows-1-row)*(oh+c.Spacing),
			Rotated: fp.Rotated,
		})
	}

	return &Sheet{Width: c.Width, Height: height, Placements: placements}, consumed, nil
}
