package layout

import (
	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// Float drift from accumulated spacing must not force an early wrap or
// reject a tile that lands exactly on the margin.
const shelfTol = 1e-6

// packShelf lays mixed footprints in shelves: left to right across the
// sheet, wrapping to a new shelf below when a tile no longer fits, in
// queue order. An item that does not fit the remaining length stays
// queued for the next sheet.
func packShelf(queue []Item, c Constraints) (*Sheet, int, error) {
	// An item too large for any sheet would never be consumed, so the
	// whole request fails instead of paginating forever.
	for _, it := range queue {
		w, h := it.Footprint.OrientedWidth(), it.Footprint.OrientedHeight()
		if w > c.PrintableWidth()+shelfTol {
			return nil, 0, errors.New(errors.ErrCodeAssetTooWide,
				"tile is %.2fpt wide but only %.2fpt fits between the margins", w, c.PrintableWidth())
		}
		if h > c.MaxHeight-2*c.Margin+shelfTol {
			return nil, 0, errors.New(errors.ErrCodeAssetTooTall,
				"tile is %.2fpt tall but only %.2fpt fits within the %.2fpt length cap",
				h, c.MaxHeight-2*c.Margin, c.MaxHeight)
		}
	}

	// Scan downward from the top of a sheet at the full length cap; the
	// result is trimmed and shifted once the used length is known.
	x := c.Margin
	y := c.MaxHeight - c.Margin
	shelfHeight := 0.0
	lowestY := y
	row, col := 0, 0

	var placements []Placement
	consumed := 0
	for _, it := range queue {
		w, h := it.Footprint.OrientedWidth(), it.Footprint.OrientedHeight()
		if x+w > c.Width-c.Margin+shelfTol {
			x = c.Margin
			y -= shelfHeight + c.Spacing
			shelfHeight = 0
			row++
			col = 0
		}
		if y-h < c.Margin-shelfTol {
			break
		}
		placements = append(placements, Placement{
			Design:  it.Design,
			Row:     row,
			Col:     col,
			X:       x,
			Y:       y - h,
			Rotated: it.Footprint.Rotated,
		})
		if y-h < lowestY {
			lowestY = y - h
		}
		x += w + c.Spacing
		if h > shelfHeight {
			shelfHeight = h
		}
		col++
		consumed++
	}

	usedHeight := c.MaxHeight - lowestY + c.Margin
	height := geom.CeilToWholeInches(usedHeight)
	if height > c.MaxHeight {
		height = c.MaxHeight
	}

	// Re-anchor the scan onto the final, shorter sheet: shift every tile
	// down so the first shelf sits flush under the top margin and the
	// inch-rounding slack collects at the bottom.
	shift := c.MaxHeight - height
	for i := range placements {
		placements[i].Y -= shift
	}

	return &Sheet{Width: c.Width, Height: height, Placements: placements}, consumed, nil
}
