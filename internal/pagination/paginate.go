package pagination

import (
	"github.com/ramonerose/dtfgangsheet/internal/layout"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// Paginate packs sheets until the queue is exhausted and returns them in
// production order. An empty queue yields no sheets.
func (e *Engine) Paginate(queue []layout.Item) ([]*layout.Sheet, error) {
	var sheets []*layout.Sheet
	for len(queue) > 0 {
		sheet, consumed, err := e.packFn(queue, e.options.Constraints)
		if err != nil {
			return nil, err
		}
		if consumed == 0 {
			// A packer that makes no progress on a non-empty queue
			// would loop forever. The packer fails fast on unfittable
			// tiles, so reaching this is a bug, not bad input.
			return nil, errors.New(errors.ErrCodePackingStalled,
				"packer consumed 0 of %d queued copies", len(queue))
		}
		sheets = append(sheets, sheet)
		queue = queue[consumed:]
	}
	return sheets, nil
}

// PaginateDesigns expands the designs into a copy queue and paginates it.
func (e *Engine) PaginateDesigns(designs []layout.Design) ([]*layout.Sheet, error) {
	return e.Paginate(layout.NewQueue(designs))
}
