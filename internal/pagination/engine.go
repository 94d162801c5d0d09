// Package pagination drives the sheet packer across a copy queue until
// every requested copy has a home, producing sheets in press order.
package pagination

import (
	"github.com/ramonerose/dtfgangsheet/internal/layout"
)

// Options represents options for the pagination engine
type Options struct {
	Constraints layout.Constraints
}

// Engine handles the pagination process
type Engine struct {
	options Options
	packFn  func([]layout.Item, layout.Constraints) (*layout.Sheet, int, error)
}

// NewEngine creates a new pagination engine
func NewEngine() *Engine {
	return &Engine{
		options: Options{
			Constraints: layout.Constraints{
				Width:     1584,  // Default 22 inch roll in points
				MaxHeight: 14400, // Default 200 inch length cap
				Margin:    9,     // Default 0.125 inch margin
				Spacing:   36,    // Default 0.5 inch spacing
			},
		},
		packFn: layout.PackSheet,
	}
}

// SetOptions sets the options for the pagination engine
func (e *Engine) SetOptions(options Options) {
	e.options = options
}
