package api

import (
	"github.com/charmbracelet/log"
)

// Options represents configuration options for the gang sheet generator
type Options struct {
	// Sheet geometry in points (1/72 inch)
	SheetWidth     float64
	MaxSheetHeight float64
	// Margin between artwork and every sheet edge
	Margin float64
	// Spacing between neighbouring copies
	Spacing float64

	// Packing options
	// When true, every copy is rotated 90 degrees
	Rotate bool
	// When true, each design is turned to whichever orientation fits
	// more copies per row; Rotate is ignored
	AutoOrient bool

	// Rasterization DPI for SVG artwork
	DPI   float64
	Debug bool

	// Logger for progress reporting; nil discards
	Logger *log.Logger

	// Pricing tiers; empty means the standard price table
	Tiers []Tier

	// Resource paths searched for local design files
	ResourcePaths []string

	// Document metadata
	Title    string
	Author   string
	Subject  string
	Keywords string
}

// Option is a function that modifies Options
type Option func(*Options)

// Tier is one row of the price table: any sheet up to LengthInches long
// costs Price.
type Tier struct {
	LengthInches int     `json:"lengthInches"`
	Price        float64 `json:"price"`
}

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		// Default to a 22 inch roll capped at 200 inches (in points)
		SheetWidth:     SheetWidth22Inch,
		MaxSheetHeight: MaxSheetHeightPoints,

		// Default margins (1/8 inch) and spacing (1/2 inch)
		Margin:  DefaultMarginPoints,
		Spacing: DefaultSpacingPoints,

		// Default packing
		Rotate:     false,
		AutoOrient: false,

		// Default DPI
		DPI: 300,

		// Default debug mode
		Debug: false,

		// Default resource paths
		ResourcePaths: []string{},

		// Default document metadata
		Title:    "",
		Author:   "",
		Subject:  "",
		Keywords: "",
	}
}

// WithSheetSize sets the sheet width and maximum height in points
func WithSheetSize(width, maxHeight float64) Option {
	return func(o *Options) {
		o.SheetWidth = width
		o.MaxSheetHeight = maxHeight
	}
}

// WithMargin sets the sheet edge margin in points
func WithMargin(margin float64) Option {
	return func(o *Options) {
		o.Margin = margin
	}
}

// WithSpacing sets the spacing between copies in points
func WithSpacing(spacing float64) Option {
	return func(o *Options) {
		o.Spacing = spacing
	}
}

// WithRotation rotates every copy 90 degrees
func WithRotation(rotate bool) Option {
	return func(o *Options) {
		o.Rotate = rotate
	}
}

// WithAutoOrient turns each design to whichever orientation fits more
// copies per row
func WithAutoOrient(auto bool) Option {
	return func(o *Options) {
		o.AutoOrient = auto
	}
}

// WithDPI sets the rasterization DPI for SVG artwork
func WithDPI(dpi float64) Option {
	return func(o *Options) {
		o.DPI = dpi
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithLogger sets the logger used for progress reporting
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTiers sets the price table
func WithTiers(tiers []Tier) Option {
	return func(o *Options) {
		o.Tiers = tiers
	}
}

// WithResourcePath adds a path to search for local design files
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithTitle sets the document title
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}

// Standard roll widths and limits in points (1/72 inch)
const (
	// Roll widths
	SheetWidth22Inch = 1584
	SheetWidth30Inch = 2160

	// Sheet length bounds
	MinSheetLengthInches = 12
	MaxSheetLengthInches = 200
	MaxSheetHeightPoints = 14400

	// Default geometry
	DefaultMarginPoints  = 9
	DefaultSpacingPoints = 36

	// Copies allowed per design in one order
	MinQuantity = 1
	MaxQuantity = 10000
)

// WithSheetWidth22 sets the sheet width to a 22 inch roll
func WithSheetWidth22() Option {
	return func(o *Options) {
		o.SheetWidth = SheetWidth22Inch
	}
}

// WithSheetWidth30 sets the sheet width to a 30 inch roll
func WithSheetWidth30() Option {
	return func(o *Options) {
		o.SheetWidth = SheetWidth30Inch
	}
}
