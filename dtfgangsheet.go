package dtfgangsheet

import (
	"github.com/ramonerose/dtfgangsheet/pkg/api"
)

type Generator = api.Generator
type Options = api.Options
type Option = api.Option
type Tier = api.Tier
type DesignInput = api.DesignInput
type Placement = api.Placement
type Sheet = api.Sheet
type DesignSummary = api.DesignSummary
type Result = api.Result

func New() *Generator                           { return api.New() }
func NewWithOptions(options Options) *Generator { return api.NewWithOptions(options) }
func DefaultOptions() Options                   { return api.DefaultOptions() }

var (
	WithSheetSize    = api.WithSheetSize
	WithMargin       = api.WithMargin
	WithSpacing      = api.WithSpacing
	WithRotation     = api.WithRotation
	WithAutoOrient   = api.WithAutoOrient
	WithDPI          = api.WithDPI
	WithDebug        = api.WithDebug
	WithLogger       = api.WithLogger
	WithTiers        = api.WithTiers
	WithResourcePath = api.WithResourcePath
	WithTitle        = api.WithTitle
	WithAuthor       = api.WithAuthor
	WithSubject      = api.WithSubject
	WithKeywords     = api.WithKeywords
	WithSheetWidth22 = api.WithSheetWidth22
	WithSheetWidth30 = api.WithSheetWidth30
)

const (
	SheetWidth22Inch = api.SheetWidth22Inch
	SheetWidth30Inch = api.SheetWidth30Inch

	MinSheetLengthInches = api.MinSheetLengthInches
	MaxSheetLengthInches = api.MaxSheetLengthInches
	MaxSheetHeightPoints = api.MaxSheetHeightPoints

	DefaultMarginPoints  = api.DefaultMarginPoints
	DefaultSpacingPoints = api.DefaultSpacingPoints

	MinQuantity = api.MinQuantity
	MaxQuantity = api.MaxQuantity
)
