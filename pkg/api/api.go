package api

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/ramonerose/dtfgangsheet/internal/asset"
	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/internal/layout"
	"github.com/ramonerose/dtfgangsheet/internal/pagination"
	"github.com/ramonerose/dtfgangsheet/internal/pricing"
	"github.com/ramonerose/dtfgangsheet/internal/render/pdf"
	"github.com/ramonerose/dtfgangsheet/internal/res"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// Generator is the main API for building gang sheets
type Generator struct {
	options  Options
	loader   *res.Loader
	resolver *asset.Resolver
	log      *log.Logger
}

// DesignInput names one design and how many copies to gang.
type DesignInput struct {
	// Name labels the design in results; defaults to the source file name
	Name string
	// Source is a file path, URL or data URL, read when Data is nil
	Source string
	// Data is the raw artwork
	Data []byte
	// Quantity is the number of copies to place
	Quantity int

	// WidthInches and HeightInches describe a design by size alone,
	// used when Source and Data are both empty. Dimension-only designs
	// can be laid out and priced but not rendered.
	WidthInches  float64
	HeightInches float64
}

// Placement locates one copy on a sheet, in points from the sheet's
// bottom-left corner.
type Placement struct {
	Design  int     `json:"design"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Rotated bool    `json:"rotated"`
}

// Sheet describes one produced gang sheet.
type Sheet struct {
	WidthInches  int         `json:"widthInches"`
	HeightInches int         `json:"heightInches"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
	Price        float64     `json:"price"`
	FileName     string      `json:"fileName"`
	Placements   []Placement `json:"placements"`
}

// DesignSummary reports how one design entered the layout.
type DesignSummary struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotated  bool    `json:"rotated"`
}

// Result is the outcome of a layout or generate call.
type Result struct {
	Designs    []DesignSummary `json:"designs"`
	Sheets     []Sheet         `json:"sheets"`
	TotalPrice float64         `json:"totalPrice"`
}

// New creates a new gang sheet generator with default options
func New() *Generator {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a new gang sheet generator with the specified options
func NewWithOptions(options Options) *Generator {
	loader := res.NewLoader("")
	for _, path := range options.ResourcePaths {
		loader.AddSearchPath(path)
	}
	resolver := asset.NewResolver()
	if options.DPI > 0 {
		resolver.DPI = options.DPI
	}
	logger := options.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Generator{
		options:  options,
		loader:   loader,
		resolver: resolver,
		log:      logger,
	}
}

// GenerateLayout computes placements and pricing for an order without
// rendering anything. This is the quote operation: the result carries
// every sheet, its placements and its price.
func (g *Generator) GenerateLayout(inputs []DesignInput) (*Result, error) {
	p, err := g.plan(inputs)
	if err != nil {
		return nil, err
	}
	return p.result, nil
}

// Generate lays out the order and renders every sheet as one page of a
// multi-page PDF written to output.
func (g *Generator) Generate(inputs []DesignInput, output io.Writer) (*Result, error) {
	p, err := g.plan(inputs)
	if err != nil {
		return nil, err
	}
	if err := p.renderable(); err != nil {
		return nil, err
	}
	if err := g.renderer().RenderDocument(output, p.sheets, p.designs, g.renderOptions()); err != nil {
		return nil, err
	}
	return p.result, nil
}

// GenerateToFile lays out the order and renders every sheet into a
// multi-page PDF file, creating the output directory when needed.
func (g *Generator) GenerateToFile(inputs []DesignInput, outputPath string) (*Result, error) {
	p, err := g.plan(inputs)
	if err != nil {
		return nil, err
	}
	if err := p.renderable(); err != nil {
		return nil, err
	}
	if err := g.renderer().RenderDocumentFile(outputPath, p.sheets, p.designs, g.renderOptions()); err != nil {
		return nil, err
	}
	return p.result, nil
}

// GenerateZip lays out the order and writes a ZIP archive holding one
// PDF per sheet plus a manifest.json describing placements and pricing.
func (g *Generator) GenerateZip(inputs []DesignInput, output io.Writer) (*Result, error) {
	p, err := g.plan(inputs)
	if err != nil {
		return nil, err
	}
	if err := p.renderable(); err != nil {
		return nil, err
	}

	renderer := g.renderer()
	zw := zip.NewWriter(output)
	for i, sheet := range p.sheets {
		entry, err := zw.Create(p.result.Sheets[i].FileName)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "failed to create archive entry")
		}
		if err := renderer.RenderSheet(entry, sheet, p.designs, g.renderOptions()); err != nil {
			return nil, err
		}
	}

	manifest, err := zw.Create("manifest.json")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "failed to create archive manifest")
	}
	enc := json.NewEncoder(manifest)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.result); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "failed to write archive manifest")
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "failed to finalize archive")
	}
	return p.result, nil
}

// plan carries the internal layout alongside the reportable result.
type plan struct {
	designs []pdf.Design
	sheets  []*layout.Sheet
	result  *Result
}

func (g *Generator) plan(inputs []DesignInput) (*plan, error) {
	if len(inputs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidQuantity, "at least one design is required")
	}

	c := g.constraints()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	table := g.table()
	if err := table.Validate(); err != nil {
		return nil, err
	}

	renderDesigns := make([]pdf.Design, 0, len(inputs))
	layoutDesigns := make([]layout.Design, 0, len(inputs))
	summaries := make([]DesignSummary, 0, len(inputs))
	for i, in := range inputs {
		if in.Quantity < MinQuantity || in.Quantity > MaxQuantity {
			return nil, errors.New(errors.ErrCodeInvalidQuantity,
				"design %q: quantity %d is outside [%d, %d]",
				designLabel(in, i), in.Quantity, MinQuantity, MaxQuantity)
		}

		name := in.Name
		var a *asset.Asset
		var baseW, baseH float64
		switch {
		case len(in.Data) > 0 || in.Source != "":
			data := in.Data
			if data == nil {
				resource, err := g.loader.LoadArtwork(in.Source)
				if err != nil {
					return nil, errors.Wrap(errors.ErrCodeAssetLoad, err,
						"design %q: load artwork", designLabel(in, i))
				}
				data = resource.Data
				if name == "" {
					name = resource.Filename()
				}
			}
			if name == "" {
				name = fmt.Sprintf("design-%d", i+1)
			}

			var err error
			if a, err = g.resolver.Resolve(name, data); err != nil {
				return nil, err
			}
			baseW, baseH = a.Width, a.Height

		case in.WidthInches > 0 && in.HeightInches > 0:
			// Dimension-only design: quotable, not renderable.
			if name == "" {
				name = fmt.Sprintf("design-%d", i+1)
			}
			baseW = geom.InchesToPoints(in.WidthInches)
			baseH = geom.InchesToPoints(in.HeightInches)

		default:
			return nil, errors.New(errors.ErrCodeInvalidRequest,
				"design %q: needs artwork or positive dimensions", designLabel(in, i))
		}

		fp := layout.Footprint{BaseWidth: baseW, BaseHeight: baseH, Rotated: g.options.Rotate}
		if g.options.AutoOrient {
			fp = bestOrientation(fp, c)
		}
		g.log.Debug("design resolved",
			"name", name,
			"width", geom.PointsToInches(baseW),
			"height", geom.PointsToInches(baseH),
			"rotated", fp.Rotated,
			"copies", in.Quantity)

		renderDesigns = append(renderDesigns, pdf.Design{Asset: a, Footprint: fp})
		layoutDesigns = append(layoutDesigns, layout.Design{Name: name, Footprint: fp, Copies: in.Quantity})
		summaries = append(summaries, DesignSummary{
			Name:     name,
			Quantity: in.Quantity,
			Width:    baseW,
			Height:   baseH,
			Rotated:  fp.Rotated,
		})
	}

	engine := pagination.NewEngine()
	engine.SetOptions(pagination.Options{Constraints: c})
	sheets, err := engine.PaginateDesigns(layoutDesigns)
	if err != nil {
		return nil, err
	}

	result := &Result{Designs: summaries, Sheets: make([]Sheet, len(sheets))}
	taken := make(map[string]int)
	for i, s := range sheets {
		price := table.PriceFor(s.HeightInches())
		placements := make([]Placement, len(s.Placements))
		for j, p := range s.Placements {
			fp := layoutDesigns[p.Design].Footprint
			placements[j] = Placement{
				Design:  p.Design,
				X:       p.X,
				Y:       p.Y,
				Width:   fp.OrientedWidth(),
				Height:  fp.OrientedHeight(),
				Rotated: p.Rotated,
			}
		}
		result.Sheets[i] = Sheet{
			WidthInches:  s.WidthInches(),
			HeightInches: s.HeightInches(),
			Width:        s.Width,
			Height:       s.Height,
			Price:        price,
			FileName:     pdf.OutputName(s, taken),
			Placements:   placements,
		}
		result.TotalPrice += price
	}
	g.log.Debug("layout computed", "sheets", len(sheets), "total", result.TotalPrice)

	return &plan{designs: renderDesigns, sheets: sheets, result: result}, nil
}

// renderable fails when any design was quoted by dimensions alone and
// so has nothing to draw.
func (p *plan) renderable() error {
	for i, d := range p.designs {
		if d.Asset == nil {
			return errors.New(errors.ErrCodeInvalidRequest,
				"design %q has no artwork to render", p.result.Designs[i].Name)
		}
	}
	return nil
}

func (g *Generator) constraints() layout.Constraints {
	return layout.Constraints{
		Width:     g.options.SheetWidth,
		MaxHeight: g.options.MaxSheetHeight,
		Margin:    g.options.Margin,
		Spacing:   g.options.Spacing,
	}
}

func (g *Generator) table() pricing.Table {
	if len(g.options.Tiers) == 0 {
		return pricing.DefaultTable()
	}
	table := make(pricing.Table, len(g.options.Tiers))
	for i, t := range g.options.Tiers {
		table[i] = pricing.Tier{LengthInches: t.LengthInches, Price: t.Price}
	}
	return table
}

func (g *Generator) renderer() *pdf.Renderer {
	r := pdf.NewRenderer()
	r.Debug = g.options.Debug
	return r
}

func (g *Generator) renderOptions() pdf.RenderOptions {
	title := g.options.Title
	if title == "" {
		title = "Gang Sheet"
	}
	return pdf.RenderOptions{
		Title:    title,
		Author:   g.options.Author,
		Subject:  g.options.Subject,
		Keywords: g.options.Keywords,
		Creator:  "dtfgangsheet", // Use fixed creator since it's not in Options
		Producer: "dtfgangsheet",
	}
}

// bestOrientation turns a design to whichever orientation fits more
// copies per row, keeping the upright orientation on ties.
func bestOrientation(fp layout.Footprint, c layout.Constraints) layout.Footprint {
	upright := layout.Footprint{BaseWidth: fp.BaseWidth, BaseHeight: fp.BaseHeight}
	turned := layout.Footprint{BaseWidth: fp.BaseWidth, BaseHeight: fp.BaseHeight, Rotated: true}
	if layout.ColumnsPerRow(turned, c) > layout.ColumnsPerRow(upright, c) {
		return turned
	}
	return upright
}

func designLabel(in DesignInput, i int) string {
	if in.Name != "" {
		return in.Name
	}
	if in.Source != "" {
		return in.Source
	}
	return fmt.Sprintf("design-%d", i+1)
}

// WithOptions returns a new generator with the specified options
func (g *Generator) WithOptions(options Options) *Generator {
	return NewWithOptions(options)
}

// WithOption returns a new generator with the specified option set
func (g *Generator) WithOption(option Option) *Generator {
	newOptions := g.options
	option(&newOptions)
	return NewWithOptions(newOptions)
}

// AddResourcePath adds a path to search for local design files
func (g *Generator) AddResourcePath(path string) *Generator {
	newOptions := g.options
	newOptions.ResourcePaths = append(newOptions.ResourcePaths, path)
	return NewWithOptions(newOptions)
}

// SetSheetSize sets the sheet width and maximum height in points
func (g *Generator) SetSheetSize(width, maxHeight float64) *Generator {
	newOptions := g.options
	newOptions.SheetWidth = width
	newOptions.MaxSheetHeight = maxHeight
	return NewWithOptions(newOptions)
}

// SetMargin sets the sheet edge margin in points
func (g *Generator) SetMargin(margin float64) *Generator {
	newOptions := g.options
	newOptions.Margin = margin
	return NewWithOptions(newOptions)
}

// SetSpacing sets the spacing between copies in points
func (g *Generator) SetSpacing(spacing float64) *Generator {
	newOptions := g.options
	newOptions.Spacing = spacing
	return NewWithOptions(newOptions)
}

// SetRotation rotates every copy 90 degrees
func (g *Generator) SetRotation(rotate bool) *Generator {
	newOptions := g.options
	newOptions.Rotate = rotate
	return NewWithOptions(newOptions)
}

// SetDPI sets the rasterization DPI for SVG artwork
func (g *Generator) SetDPI(dpi float64) *Generator {
	newOptions := g.options
	newOptions.DPI = dpi
	return NewWithOptions(newOptions)
}

// SetDebug sets the debug mode
func (g *Generator) SetDebug(debug bool) *Generator {
	newOptions := g.options
	newOptions.Debug = debug
	return NewWithOptions(newOptions)
}

// SetTitle sets the document title
func (g *Generator) SetTitle(title string) *Generator {
	newOptions := g.options
	newOptions.Title = title
	return NewWithOptions(newOptions)
}

// SetAuthor sets the document author
func (g *Generator) SetAuthor(author string) *Generator {
	newOptions := g.options
	newOptions.Author = author
	return NewWithOptions(newOptions)
}
