// Package pdf renders packed sheets into PDF documents. Each sheet
// becomes one page sized exactly to the sheet; raster designs are
// embedded as images and vector designs as imported page templates, so
// vector artwork survives end to end.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/ramonerose/dtfgangsheet/internal/asset"
	"github.com/ramonerose/dtfgangsheet/internal/layout"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// Design pairs a resolved asset with the footprint the packer placed.
// Placements index into the design slice handed to the renderer.
type Design struct {
	Asset     *asset.Asset
	Footprint layout.Footprint
}

// Renderer handles rendering sheets to PDF
type Renderer struct {
	// Debug enables verbose logging to stdout and outlines every tile
	// in the output
	Debug bool
}

// RenderOptions contains document metadata for rendering
type RenderOptions struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// NewRenderer creates a new PDF renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderSheet writes one sheet as a single-page PDF.
func (r *Renderer) RenderSheet(w io.Writer, sheet *layout.Sheet, designs []Design, options RenderOptions) error {
	return r.render(w, []*layout.Sheet{sheet}, designs, options)
}

// RenderDocument writes every sheet as one page of a multi-page PDF, in
// production order.
func (r *Renderer) RenderDocument(w io.Writer, sheets []*layout.Sheet, designs []Design, options RenderOptions) error {
	return r.render(w, sheets, designs, options)
}

// RenderDocumentFile renders all sheets into a single PDF file, creating
// the output directory when needed.
func (r *Renderer) RenderDocumentFile(outputPath string, sheets []*layout.Sheet, designs []Design, options RenderOptions) error {
	outputDir := filepath.Dir(outputPath)
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	return r.render(f, sheets, designs, options)
}

// docResources tracks per-document registrations so each asset is
// embedded once no matter how many placements reference it.
type docResources struct {
	imp       *gofpdi.Importer
	images    map[int]string
	templates map[int]int
}

func (r *Renderer) render(w io.Writer, sheets []*layout.Sheet, designs []Design, options RenderOptions) (err error) {
	// The template importer reports malformed PDFs by panicking.
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New(errors.ErrCodeRenderFailed, "failed to render sheets: %v", rec)
		}
	}()

	if len(sheets) == 0 {
		return errors.New(errors.ErrCodeRenderFailed, "no sheets to render")
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: sheets[0].Width, Ht: sheets[0].Height},
	})
	// Pages are sized to their content up front; a break would tear a
	// tile across pages.
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle(options.Title, true)
	doc.SetAuthor(options.Author, true)
	doc.SetSubject(options.Subject, true)
	doc.SetKeywords(options.Keywords, true)
	doc.SetCreator(options.Creator, true)
	doc.SetProducer(options.Producer, true)

	res := &docResources{
		imp:       gofpdi.NewImporter(),
		images:    make(map[int]string),
		templates: make(map[int]int),
	}

	for i, sheet := range sheets {
		if r.Debug {
			fmt.Printf("Rendering sheet %d: %dx%d inches, %d placements\n",
				i, sheet.WidthInches(), sheet.HeightInches(), len(sheet.Placements))
		}
		doc.AddPageFormat("P", fpdf.SizeType{Wd: sheet.Width, Ht: sheet.Height})
		for _, p := range sheet.Placements {
			if p.Design < 0 || p.Design >= len(designs) {
				return errors.New(errors.ErrCodeRenderFailed,
					"placement references design %d of %d", p.Design, len(designs))
			}
			r.drawPlacement(doc, res, designs[p.Design], p.Design, p, sheet.Height)
		}
	}

	if doc.Err() {
		return errors.Wrap(errors.ErrCodeRenderFailed, doc.Error(), "failed to assemble document")
	}
	if err := doc.Output(w); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "failed to write document")
	}
	return nil
}

// drawPlacement puts one copy on the current page. The writer works in
// top-down coordinates while placements are bottom-up, so Y flips
// against the sheet height.
func (r *Renderer) drawPlacement(doc *fpdf.Fpdf, res *docResources, d Design, idx int, p layout.Placement, sheetHeight float64) {
	baseW, baseH := d.Footprint.BaseWidth, d.Footprint.BaseHeight
	ax, ay := p.DrawAnchor(d.Footprint)
	fy := sheetHeight - ay

	if p.Rotated {
		doc.TransformBegin()
		doc.TransformRotate(90, ax, fy)
	}

	// The unrotated artwork sits with its bottom-left corner on the
	// anchor; the active transform spins rotated copies into the cell.
	x, y := ax, fy-baseH
	if d.Asset.Kind == asset.KindVector {
		res.imp.UseImportedTemplate(doc, r.template(doc, res, d, idx), x, y, baseW, baseH)
	} else {
		doc.ImageOptions(r.image(doc, res, d, idx), x, y, baseW, baseH, false,
			fpdf.ImageOptions{ImageType: d.Asset.ImageType}, 0, "")
	}

	if p.Rotated {
		doc.TransformEnd()
	}

	if r.Debug {
		b := p.Bounds(d.Footprint)
		doc.SetDrawColor(255, 0, 255)
		doc.SetLineWidth(0.5)
		doc.Rect(b.X, sheetHeight-b.Top(), b.Width, b.Height, "D")
	}
}

// template imports a vector design into the document once and returns
// its template id.
func (r *Renderer) template(doc *fpdf.Fpdf, res *docResources, d Design, idx int) int {
	if tpl, ok := res.templates[idx]; ok {
		return tpl
	}
	rs := io.ReadSeeker(bytes.NewReader(d.Asset.Data))
	tpl := res.imp.ImportPageFromStream(doc, &rs, 1, "/MediaBox")
	res.templates[idx] = tpl
	return tpl
}

// image registers a raster design with the document once and returns its
// registration name.
func (r *Renderer) image(doc *fpdf.Fpdf, res *docResources, d Design, idx int) string {
	if name, ok := res.images[idx]; ok {
		return name
	}
	name := fmt.Sprintf("design-%d", idx)
	doc.RegisterImageOptionsReader(name,
		fpdf.ImageOptions{ImageType: d.Asset.ImageType}, bytes.NewReader(d.Asset.Data))
	res.images[idx] = name
	return name
}

/// OutputName returns the conventional file name for a sheet:
// gangsheet_<width>x<height>.pdf in inches. The taken map dedupes
// equal-sized sheets with _2, _3, ... suffixes.
func OutputName(sheet *layout.Sheet, taken map[string]int) string {
	base := fmt.Sprintf("gangsheet_%dx%d", sheet.WidthInches(), sheet.HeightInches())
	n := taken[base]
	taken[base] = n + 1
	if n == 0 {
		return base + ".pdf"
	}
	return fmt.Sprintf("%s_%d.pdf", base, n+1)
}
