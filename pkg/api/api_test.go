package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// pngBytes builds artwork whose pixel size equals its point size at the
// 72 DPI the tests run with.
func pngBytes(t *testing.T, wPx, hPx int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, wPx, hPx))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestGenerator(opts ...Option) *Generator {
	options := DefaultOptions()
	options.DPI = 72
	for _, o := range opts {
		o(&options)
	}
	return NewWithOptions(options)
}

func TestGenerateLayoutSingleDesign(t *testing.T) {
	g := newTestGenerator()
	inputs := []DesignInput{
		{Name: "logo", Data: pngBytes(t, 288, 144), Quantity: 50},
	}

	result, err := g.GenerateLayout(inputs)
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	if len(result.Sheets) != 1 {
		t.Fatalf("GenerateLayout() produced %d sheets, want 1", len(result.Sheets))
	}
	sheet := result.Sheets[0]
	if sheet.WidthInches != 22 || sheet.HeightInches != 33 {
		t.Errorf("sheet is %dx%d inches, want 22x33", sheet.WidthInches, sheet.HeightInches)
	}
	if len(sheet.Placements) != 50 {
		t.Errorf("sheet holds %d placements, want 50", len(sheet.Placements))
	}
	// 33 inches lands on the 36 inch tier of the standard table.
	if sheet.Price != 20.00 {
		t.Errorf("sheet price = %.2f, want 20.00", sheet.Price)
	}
	if result.TotalPrice != 20.00 {
		t.Errorf("total price = %.2f, want 20.00", result.TotalPrice)
	}
	if result.Designs[0].Name != "logo" || result.Designs[0].Quantity != 50 {
		t.Errorf("design summary = %+v, want logo x50", result.Designs[0])
	}
	if sheet.FileName != "gangsheet_22x33.pdf" {
		t.Errorf("sheet file name = %q, want gangsheet_22x33.pdf", sheet.FileName)
	}
}

func TestGenerateLayoutDimensionOnly(t *testing.T) {
	g := newTestGenerator()
	inputs := []DesignInput{
		{Name: "tee front", WidthInches: 4, HeightInches: 2, Quantity: 50},
	}

	result, err := g.GenerateLayout(inputs)
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	if len(result.Sheets) != 1 {
		t.Fatalf("GenerateLayout() produced %d sheets, want 1", len(result.Sheets))
	}
	sheet := result.Sheets[0]
	if sheet.WidthInches != 22 || sheet.HeightInches != 33 {
		t.Errorf("sheet is %dx%d inches, want 22x33", sheet.WidthInches, sheet.HeightInches)
	}
	if sheet.Price != 20.00 {
		t.Errorf("sheet price = %.2f, want 20.00", sheet.Price)
	}

	// A sized design carries no artwork, so rendering must refuse it.
	if _, err := g.Generate(inputs, io.Discard); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Generate() error = %v, want %s", err, errors.ErrCodeInvalidRequest)
	}
	var buf bytes.Buffer
	if _, err := g.GenerateZip(inputs, &buf); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("GenerateZip() error = %v, want %s", err, errors.ErrCodeInvalidRequest)
	}
}

func TestGenerateEmptyDesign(t *testing.T) {
	g := newTestGenerator()
	_, err := g.GenerateLayout([]DesignInput{{Name: "ghost", Quantity: 1}})
	if !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("GenerateLayout() error = %v, want %s", err, errors.ErrCodeInvalidRequest)
	}
}

func TestGenerateLayoutOverflow(t *testing.T) {
	g := newTestGenerator()
	inputs := []DesignInput{
		{Name: "logo", Data: pngBytes(t, 288, 144), Quantity: 5000},
	}

	result, err := g.GenerateLayout(inputs)
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	if len(result.Sheets) != 16 {
		t.Fatalf("GenerateLayout() produced %d sheets, want 16", len(result.Sheets))
	}
	placed := 0
	for _, s := range result.Sheets {
		placed += len(s.Placements)
	}
	if placed != 5000 {
		t.Errorf("placed %d copies, want 5000", placed)
	}
	for i, s := range result.Sheets[:15] {
		if s.HeightInches != 200 {
			t.Errorf("sheet %d is %d inches long, want 200", i, s.HeightInches)
		}
		if s.Price != 83.00 {
			t.Errorf("sheet %d price = %.2f, want 83.00", i, s.Price)
		}
	}
	last := result.Sheets[15]
	if last.HeightInches != 125 {
		t.Errorf("last sheet is %d inches long, want 125", last.HeightInches)
	}
	if last.Price != 61.00 {
		t.Errorf("last sheet price = %.2f, want 61.00", last.Price)
	}
	if result.TotalPrice != 15*83.00+61.00 {
		t.Errorf("total price = %.2f, want %.2f", result.TotalPrice, 15*83.00+61.00)
	}
}

func TestGenerateWritesPDF(t *testing.T) {
	g := newTestGenerator()
	inputs := []DesignInput{
		{Name: "logo", Data: pngBytes(t, 288, 144), Quantity: 6},
	}

	var buf bytes.Buffer
	result, err := g.Generate(inputs, &buf)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("Generate() output does not start with %%PDF")
	}
	if len(result.Sheets) != 1 {
		t.Errorf("Generate() produced %d sheets, want 1", len(result.Sheets))
	}
}

func TestGenerateToFile(t *testing.T) {
	g := newTestGenerator()
	inputs := []DesignInput{
		{Name: "logo", Data: pngBytes(t, 288, 144), Quantity: 2},
	}

	path := filepath.Join(t.TempDir(), "order", "sheets.pdf")
	if _, err := g.GenerateToFile(inputs, path); err != nil {
		t.Fatalf("GenerateToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("GenerateToFile() output does not start with %%PDF")
	}
}

func TestGenerateZip(t *testing.T) {
	g := newTestGenerator()
	inputs := []DesignInput{
		{Name: "logo", Data: pngBytes(t, 288, 144), Quantity: 50},
	}

	var buf bytes.Buffer
	result, err := g.GenerateZip(inputs, &buf)
	if err != nil {
		t.Fatalf("GenerateZip() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["gangsheet_22x33.pdf"] {
		t.Errorf("archive entries = %v, want gangsheet_22x33.pdf", names)
	}
	if !names["manifest.json"] {
		t.Errorf("archive entries = %v, want manifest.json", names)
	}

	mf, err := zr.Open("manifest.json")
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	defer mf.Close()
	var manifest Result
	if err := json.NewDecoder(mf).Decode(&manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if manifest.TotalPrice != result.TotalPrice {
		t.Errorf("manifest total = %.2f, want %.2f", manifest.TotalPrice, result.TotalPrice)
	}
}

func TestGenerateFromSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skull.png")
	if err := os.WriteFile(path, pngBytes(t, 288, 144), 0644); err != nil {
		t.Fatal(err)
	}

	g := newTestGenerator()
	result, err := g.GenerateLayout([]DesignInput{{Source: path, Quantity: 3}})
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	if result.Designs[0].Name != "skull.png" {
		t.Errorf("design name = %q, want %q", result.Designs[0].Name, "skull.png")
	}
}

func TestGenerateQuantityValidation(t *testing.T) {
	g := newTestGenerator()
	data := pngBytes(t, 72, 72)

	tests := []struct {
		name   string
		inputs []DesignInput
	}{
		{"no designs", nil},
		{"zero quantity", []DesignInput{{Name: "a", Data: data, Quantity: 0}}},
		{"negative quantity", []DesignInput{{Name: "a", Data: data, Quantity: -4}}},
		{"over cap", []DesignInput{{Name: "a", Data: data, Quantity: MaxQuantity + 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.GenerateLayout(tt.inputs)
			if !errors.Is(err, errors.ErrCodeInvalidQuantity) {
				t.Errorf("GenerateLayout() error = %v, want %s", err, errors.ErrCodeInvalidQuantity)
			}
		})
	}
}

func TestGenerateRotateAll(t *testing.T) {
	g := newTestGenerator(WithRotation(true))
	result, err := g.GenerateLayout([]DesignInput{
		{Name: "banner", Data: pngBytes(t, 720, 144), Quantity: 4},
	})
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	for _, p := range result.Sheets[0].Placements {
		if !p.Rotated {
			t.Fatalf("placement %+v not rotated", p)
		}
		if p.Width != 144 || p.Height != 720 {
			t.Errorf("placement footprint = %.0fx%.0f, want 144x720", p.Width, p.Height)
		}
	}
}

func TestGenerateAutoOrient(t *testing.T) {
	// A 10x2 inch banner fits 2 per row upright but 8 per row turned.
	data := pngBytes(t, 720, 144)

	g := newTestGenerator(WithAutoOrient(true))
	result, err := g.GenerateLayout([]DesignInput{{Name: "banner", Data: data, Quantity: 8}})
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	if !result.Designs[0].Rotated {
		t.Error("auto-orient kept the banner upright, want rotated")
	}

	g = newTestGenerator()
	result, err = g.GenerateLayout([]DesignInput{{Name: "banner", Data: data, Quantity: 8}})
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	if result.Designs[0].Rotated {
		t.Error("default options rotated the banner")
	}
}

func TestGenerateCustomTiers(t *testing.T) {
	g := newTestGenerator(WithTiers([]Tier{
		{LengthInches: 12, Price: 5.00},
		{LengthInches: 24, Price: 9.00},
	}))
	result, err := g.GenerateLayout([]DesignInput{
		{Name: "logo", Data: pngBytes(t, 288, 144), Quantity: 50},
	})
	if err != nil {
		t.Fatalf("GenerateLayout() error = %v", err)
	}
	// The 33 inch sheet runs past the table and saturates at the last tier.
	if result.TotalPrice != 9.00 {
		t.Errorf("total price = %.2f, want 9.00", result.TotalPrice)
	}
}

func TestGenerateInvalidTiers(t *testing.T) {
	g := newTestGenerator(WithTiers([]Tier{
		{LengthInches: 24, Price: 9.00},
		{LengthInches: 12, Price: 5.00},
	}))
	_, err := g.GenerateLayout([]DesignInput{
		{Name: "logo", Data: pngBytes(t, 72, 72), Quantity: 1},
	})
	if !errors.Is(err, errors.ErrCodeInvalidTierTable) {
		t.Errorf("GenerateLayout() error = %v, want %s", err, errors.ErrCodeInvalidTierTable)
	}
}

func TestGenerateInvalidConstraints(t *testing.T) {
	g := newTestGenerator(WithMargin(800))
	_, err := g.GenerateLayout([]DesignInput{
		{Name: "logo", Data: pngBytes(t, 72, 72), Quantity: 1},
	})
	if !errors.Is(err, errors.ErrCodeInvalidConstraint) {
		t.Errorf("GenerateLayout() error = %v, want %s", err, errors.ErrCodeInvalidConstraint)
	}
}

func TestGenerateUnsupportedArtwork(t *testing.T) {
	g := newTestGenerator()
	_, err := g.GenerateLayout([]DesignInput{
		{Name: "notes.txt", Data: []byte("just some text"), Quantity: 1},
	})
	if !errors.Is(err, errors.ErrCodeUnsupportedAssetKind) {
		t.Errorf("GenerateLayout() error = %v, want %s", err, errors.ErrCodeUnsupportedAssetKind)
	}
}

func TestGenerateTooWideArtwork(t *testing.T) {
	g := newTestGenerator()
	// 24 inches of artwork cannot fit a 22 inch roll in either direction.
	_, err := g.GenerateLayout([]DesignInput{
		{Name: "mural", Data: pngBytes(t, 1728, 1728), Quantity: 1},
	})
	if !errors.Is(err, errors.ErrCodeAssetTooWide) {
		t.Errorf("GenerateLayout() error = %v, want %s", err, errors.ErrCodeAssetTooWide)
	}
}
