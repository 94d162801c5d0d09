package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonerose/dtfgangsheet/internal/config"
	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/pkg/api"
)

// sheetFlags are the layout overrides shared by generate and quote.
// Unset flags defer to the config file and its defaults; margin and
// spacing use -1 as unset because zero is a legal value for both.
type sheetFlags struct {
	config     string  // config file path
	width      float64 // sheet width in inches, 22 or 30
	maxLength  float64 // sheet length cap in inches
	margin     float64 // sheet edge margin in inches
	spacing    float64 // gap between copies in inches
	rotate     bool    // rotate every copy 90 degrees
	autoOrient bool    // per-design orientation choice
}

func (f *sheetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "config file (default gangsheet.toml if present)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "sheet width in inches: 22 or 30")
	cmd.Flags().Float64Var(&f.maxLength, "max-length", 0, "maximum sheet length in inches")
	cmd.Flags().Float64Var(&f.margin, "margin", -1, "sheet edge margin in inches")
	cmd.Flags().Float64Var(&f.spacing, "spacing", -1, "gap between copies in inches")
	cmd.Flags().BoolVar(&f.rotate, "rotate", false, "rotate every copy 90 degrees")
	cmd.Flags().BoolVar(&f.autoOrient, "auto-orient", false, "rotate designs that pack more copies per row")
}

// options loads the config file and layers the flag overrides on top.
func (f *sheetFlags) options() (api.Options, error) {
	if f.width != 0 && f.width != 22 && f.width != 30 {
		return api.Options{}, fmt.Errorf("sheet width must be 22 or 30 inches, got %g", f.width)
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return api.Options{}, err
	}

	options := cfg.Options()
	if f.width > 0 {
		options.SheetWidth = geom.InchesToPoints(f.width)
	}
	if f.maxLength > 0 {
		options.MaxSheetHeight = geom.InchesToPoints(f.maxLength)
	}
	if f.margin >= 0 {
		options.Margin = geom.InchesToPoints(f.margin)
	}
	if f.spacing >= 0 {
		options.Spacing = geom.InchesToPoints(f.spacing)
	}
	if f.rotate {
		options.Rotate = true
	}
	if f.autoOrient {
		options.AutoOrient = true
	}
	return options, nil
}

type generateOpts struct {
	sheetFlags
	output     string // output file path
	quantities []int  // copies per design
	zip        bool   // one PDF per sheet, zipped
	title      string // PDF document title
}

func newGenerateCmd() *cobra.Command {
	opts := generateOpts{output: "gangsheets.pdf"}

	cmd := &cobra.Command{
		Use:   "generate [design files...]",
		Short: "Pack design files onto gang sheets and write the document",
		Long: `Generate packs N copies of each design file onto fixed-width sheets
and writes them as one multi-page PDF, or as one PDF per sheet inside a
ZIP archive with --zip.

Quantities follow the design arguments: a single --qty value applies to
every design, a comma list pairs up with the designs in order, and no
--qty means one copy each.`,
		Example: `  gangsheet generate logo.png --qty 50
  gangsheet generate logo.png back.svg --qty 24,12 -o order-1432.pdf
  gangsheet generate banner.pdf --qty 8 --width 30 --zip -o order.zip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file")
	cmd.Flags().IntSliceVarP(&opts.quantities, "qty", "q", nil, "copies per design: one value for all, or a comma list")
	cmd.Flags().BoolVar(&opts.zip, "zip", false, "write one PDF per sheet in a ZIP archive")
	cmd.Flags().StringVar(&opts.title, "title", "", "PDF document title")

	return cmd
}

func runGenerate(ctx context.Context, files []string, opts *generateOpts) error {
	logger := loggerFromContext(ctx)

	options, err := opts.options()
	if err != nil {
		return err
	}
	if opts.title != "" {
		options.Title = opts.title
	}

	inputs, err := designInputs(files, opts.quantities)
	if err != nil {
		return err
	}

	gen := api.NewWithOptions(options)
	start := time.Now()

	var result *api.Result
	if opts.zip {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.output, err)
		}
		result, err = gen.GenerateZip(inputs, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	} else {
		if result, err = gen.GenerateToFile(inputs, opts.output); err != nil {
			return err
		}
	}

	logger.Info("document written",
		"output", opts.output,
		"sheets", len(result.Sheets),
		"elapsed", time.Since(start).Round(time.Millisecond))

	printSummary(os.Stdout, result)
	return nil
}

// designInputs pairs each design path with its copy count.
func designInputs(paths []string, quantities []int) ([]api.DesignInput, error) {
	counts, err := expandQuantities(quantities, len(paths))
	if err != nil {
		return nil, err
	}

	inputs := make([]api.DesignInput, len(paths))
	for i, p := range paths {
		inputs[i] = api.DesignInput{
			Name:     filepath.Base(p),
			Source:   p,
			Quantity: counts[i],
		}
	}
	return inputs, nil
}

// expandQuantities turns the --qty flag into one count per design:
// none means one copy each, a single value applies to every design,
// and a full list must line up with the designs.
func expandQuantities(quantities []int, n int) ([]int, error) {
	counts := make([]int, n)
	for i := range counts {
		counts[i] = 1
	}

	switch len(quantities) {
	case 0:
	case 1:
		for i := range counts {
			counts[i] = quantities[0]
		}
	case n:
		copy(counts, quantities)
	default:
		return nil, fmt.Errorf("got %d quantities for %d designs", len(quantities), n)
	}

	for _, q := range counts {
		if q < 1 {
			return nil, fmt.Errorf("quantities must be at least 1, got %d", q)
		}
	}
	return counts, nil
}

func printSummary(w io.Writer, result *api.Result) {
	for _, d := range result.Designs {
		orientation := ""
		if d.Rotated {
			orientation = ", rotated"
		}
		fmt.Fprintf(w, "%s: %d copies of %.3gx%.3g in%s\n",
			d.Name, d.Quantity, geom.PointsToInches(d.Width), geom.PointsToInches(d.Height), orientation)
	}
	for i, s := range result.Sheets {
		fmt.Fprintf(w, "sheet %d: %dx%d in, %d placements, $%.2f\n",
			i+1, s.WidthInches, s.HeightInches, len(s.Placements), s.Price)
	}
	fmt.Fprintf(w, "total: $%.2f\n", result.TotalPrice)
}
