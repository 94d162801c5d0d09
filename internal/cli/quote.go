package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonerose/dtfgangsheet/pkg/api"
)

type quoteOpts struct {
	sheetFlags
	quantities []int // copies per design
	asJSON     bool  // machine-readable output
}

func newQuoteCmd() *cobra.Command {
	var opts quoteOpts

	cmd := &cobra.Command{
		Use:   "quote [design files...]",
		Short: "Price a layout without rendering it",
		Long: `Quote computes the full layout (sheets, placements, prices) for an
order and prints the summary without writing any document.`,
		Example: `  gangsheet quote logo.png --qty 50
  gangsheet quote logo.png back.svg --qty 24,12 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd.Context(), args, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().IntSliceVarP(&opts.quantities, "qty", "q", nil, "copies per design: one value for all, or a comma list")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")

	return cmd
}

func runQuote(ctx context.Context, files []string, opts *quoteOpts) error {
	logger := loggerFromContext(ctx)

	options, err := opts.options()
	if err != nil {
		return err
	}
	inputs, err := designInputs(files, opts.quantities)
	if err != nil {
		return err
	}

	result, err := api.NewWithOptions(options).GenerateLayout(inputs)
	if err != nil {
		return err
	}
	logger.Debug("layout computed", "designs", len(result.Designs), "sheets", len(result.Sheets))

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printSummary(os.Stdout, result)
	return nil
}
