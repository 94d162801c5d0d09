package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ramonerose/dtfgangsheet/internal/config"
	"github.com/ramonerose/dtfgangsheet/internal/server"
)

type serveOpts struct {
	config string // config file path
	addr   string // listen address override
}

func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gang sheet HTTP API",
		Long: `Serve runs the HTTP API: design uploads are packed, rendered and kept
as downloadable jobs. Configuration comes from the TOML config file,
with GANGSHEET_* environment variables taking precedence.`,
		Example: `  gangsheet serve
  gangsheet serve --addr :9090 --config production.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "config file (default gangsheet.toml if present)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides the config file")

	return cmd
}

func runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	_ = godotenv.Load()

	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	return srv.Start()
}
