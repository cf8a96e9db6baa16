// Package commands implements CLI command handlers for redblack.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/version"
)

// annotationPrometheus marks commands that always serve Prometheus metrics.
const annotationPrometheus = "redblack/prometheus"

// app carries state shared by every subcommand once the root has set it up.
type app struct {
	configPath string
	verbose    bool
	quiet      bool

	cfg       *config.Config
	providers observability.Providers
}

// NewRootCommand builds the redblack command tree.
func NewRootCommand() *cobra.Command {
	state := &app{}

	rootCmd := &cobra.Command{
		Use:   "redblack",
		Short: "Insert-only red-black tree workbench",
		Long: `redblack builds insert-only red-black trees from explicit or generated keys.

Commands:
  insert    Insert keys and print the tree with a rebalancing report
  check     Validate trees over a grid of workloads
  plot      Chart tree height against the 2·log2(n+1) bound
  serve     Insert a workload behind health and metrics endpoints`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  state.setup,
		PersistentPostRunE: state.teardown,
	}

	rootCmd.PersistentFlags().StringVar(&state.configPath, "config", "", "config file (default .redblack.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&state.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(newInsertCommand(state))
	rootCmd.AddCommand(newCheckCommand(state))
	rootCmd.AddCommand(newPlotCommand(state))
	rootCmd.AddCommand(newServeCommand(state))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func (state *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(state.configPath)
	if err != nil {
		return err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.Sampler = cfg.Telemetry.Sampler
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.Prometheus = cfg.Telemetry.Prometheus || wantsPrometheus(cmd)
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	switch {
	case state.quiet:
		obsCfg.LogLevel = slog.LevelError
	case state.verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	state.cfg = cfg
	state.providers = providers

	providers.Logger.Debug("config loaded", "path", state.configPath, "order", cfg.Workload.Order, "count", cfg.Workload.Count)

	return nil
}

// wantsPrometheus reports whether cmd needs the Prometheus reader regardless of
// telemetry.prometheus: it is annotated so, or its --metrics flag is set.
func wantsPrometheus(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationPrometheus] == "true" {
		return true
	}

	flag := cmd.Flags().Lookup("metrics")

	return flag != nil && flag.Value.String() == "true"
}

func (state *app) teardown(_ *cobra.Command, _ []string) error {
	if state.providers.Shutdown == nil {
		return nil
	}

	err := state.providers.Shutdown(context.Background())
	if err != nil {
		return fmt.Errorf("shutdown observability: %w", err)
	}

	return nil
}

func (state *app) logger() *slog.Logger {
	return state.providers.Logger
}

func (state *app) startSpan(cmd *cobra.Command) (context.Context, trace.Span) {
	return state.providers.Tracer.Start(cmd.Context(), "redblack."+cmd.Name())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Version needs neither config nor telemetry.
		PersistentPreRunE:  func(_ *cobra.Command, _ []string) error { return nil },
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "redblack %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
