package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/plot"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

const (
	defaultPlotOut  = "redblack-height.html"
	defaultPlotSize = 10000
	defaultPlotStep = 100
)

// PlotCommand holds the flags of the plot command.
type PlotCommand struct {
	state *app
	out   string
	order string
	size  int
	step  int
	seed  int64
}

func newPlotCommand(state *app) *cobra.Command {
	pc := &PlotCommand{state: state}

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart tree height against the 2·log2(n+1) bound",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}

	cmd.Flags().StringVarP(&pc.out, "out", "o", defaultPlotOut, "Output HTML file")
	cmd.Flags().StringVar(&pc.order, "order", config.DefaultOrder, "Key order: ascending, descending, shuffled")
	cmd.Flags().IntVarP(&pc.size, "size", "n", defaultPlotSize, "Number of keys to insert")
	cmd.Flags().IntVar(&pc.step, "step", defaultPlotStep, "Sample the height every step keys")
	cmd.Flags().Int64Var(&pc.seed, "seed", config.DefaultSeed, "Seed for shuffled workloads")

	return cmd
}

func (pc *PlotCommand) run(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("order") {
		pc.order = pc.state.cfg.Workload.Order
	}

	if !cmd.Flags().Changed("seed") {
		pc.seed = pc.state.cfg.Workload.Seed
	}

	order, err := workload.ParseOrder(pc.order)
	if err != nil {
		return err
	}

	ctx, span := pc.state.startSpan(cmd)
	defer span.End()

	series, err := plot.HeightSeries(order, pc.size, pc.step, pc.seed)
	if err != nil {
		return err
	}

	file, err := os.Create(pc.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", pc.out, err)
	}

	err = plot.Render(file, series)
	if err != nil {
		_ = file.Close()

		return err
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", pc.out, err)
	}

	pc.state.logger().InfoContext(ctx, "plot written", "path", pc.out, "samples", len(series.Points))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d samples)\n", pc.out, len(series.Points))

	return nil
}
