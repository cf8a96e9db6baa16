package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/render"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

// Insert command errors.
var (
	ErrInvalidTree   = errors.New("tree violates red-black invariants")
	ErrMetricsFormat = errors.New("--metrics requires the text format")
)

// previewKeys is the number of in-order keys carried by reports.
const previewKeys = 16

// InsertCommand holds the flags of the insert command.
type InsertCommand struct {
	state *app

	order    string
	format   string
	count    int
	maxDepth int
	seed     int64
	check    bool
	noColor  bool
	metrics  bool
}

func newInsertCommand(state *app) *cobra.Command {
	ic := &InsertCommand{state: state}

	cmd := &cobra.Command{
		Use:   "insert [keys...]",
		Short: "Insert keys and report the resulting tree",
		Long: `Insert the given integer keys, or a generated workload when none are given,
into a fresh tree. Prints the tree and a summary, or the report as JSON/YAML.`,
		RunE: ic.run,
	}

	cmd.Flags().IntVarP(&ic.count, "count", "n", config.DefaultCount, "Number of generated keys")
	cmd.Flags().StringVar(&ic.order, "order", config.DefaultOrder, "Generated key order: ascending, descending, shuffled")
	cmd.Flags().Int64Var(&ic.seed, "seed", config.DefaultSeed, "Seed for shuffled workloads")
	cmd.Flags().BoolVar(&ic.check, "check", false, "Validate the whole tree after every insert")
	cmd.Flags().StringVar(&ic.format, "format", config.DefaultFormat, "Output format: text, json, yaml")
	cmd.Flags().IntVar(&ic.maxDepth, "max-depth", config.DefaultMaxDepth, "Tree print depth (0 = unlimited)")
	cmd.Flags().BoolVar(&ic.noColor, "no-color", false, "Disable colored tree output")
	cmd.Flags().BoolVar(&ic.metrics, "metrics", false, "Append Prometheus metrics to the text output")

	return cmd
}

// applyConfig fills every flag the user did not set from the loaded config,
// then validates the merged result the same way a config file is validated.
func (ic *InsertCommand) applyConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if !flags.Changed("count") {
		ic.count = cfg.Workload.Count
	}

	if !flags.Changed("order") {
		ic.order = cfg.Workload.Order
	}

	if !flags.Changed("seed") {
		ic.seed = cfg.Workload.Seed
	}

	if !flags.Changed("check") {
		ic.check = cfg.Tree.Check
	}

	if !flags.Changed("format") {
		ic.format = cfg.Render.Format
	}

	if !flags.Changed("max-depth") {
		ic.maxDepth = cfg.Render.MaxDepth
	}

	if !flags.Changed("no-color") {
		ic.noColor = !cfg.Render.Color
	}

	merged := *cfg
	merged.Workload = config.WorkloadConfig{Order: ic.order, Count: ic.count, Seed: ic.seed}
	merged.Tree.Check = ic.check
	merged.Render = config.RenderConfig{Format: ic.format, MaxDepth: ic.maxDepth, Color: !ic.noColor}

	err := merged.Validate()
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if ic.metrics && ic.format != render.FormatText {
		return fmt.Errorf("%w, got %q", ErrMetricsFormat, ic.format)
	}

	return nil
}

func (ic *InsertCommand) keys(args []string) ([]int64, error) {
	if len(args) > 0 {
		keys, err := workload.ParseKeys(args)
		if err != nil {
			return nil, fmt.Errorf("parse keys: %w", err)
		}

		return keys, nil
	}

	order, err := workload.ParseOrder(ic.order)
	if err != nil {
		return nil, err
	}

	return workload.Generate(order, ic.count, ic.seed), nil
}

func (ic *InsertCommand) run(cmd *cobra.Command, args []string) error {
	err := ic.applyConfig(cmd.Flags(), ic.state.cfg)
	if err != nil {
		return err
	}

	keys, err := ic.keys(args)
	if err != nil {
		return err
	}

	ctx, span := ic.state.startSpan(cmd)
	defer span.End()

	logger := ic.state.logger()
	logger.DebugContext(ctx, "insert started", "keys", len(keys), "check", ic.check)

	treeMetrics, err := observability.NewTreeMetrics(ctx, ic.state.providers.Meter)
	if err != nil {
		return err
	}

	tree := rbtree.New[int64]()
	tree.SetObserver(treeMetrics)

	for _, key := range keys {
		treeMetrics.RecordInsert(ctx, tree.Insert(key).Depth())

		if ic.check {
			validateErr := tree.Validate()
			if validateErr != nil {
				return fmt.Errorf("%w after inserting %d: %w", ErrInvalidTree, key, validateErr)
			}
		}
	}

	report := render.BuildReport(tree, treeMetrics.Stats(), previewKeys)

	if threshold := ic.state.cfg.Tree.HibernationThreshold; threshold > 0 {
		report.HibernatedBytes, err = hibernatedFootprint(tree.Allocator(), threshold)
		if err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "insert finished",
		"keys", report.Count, "height", report.Height, "rotations", report.Rotations.Left+report.Rotations.Right,
		"valid", report.Valid)

	err = ic.write(cmd.OutOrStdout(), tree, report)
	if err != nil {
		return err
	}

	if exporter := ic.state.providers.Prometheus; ic.metrics && exporter != nil {
		err = exporter.WriteText(cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}

	if !report.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidTree, report.Error)
	}

	return nil
}

func (ic *InsertCommand) write(out io.Writer, tree *rbtree.Tree[int64], report render.Report) error {
	if ic.format != render.FormatText {
		return render.Encode(out, report, ic.format)
	}

	err := render.Tree(out, tree.Root(), render.TreeOptions{MaxDepth: ic.maxDepth, Color: !ic.noColor})
	if err != nil {
		return fmt.Errorf("print tree: %w", err)
	}

	return render.Summary(out, report)
}

// hibernatedFootprint compresses the arena, measures it and restores it.
func hibernatedFootprint(allocator *rbtree.Allocator[int64], threshold int) (int, error) {
	allocator.HibernationThreshold = threshold

	err := allocator.Hibernate()
	if err != nil {
		return 0, fmt.Errorf("hibernate arena: %w", err)
	}

	footprint := allocator.HibernatedBytes()

	err = allocator.Boot()
	if err != nil {
		return 0, fmt.Errorf("boot arena: %w", err)
	}

	return footprint, nil
}
