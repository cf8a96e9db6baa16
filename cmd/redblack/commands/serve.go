package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/render"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

// ErrInvalidServeFlags is returned for a non-positive batch or interval.
var ErrInvalidServeFlags = errors.New("batch and interval must be positive")

const (
	defaultServeAddr     = "127.0.0.1:9464"
	defaultServeBatch    = 1000
	defaultServeInterval = 100 * time.Millisecond
	defaultServeKeys     = 1_000_000
	serveShutdownTimeout = 5 * time.Second
)

// ServeCommand holds the flags of the serve command.
type ServeCommand struct {
	state *app

	addr     string
	order    string
	batch    int
	maxKeys  int
	seed     int64
	interval time.Duration
	duration time.Duration
}

// guardedTree serializes inserts against readiness checks.
type guardedTree struct {
	mu   sync.Mutex
	tree *rbtree.Tree[int64]
}

func (gt *guardedTree) insertAll(ctx context.Context, keys []int64, metrics *observability.TreeMetrics) {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	for _, key := range keys {
		metrics.RecordInsert(ctx, gt.tree.Insert(key).Depth())
	}
}

func (gt *guardedTree) validate(_ context.Context) error {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	return gt.tree.Validate()
}

func newServeCommand(state *app) *cobra.Command {
	sc := &ServeCommand{state: state}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Insert a workload continuously behind health and metrics endpoints",
		Long: `Insert keys in batches while serving /healthz, /readyz and /metrics.
/readyz validates the whole tree. Stops when the workload is exhausted,
when --duration elapses or on SIGINT/SIGTERM, then prints a summary.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationPrometheus: "true"},
		RunE:        sc.run,
	}

	cmd.Flags().StringVar(&sc.addr, "addr", defaultServeAddr, "Diagnostics listen address")
	cmd.Flags().StringVar(&sc.order, "order", config.DefaultOrder, "Key order: ascending, descending, shuffled")
	cmd.Flags().Int64Var(&sc.seed, "seed", config.DefaultSeed, "Seed for shuffled workloads")
	cmd.Flags().IntVar(&sc.batch, "batch", defaultServeBatch, "Keys inserted per tick")
	cmd.Flags().IntVar(&sc.maxKeys, "max-keys", defaultServeKeys, "Total number of keys to insert")
	cmd.Flags().DurationVar(&sc.interval, "interval", defaultServeInterval, "Delay between batches")
	cmd.Flags().DurationVar(&sc.duration, "duration", 0, "Stop after this long (0 = run until done)")

	return cmd
}

func (sc *ServeCommand) run(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("order") {
		sc.order = sc.state.cfg.Workload.Order
	}

	if !cmd.Flags().Changed("seed") {
		sc.seed = sc.state.cfg.Workload.Seed
	}

	if sc.batch <= 0 || sc.interval <= 0 {
		return fmt.Errorf("%w: batch %d, interval %s", ErrInvalidServeFlags, sc.batch, sc.interval)
	}

	order, err := workload.ParseOrder(sc.order)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sc.duration > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, sc.duration)
		defer cancel()
	}

	ctx, span := sc.state.providers.Tracer.Start(ctx, "redblack."+cmd.Name())
	defer span.End()

	logger := sc.state.logger()

	treeMetrics, err := observability.NewTreeMetrics(ctx, sc.state.providers.Meter)
	if err != nil {
		return err
	}

	guarded := &guardedTree{tree: rbtree.New[int64]()}
	guarded.tree.SetObserver(treeMetrics)

	srv, err := observability.NewDiagnosticsServer(
		ctx, sc.addr, sc.state.providers.Prometheus.Handler(), logger, guarded.validate,
	)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serveShutdownTimeout)
		defer cancel()

		closeErr := srv.Close(shutdownCtx)
		if closeErr != nil {
			logger.Warn("diagnostics shutdown failed", "error", closeErr)
		}
	}()

	logger.InfoContext(ctx, "serving diagnostics", "addr", srv.Addr(), "keys", sc.maxKeys, "batch", sc.batch)

	sc.feed(ctx, guarded, workload.Generate(order, sc.maxKeys, sc.seed), treeMetrics)

	guarded.mu.Lock()
	report := render.BuildReport(guarded.tree, treeMetrics.Stats(), previewKeys)
	guarded.mu.Unlock()

	logger.InfoContext(ctx, "serve finished", "keys", report.Count, "height", report.Height)

	return render.Summary(cmd.OutOrStdout(), report)
}

// feed inserts keys one batch per tick until they run out or ctx is done.
func (sc *ServeCommand) feed(
	ctx context.Context, guarded *guardedTree, keys []int64, metrics *observability.TreeMetrics,
) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for len(keys) > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n := min(sc.batch, len(keys))
		guarded.insertAll(ctx, keys[:n], metrics)
		keys = keys[n:]
	}
}
