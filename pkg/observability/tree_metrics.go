package observability

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
)

const (
	metricInsertsTotal   = "redblack.inserts.total"
	metricFixupsTotal    = "redblack.fixup.cases.total"
	metricRotationsTotal = "redblack.rotations.total"
	metricInsertDepth    = "redblack.insert.depth"

	attrCase      = "case"
	attrDirection = "direction"
)

// depthBucketBoundaries covers trees up to a few billion keys.
var depthBucketBoundaries = []float64{0, 1, 2, 4, 8, 12, 16, 20, 24, 32, 40, 48, 64}

var fixupCases = [...]rbtree.FixupCase{rbtree.CaseUncleRed, rbtree.CaseInnerChild, rbtree.CaseOuterChild}

// TreeStats is a snapshot of the counters kept by TreeMetrics.
type TreeStats struct {
	Inserts  int64
	UncleRed int64
	Inner    int64
	Outer    int64
	Left     int64
	Right    int64
	MaxDepth int64
}

// TreeMetrics records insert rebalancing work. It implements [rbtree.Observer]
// and mirrors every instrument in plain counters for reports.
type TreeMetrics struct {
	ctx context.Context //nolint:containedctx // Observer callbacks carry no context.

	insertsTotal   metric.Int64Counter
	fixupsTotal    metric.Int64Counter
	rotationsTotal metric.Int64Counter
	insertDepth    metric.Int64Histogram

	caseAttrs      [len(fixupCases) + 1]metric.AddOption
	directionAttrs [2]metric.AddOption

	inserts   atomic.Int64
	cases     [len(fixupCases) + 1]atomic.Int64
	rotations [2]atomic.Int64
	maxDepth  atomic.Int64
}

// NewTreeMetrics creates the tree instruments from the given meter.
// Observer callbacks record against ctx.
func NewTreeMetrics(ctx context.Context, mt metric.Meter) (*TreeMetrics, error) {
	inserts, err := mt.Int64Counter(metricInsertsTotal,
		metric.WithDescription("Total number of inserted keys"),
		metric.WithUnit("{insert}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInsertsTotal, err)
	}

	fixups, err := mt.Int64Counter(metricFixupsTotal,
		metric.WithDescription("Fix-up steps by case"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFixupsTotal, err)
	}

	rotations, err := mt.Int64Counter(metricRotationsTotal,
		metric.WithDescription("Rotations by direction"),
		metric.WithUnit("{rotation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRotationsTotal, err)
	}

	depth, err := mt.Int64Histogram(metricInsertDepth,
		metric.WithDescription("Depth of the inserted key after rebalancing"),
		metric.WithUnit("{edge}"),
		metric.WithExplicitBucketBoundaries(depthBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInsertDepth, err)
	}

	tm := &TreeMetrics{
		ctx:            ctx,
		insertsTotal:   inserts,
		fixupsTotal:    fixups,
		rotationsTotal: rotations,
		insertDepth:    depth,
	}

	for _, fc := range fixupCases {
		tm.caseAttrs[fc] = metric.WithAttributes(attribute.String(attrCase, fc.String()))
	}

	for _, dir := range []rbtree.Direction{rbtree.Left, rbtree.Right} {
		tm.directionAttrs[dir] = metric.WithAttributes(attribute.String(attrDirection, dir.String()))
	}

	return tm, nil
}

// ObserveFixup implements [rbtree.Observer].
func (tm *TreeMetrics) ObserveFixup(fc rbtree.FixupCase) {
	if fc < rbtree.CaseUncleRed || int(fc) > len(fixupCases) {
		return
	}

	tm.cases[fc].Add(1)
	tm.fixupsTotal.Add(tm.ctx, 1, tm.caseAttrs[fc])
}

// ObserveRotation implements [rbtree.Observer].
func (tm *TreeMetrics) ObserveRotation(dir rbtree.Direction) {
	tm.rotations[dir].Add(1)
	tm.rotationsTotal.Add(tm.ctx, 1, tm.directionAttrs[dir])
}

// RecordInsert counts a finished insert and the depth its key ended up at.
func (tm *TreeMetrics) RecordInsert(ctx context.Context, depth int) {
	tm.inserts.Add(1)
	tm.insertsTotal.Add(ctx, 1)
	tm.insertDepth.Record(ctx, int64(depth))

	for {
		current := tm.maxDepth.Load()
		if int64(depth) <= current || tm.maxDepth.CompareAndSwap(current, int64(depth)) {
			return
		}
	}
}

// Stats returns the counters recorded so far.
func (tm *TreeMetrics) Stats() TreeStats {
	return TreeStats{
		Inserts:  tm.inserts.Load(),
		UncleRed: tm.cases[rbtree.CaseUncleRed].Load(),
		Inner:    tm.cases[rbtree.CaseInnerChild].Load(),
		Outer:    tm.cases[rbtree.CaseOuterChild].Load(),
		Left:     tm.rotations[rbtree.Left].Load(),
		Right:    tm.rotations[rbtree.Right].Load(),
		MaxDepth: tm.maxDepth.Load(),
	}
}
