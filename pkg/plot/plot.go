// Package plot charts how tree height grows with the number of inserted keys.
package plot

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/render"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

// ErrInvalidSampling is returned for non-positive sizes or steps.
var ErrInvalidSampling = errors.New("size and step must be positive")

const (
	chartWidth    = "100%"
	chartHeight   = "500px"
	lineWidth     = 2
	lineWidthThin = 1

	colorObserved = "#c0392b"
	colorBound    = "#2c3e50"
)

// Point is one height sample.
type Point struct {
	// Keys is the number of keys inserted so far.
	Keys int
	// PathNodes is the number of nodes on the longest root-to-leaf path.
	PathNodes int
	// Bound is 2·log2(Keys+1).
	Bound float64
}

// Series is the height trace of one workload.
type Series struct {
	Order  workload.Order
	Points []Point
}

// HeightSeries inserts maxN keys in the given order and samples the height
// every step keys and after the last one.
func HeightSeries(order workload.Order, maxN, step int, seed int64) (Series, error) {
	if maxN <= 0 || step <= 0 {
		return Series{}, fmt.Errorf("%w: size %d, step %d", ErrInvalidSampling, maxN, step)
	}

	tree := rbtree.New[int64]()
	series := Series{Order: order, Points: make([]Point, 0, maxN/step+1)}

	for idx, key := range workload.Generate(order, maxN, seed) {
		tree.Insert(key)

		inserted := idx + 1
		if inserted%step == 0 || inserted == maxN {
			series.Points = append(series.Points, Point{
				Keys:      inserted,
				PathNodes: tree.Height() + 1,
				Bound:     render.HeightBound(inserted),
			})
		}
	}

	return series, nil
}

// Render writes an HTML page with the observed path length against the bound.
func Render(w io.Writer, series Series) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "redblack height",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Tree height",
			Subtitle: series.Order.String() + " inserts",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "keys"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "path nodes"}),
	)

	labels := make([]string, len(series.Points))
	observed := make([]opts.LineData, len(series.Points))
	bound := make([]opts.LineData, len(series.Points))

	for idx, point := range series.Points {
		labels[idx] = strconv.Itoa(point.Keys)
		observed[idx] = opts.LineData{Value: point.PathNodes}
		bound[idx] = opts.LineData{Value: point.Bound}
	}

	line.SetXAxis(labels)
	line.AddSeries("observed", observed,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorObserved}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("2·log2(n+1)", bound,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBound}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidthThin, Type: "dashed"}),
	)

	err := line.Render(w)
	if err != nil {
		return fmt.Errorf("render height chart: %w", err)
	}

	return nil
}
