package render

import (
	"cmp"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

// TreeOptions controls Tree output.
type TreeOptions struct {
	// MaxDepth stops descending below this many edges. Zero prints everything.
	MaxDepth int

	// Color paints red nodes red and black nodes bold.
	Color bool
}

const (
	branchMid  = "├─"
	branchLast = "└─"
	indentMid  = "│  "
	indentLast = "   "
	absentNode = "·"
	elided     = "…"
)

type treePrinter[K cmp.Ordered] struct {
	w     io.Writer
	red   *color.Color
	black *color.Color
	opts  TreeOptions
	err   error
}

// Tree prints the subtree under root, one node per line. Each child line is
// tagged L or R so single children keep their side.
func Tree[K cmp.Ordered](w io.Writer, root rbtree.Node[K], opts TreeOptions) error {
	printer := &treePrinter[K]{
		w:     w,
		red:   color.New(color.FgRed),
		black: color.New(color.Bold),
		opts:  opts,
	}

	if opts.Color {
		printer.red.EnableColor()
		printer.black.EnableColor()
	} else {
		printer.red.DisableColor()
		printer.black.DisableColor()
	}

	if root.Absent() {
		printer.printf("%s\n", absentNode)

		return printer.err
	}

	printer.printf("%s\n", printer.label(root))
	printer.children(root, "", 1)

	return printer.err
}

func (printer *treePrinter[K]) children(parent rbtree.Node[K], prefix string, depth int) {
	left, right := parent.Left(), parent.Right()
	if left.Absent() && right.Absent() {
		return
	}

	if printer.opts.MaxDepth > 0 && depth > printer.opts.MaxDepth {
		printer.printf("%s%s %s\n", prefix, branchLast, elided)

		return
	}

	printer.child(left, "L", prefix, branchMid, prefix+indentMid, depth)
	printer.child(right, "R", prefix, branchLast, prefix+indentLast, depth)
}

func (printer *treePrinter[K]) child(nd rbtree.Node[K], side, prefix, branch, nextPrefix string, depth int) {
	if nd.Absent() {
		printer.printf("%s%s%s %s\n", prefix, branch, side, absentNode)

		return
	}

	printer.printf("%s%s%s %s\n", prefix, branch, side, printer.label(nd))
	printer.children(nd, nextPrefix, depth+1)
}

func (printer *treePrinter[K]) label(nd rbtree.Node[K]) string {
	text := fmt.Sprintf("%v [%s]", nd.Key(), shortColor(nd.Color()))
	if nd.Color() == rbtree.Red {
		return printer.red.Sprint(text)
	}

	return printer.black.Sprint(text)
}

func (printer *treePrinter[K]) printf(format string, args ...any) {
	if printer.err != nil {
		return
	}

	_, printer.err = fmt.Fprintf(printer.w, format, args...)
}

func shortColor(c rbtree.Color) string {
	if c == rbtree.Red {
		return "R"
	}

	return "B"
}

// Summary prints report as a two-column table.
func Summary(w io.Writer, report Report) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Keys", humanize.Comma(int64(report.Count))},
		{"Height", fmt.Sprintf("%d edges", report.Height)},
		{"Height bound", fmt.Sprintf("%.1f nodes", report.HeightBound)},
		{"Black height", report.BlackHeight},
		{"Fix-up uncle red", humanize.Comma(report.Fixups.UncleRed)},
		{"Fix-up inner child", humanize.Comma(report.Fixups.InnerChild)},
		{"Fix-up outer child", humanize.Comma(report.Fixups.OuterChild)},
		{"Rotations left", humanize.Comma(report.Rotations.Left)},
		{"Rotations right", humanize.Comma(report.Rotations.Right)},
		{"Arena nodes", humanize.Comma(int64(report.ArenaNodes))},
	})

	if report.HibernatedBytes > 0 {
		tbl.AppendRow(table.Row{"Hibernated", humanize.Bytes(safeconv.MustIntToUint64(report.HibernatedBytes))})
	}

	tbl.AppendRow(table.Row{"Valid", validity(report)})

	if len(report.Preview) > 0 {
		tbl.AppendFooter(table.Row{"In order", strings.Join(report.Preview, " ")})
	}

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func validity(report Report) string {
	if report.Valid {
		return "yes"
	}

	return "no: " + report.Error
}
