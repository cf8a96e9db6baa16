package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/config"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/render"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

// ErrCheckFailed is returned when at least one checked tree is broken.
var ErrCheckFailed = errors.New("tree check failed")

var defaultCheckSizes = []int{0, 1, 2, 3, 7, 64, 1000, 10000}

// CheckCommand holds the flags of the check command.
type CheckCommand struct {
	state *app
	sizes []int
	seed  int64
}

// checkCase is one workload of the check grid.
type checkCase struct {
	order      workload.Order
	size       int
	duplicates bool
}

func (cc checkCase) String() string {
	name := fmt.Sprintf("%s/%d", cc.order, cc.size)
	if cc.duplicates {
		name += "/dup"
	}

	return name
}

func newCheckCommand(state *app) *cobra.Command {
	cc := &CheckCommand{state: state}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate trees over a grid of workloads",
		Long: `Build a tree for every order and size, with and without duplicate keys,
and verify the red-black invariants, the in-order key sequence and the height bound.`,
		Args: cobra.NoArgs,
		RunE: cc.run,
	}

	cmd.Flags().IntSliceVar(&cc.sizes, "sizes", defaultCheckSizes, "Tree sizes to check")
	cmd.Flags().Int64Var(&cc.seed, "seed", config.DefaultSeed, "Seed for shuffled workloads")

	return cmd
}

func (cc *CheckCommand) run(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("seed") {
		cc.seed = cc.state.cfg.Workload.Seed
	}

	ctx, span := cc.state.startSpan(cmd)
	defer span.End()

	out := cmd.OutOrStdout()
	failed := 0
	total := 0

	for _, order := range workload.Orders() {
		for _, size := range cc.sizes {
			for _, duplicates := range []bool{false, true} {
				tc := checkCase{order: order, size: size, duplicates: duplicates}
				total++

				problem := cc.checkOne(tc)
				if problem != "" {
					failed++

					fmt.Fprintf(out, "FAIL %s\n%s\n", tc, problem)

					continue
				}

				fmt.Fprintf(out, "ok   %s\n", tc)
			}
		}
	}

	cc.state.logger().InfoContext(ctx, "check finished", "cases", total, "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d cases", ErrCheckFailed, failed, total)
	}

	return nil
}

// checkOne builds the tree for tc and returns a description of what is wrong
// with it, or an empty string.
func (cc *CheckCommand) checkOne(tc checkCase) string {
	keys := workload.Generate(tc.order, tc.size, cc.seed)
	if tc.duplicates {
		keys = append(keys, keys...)
	}

	tree := rbtree.New[int64]()
	for _, key := range keys {
		tree.Insert(key)
	}

	err := tree.Validate()
	if err != nil {
		return "  " + err.Error()
	}

	want := slices.Clone(keys)
	slices.Sort(want)

	got := tree.Keys()
	if !slices.Equal(want, got) {
		return diffKeys(want, got)
	}

	if tree.Len() > 0 && float64(tree.Height()+1) > render.HeightBound(tree.Len()) {
		return fmt.Sprintf("  height %d exceeds bound %.1f", tree.Height()+1, render.HeightBound(tree.Len()))
	}

	return ""
}

// diffKeys renders a line diff between the expected and the actual in-order keys.
func diffKeys(want, got []int64) string {
	dmp := diffmatchpatch.New()
	wantChars, gotChars, lines := dmp.DiffLinesToChars(keyLines(want), keyLines(got))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(wantChars, gotChars, false), lines)

	var sb strings.Builder

	for _, diff := range diffs {
		prefix := "  "

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		writeLines(&sb, prefix, diff.Text)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func keyLines(keys []int64) string {
	var sb strings.Builder

	for _, key := range keys {
		sb.WriteString(strconv.FormatInt(key, 10))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func writeLines(w io.StringWriter, prefix, text string) {
	for line := range strings.SplitSeq(strings.TrimSuffix(text, "\n"), "\n") {
		_, _ = w.WriteString(prefix + line + "\n")
	}
}
