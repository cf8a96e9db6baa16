// Package render prints trees and run reports for the redblack CLI.
package render

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
)

// ErrUnknownFormat is returned by Encode for unsupported formats.
var ErrUnknownFormat = errors.New("unknown report format")

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FixupCounts counts fix-up steps by case.
type FixupCounts struct {
	UncleRed   int64 `json:"uncle_red"   yaml:"uncle_red"`
	InnerChild int64 `json:"inner_child" yaml:"inner_child"`
	OuterChild int64 `json:"outer_child" yaml:"outer_child"`
}

// RotationCounts counts rotations by direction.
type RotationCounts struct {
	Left  int64 `json:"left"  yaml:"left"`
	Right int64 `json:"right" yaml:"right"`
}

// Report summarizes a tree after a run.
type Report struct {
	Error           string         `json:"error,omitempty"  yaml:"error,omitempty"`
	Preview         []string       `json:"preview"          yaml:"preview"`
	Fixups          FixupCounts    `json:"fixups"           yaml:"fixups"`
	Rotations       RotationCounts `json:"rotations"        yaml:"rotations"`
	HeightBound     float64        `json:"height_bound"     yaml:"height_bound"`
	Count           int            `json:"count"            yaml:"count"`
	Height          int            `json:"height"           yaml:"height"`
	BlackHeight     int            `json:"black_height"     yaml:"black_height"`
	ArenaNodes      int            `json:"arena_nodes"      yaml:"arena_nodes"`
	HibernatedBytes int            `json:"hibernated_bytes" yaml:"hibernated_bytes"`
	Valid           bool           `json:"valid"            yaml:"valid"`
}

// HeightBound returns the maximum number of nodes on a root-to-leaf path of a
// red-black tree with count keys.
func HeightBound(count int) float64 {
	return 2 * math.Log2(float64(count)+1)
}

// BuildReport validates tree and collects its shape and the counters in stats.
// At most preview keys from the start of the in-order sequence are included.
func BuildReport[K cmp.Ordered](tree *rbtree.Tree[K], stats observability.TreeStats, preview int) Report {
	report := Report{
		Count:       tree.Len(),
		Height:      tree.Height(),
		HeightBound: HeightBound(tree.Len()),
		BlackHeight: tree.BlackHeight(),
		ArenaNodes:  tree.Allocator().Size(),
		Fixups: FixupCounts{
			UncleRed:   stats.UncleRed,
			InnerChild: stats.Inner,
			OuterChild: stats.Outer,
		},
		Rotations: RotationCounts{Left: stats.Left, Right: stats.Right},
		Preview:   []string{},
		Valid:     true,
	}

	err := tree.Validate()
	if err != nil {
		report.Valid = false
		report.Error = err.Error()
	}

	for key := range tree.All() {
		if len(report.Preview) >= preview {
			break
		}

		report.Preview = append(report.Preview, fmt.Sprint(key))
	}

	return report
}

// Encode writes report as JSON or YAML.
func Encode(w io.Writer, report Report, format string) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(report)
		if err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(report)
		if err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}

		err = encoder.Close()
		if err != nil {
			return fmt.Errorf("flush yaml report: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return nil
}
