package render_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/render"
)

func buildTree(keys ...int) *rbtree.Tree[int] {
	tree := rbtree.New[int]()
	for _, key := range keys {
		tree.Insert(key)
	}

	return tree
}

func renderTree(t *testing.T, tree *rbtree.Tree[int], opts render.TreeOptions) string {
	t.Helper()

	var buf bytes.Buffer

	require.NoError(t, render.Tree(&buf, tree.Root(), opts))

	return buf.String()
}

func TestTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		keys []int
		opts render.TreeOptions
		want string
	}{
		{
			name: "Empty",
			want: "·\n",
		},
		{
			name: "Balanced",
			keys: []int{10, 20, 30},
			want: "20 [B]\n├─L 10 [R]\n└─R 30 [R]\n",
		},
		{
			name: "SingleChild",
			keys: []int{10, 20},
			want: "10 [B]\n├─L ·\n└─R 20 [R]\n",
		},
		{
			name: "Nested",
			keys: []int{10, 5, 20, 1},
			want: "10 [B]\n├─L 5 [B]\n│  ├─L 1 [R]\n│  └─R ·\n└─R 20 [B]\n",
		},
		{
			name: "MaxDepth",
			keys: []int{1, 2, 3, 4, 5, 6, 7},
			opts: render.TreeOptions{MaxDepth: 1},
			want: "2 [B]\n├─L 1 [B]\n└─R 4 [R]\n   └─ …\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, renderTree(t, buildTree(tt.keys...), tt.opts))
		})
	}
}

func TestTreeColor(t *testing.T) {
	t.Parallel()

	out := renderTree(t, buildTree(10, 20, 30), render.TreeOptions{Color: true})

	assert.Contains(t, out, "\x1b[31m10 [R]")
	assert.Contains(t, out, "\x1b[1m20 [B]")
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	tree := buildTree(1, 2, 3, 4, 5, 6, 7)
	stats := observability.TreeStats{UncleRed: 2, Outer: 4, Left: 4}

	report := render.BuildReport(tree, stats, 3)

	assert.Equal(t, 7, report.Count)
	assert.Equal(t, 3, report.Height)
	assert.Equal(t, 1, report.BlackHeight)
	assert.InDelta(t, 6.0, report.HeightBound, 1e-9)
	assert.Equal(t, 8, report.ArenaNodes)
	assert.Equal(t, render.FixupCounts{UncleRed: 2, OuterChild: 4}, report.Fixups)
	assert.Equal(t, render.RotationCounts{Left: 4}, report.Rotations)
	assert.Equal(t, []string{"1", "2", "3"}, report.Preview)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Error)

	empty := render.BuildReport(rbtree.New[string](), observability.TreeStats{}, 3)
	assert.Zero(t, empty.Count)
	assert.Empty(t, empty.Preview)
	assert.True(t, empty.Valid)
}

func TestEncode(t *testing.T) {
	t.Parallel()

	report := render.BuildReport(buildTree(3, 1, 2), observability.TreeStats{Outer: 1, Inner: 1}, 10)

	var jsonBuf bytes.Buffer

	require.NoError(t, render.Encode(&jsonBuf, report, render.FormatJSON))

	var decoded render.Report

	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	assert.Equal(t, report, decoded)
	assert.NotContains(t, jsonBuf.String(), `"error"`)

	var yamlBuf bytes.Buffer

	require.NoError(t, render.Encode(&yamlBuf, report, render.FormatYAML))
	assert.Contains(t, yamlBuf.String(), "height_bound:")
	assert.Contains(t, yamlBuf.String(), "inner_child: 1")
	assert.Contains(t, yamlBuf.String(), "valid: true")

	err := render.Encode(&bytes.Buffer{}, report, "xml")
	require.ErrorIs(t, err, render.ErrUnknownFormat)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	report := render.Report{
		Count:           1234,
		Height:          12,
		HeightBound:     render.HeightBound(1234),
		HibernatedBytes: 2048,
		Preview:         []string{"1", "2", "3"},
		Valid:           false,
		Error:           "root is red",
	}

	var buf bytes.Buffer

	require.NoError(t, render.Summary(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "12 edges")
	assert.Contains(t, out, "20.5 nodes")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "no: root is red")
	assert.Contains(t, out, "1 2 3")
}

func TestHeightBound(t *testing.T) {
	t.Parallel()

	assert.Zero(t, render.HeightBound(0))
	assert.InDelta(t, 2.0, render.HeightBound(1), 1e-9)
	assert.InDelta(t, 6.0, render.HeightBound(7), 1e-9)
}
