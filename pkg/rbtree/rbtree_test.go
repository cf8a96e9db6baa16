package rbtree //nolint:testpackage // tests require access to unexported fields (storage, root, rotations).

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Create a tree storing a multiset of integers.
func testNewIntSet() *Tree[int] {
	return New[int]()
}

func insertAll(tree *Tree[int], keys ...int) {
	for _, key := range keys {
		tree.Insert(key)
	}
}

// describe renders a subtree as key+color(left,right), "-" for absent children.
func describe(nd Node[int]) string {
	if nd.Absent() {
		return "-"
	}

	label := strconv.Itoa(nd.Key()) + "R"
	if nd.Color() == Black {
		label = strconv.Itoa(nd.Key()) + "B"
	}

	if nd.Left().Absent() && nd.Right().Absent() {
		return label
	}

	return fmt.Sprintf("%s(%s,%s)", label, describe(nd.Left()), describe(nd.Right()))
}

func assertHeightBound(tb testing.TB, tree *Tree[int]) {
	tb.Helper()

	if tree.Len() == 0 {
		return
	}

	bound := 2 * math.Log2(float64(tree.Len()+1))
	assert.LessOrEqual(tb, float64(tree.Height()+1), bound, "height %d for %d keys", tree.Height(), tree.Len())
}

func (tree *Tree[K]) rotateLeft(nodeIdx uint32) {
	tree.rotate(nodeIdx, Left)
}

func (tree *Tree[K]) rotateRight(nodeIdx uint32) {
	tree.rotate(nodeIdx, Right)
}

type recordingObserver struct {
	cases     []FixupCase
	rotations []Direction
}

func (ro *recordingObserver) ObserveFixup(fc FixupCase) {
	ro.cases = append(ro.cases, fc)
}

func (ro *recordingObserver) ObserveRotation(dir Direction) {
	ro.rotations = append(ro.rotations, dir)
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.Root().Absent())
	assert.True(t, tree.Min().Absent())
	assert.True(t, tree.Max().Absent())
	assert.False(t, tree.Contains(10))
	assert.Equal(t, 0, tree.Height())
	assert.Equal(t, 0, tree.BlackHeight())
	assert.Empty(t, tree.Keys())
	require.NoError(t, tree.Validate())
}

func TestInsertShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		keys  []int
		shape string
	}{
		{"Single", []int{10}, "10B"},
		{"RedChild", []int{10, 20}, "10B(-,20R)"},
		{"StraightLineRight", []int{10, 20, 30}, "20B(10R,30R)"},
		{"StraightLineLeft", []int{30, 20, 10}, "20B(10R,30R)"},
		{"ZigZagRight", []int{10, 20, 15}, "15B(10R,20R)"},
		{"ZigZagLeft", []int{30, 10, 20}, "20B(10R,30R)"},
		{"UncleRed", []int{10, 5, 20, 1}, "10B(5B(1R,-),20B)"},
		{"AscendingSeven", []int{1, 2, 3, 4, 5, 6, 7}, "2B(1B,4R(3B,6B(5R,7R)))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := testNewIntSet()
			insertAll(tree, tt.keys...)

			assert.Equal(t, tt.shape, describe(tree.Root()))
			require.NoError(t, tree.Validate())
		})
	}
}

func TestInsertAscendingSevenHeight(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	insertAll(tree, 1, 2, 3, 4, 5, 6, 7)

	assert.LessOrEqual(t, tree.Height(), 3)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, tree.Keys())
}

func TestInsertReturnsNode(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	first := tree.Insert(10)
	assert.Equal(t, 10, first.Key())
	assert.Equal(t, Black, first.Color())
	assert.True(t, first.Parent().Absent())

	second := tree.Insert(20)
	assert.Equal(t, Red, second.Color())
	assert.Equal(t, 10, second.Parent().Key())

	// The handle follows the node through rotations.
	tree.Insert(30)
	assert.Equal(t, 10, first.Key())
	assert.Equal(t, 20, first.Parent().Key())
	assert.True(t, second.Parent().Absent())
	assert.Equal(t, 1, first.Depth())
	assert.Equal(t, 0, second.Depth())
	assert.Equal(t, 2, tree.Insert(40).Depth())
	assert.Panics(t, func() { Node[int]{}.Depth() })
}

func TestInsertDuplicates(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	tree.Insert(10)
	dup := tree.Insert(10)

	// An equal key is not less, so it goes right.
	assert.Equal(t, "10B(-,10R)", describe(tree.Root()))
	assert.Equal(t, tree.Root().Right(), dup)

	insertAll(tree, 10, 10, 5, 10)
	assert.Equal(t, []int{5, 10, 10, 10, 10, 10}, tree.Keys())
	assert.Equal(t, 6, tree.Len())
	require.NoError(t, tree.Validate())
}

func TestDuplicatesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	type entry struct {
		key int
		seq int
	}

	tree := testNewIntSet()
	nodes := map[Node[int]]entry{}
	rng := rand.New(rand.NewSource(7))

	for seq := range 500 {
		key := rng.Intn(20)
		nodes[tree.Insert(key)] = entry{key: key, seq: seq}
	}

	require.NoError(t, tree.Validate())

	// Walk nodes in order and check that equal keys appear in insertion order.
	last := map[int]int{}

	for cursor := tree.Min(); !cursor.Absent(); cursor = cursor.relative(doNext(cursor.idx, tree.storage())) {
		ent := nodes[cursor]

		if prev, seen := last[ent.key]; seen {
			assert.Less(t, prev, ent.seq, "key %d", ent.key)
		}

		last[ent.key] = ent.seq
	}
}

func TestObserverCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		keys      []int
		cases     []FixupCase
		rotations []Direction
	}{
		{"NoFixup", []int{10, 20}, nil, nil},
		{"OuterChild", []int{10, 20, 30}, []FixupCase{CaseOuterChild}, []Direction{Left}},
		{"OuterChildMirror", []int{30, 20, 10}, []FixupCase{CaseOuterChild}, []Direction{Right}},
		{
			"InnerThenOuter", []int{10, 20, 15},
			[]FixupCase{CaseInnerChild, CaseOuterChild}, []Direction{Right, Left},
		},
		{
			"InnerThenOuterMirror", []int{30, 10, 20},
			[]FixupCase{CaseInnerChild, CaseOuterChild}, []Direction{Left, Right},
		},
		{"UncleRed", []int{10, 5, 20, 1}, []FixupCase{CaseUncleRed}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := testNewIntSet()
			observer := &recordingObserver{}
			tree.SetObserver(observer)
			insertAll(tree, tt.keys...)

			assert.Equal(t, tt.cases, observer.cases)
			assert.Equal(t, tt.rotations, observer.rotations)
		})
	}
}

func TestUncleRedClimbsAndRotatesHigher(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	insertAll(tree, 1, 2, 3, 4, 5, 6, 7)

	observer := &recordingObserver{}
	tree.SetObserver(observer)

	// 8 recolors under 6 and pushes the red up to 6, which then sits under red 4.
	tree.Insert(8)

	assert.Equal(t, []FixupCase{CaseUncleRed, CaseOuterChild}, observer.cases)
	assert.Equal(t, []Direction{Left}, observer.rotations)
	assert.Equal(t, 4, tree.Root().Key())
	require.NoError(t, tree.Validate())
}

func TestRotatePreservesOrder(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	insertAll(tree, 2, 1, 3)
	require.Equal(t, "2B(1R,3R)", describe(tree.Root()))

	tree.rotateLeft(tree.root)
	assert.Equal(t, "3R(2B(1R,-),-)", describe(tree.Root()))
	assert.Equal(t, []int{1, 2, 3}, tree.Keys())
	assert.True(t, tree.Root().Parent().Absent())
	assert.Equal(t, 3, tree.Root().Left().Parent().Key())

	tree.rotateRight(tree.root)
	assert.Equal(t, "2B(1R,3R)", describe(tree.Root()))
	assert.Equal(t, []int{1, 2, 3}, tree.Keys())
}

func TestRotateMovesInnerSubtree(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	insertAll(tree, 4, 2, 6, 1, 3, 5, 7)
	require.Equal(t, "4B(2B(1R,3R),6B(5R,7R))", describe(tree.Root()))

	two := tree.Find(2)
	tree.rotateLeft(two.idx)

	// 3 becomes the top of the left subtree and adopts 2, whose right slot is now empty.
	assert.Equal(t, "4B(3R(2B(1R,-),-),6B(5R,7R))", describe(tree.Root()))
	assert.Equal(t, 3, two.Parent().Key())
	assert.Equal(t, 4, two.Parent().Parent().Key())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, tree.Keys())

	six := tree.Find(6)
	tree.rotateRight(six.idx)
	assert.Equal(t, "4B(3R(2B(1R,-),-),5R(-,6B(-,7R)))", describe(tree.Root()))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, tree.Keys())
}

func TestRotateRequiresLiftedChild(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	insertAll(tree, 2, 1)

	assert.PanicsWithValue(t, "rbtree internal assertion failed", func() { tree.rotateLeft(tree.root) })
	assert.NotPanics(t, func() { tree.rotateRight(tree.root) })
}

func TestInsertOrders(t *testing.T) {
	t.Parallel()

	const size = 10_000

	rng := rand.New(rand.NewSource(42))
	shuffled := rng.Perm(size)
	ascending := slices.Sorted(slices.Values(shuffled))
	descending := slices.Clone(ascending)
	slices.Reverse(descending)

	tests := []struct {
		name  string
		input []int
	}{
		{"Shuffled", shuffled},
		{"Ascending", ascending},
		{"Descending", descending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := testNewIntSet()
			insertAll(tree, tt.input...)

			require.NoError(t, tree.Validate())
			assert.Equal(t, ascending, tree.Keys())
			assert.Equal(t, size, tree.Len())
			assertHeightBound(t, tree)
		})
	}
}

func TestEveryPermutationIsValid(t *testing.T) {
	t.Parallel()

	keys := []int{1, 2, 2, 3, 4, 5}
	count := 0

	permute(keys, len(keys), func(perm []int) {
		tree := testNewIntSet()
		insertAll(tree, perm...)

		require.NoError(t, tree.Validate(), "permutation %v", perm)
		require.Equal(t, []int{1, 2, 2, 3, 4, 5}, tree.Keys())
		assertHeightBound(t, tree)

		count++
	})

	assert.Equal(t, 720, count)
}

// permute runs visit over all orderings of keys[:size] (Heap's algorithm).
func permute(keys []int, size int, visit func([]int)) {
	if size <= 1 {
		visit(keys)

		return
	}

	for idx := range size - 1 {
		permute(keys, size-1, visit)

		if size%2 == 0 {
			keys[idx], keys[size-1] = keys[size-1], keys[idx]
		} else {
			keys[0], keys[size-1] = keys[size-1], keys[0]
		}
	}

	permute(keys, size-1, visit)
}

// Randomized tests.

func TestRandomized(t *testing.T) {
	t.Parallel()

	const numKeys = 1000

	oracle := []int{}
	tree := testNewIntSet()
	rng := rand.New(rand.NewSource(0))

	for step := range 5000 {
		key := rng.Intn(numKeys)
		tree.Insert(key)

		pos, _ := slices.BinarySearch(oracle, key)
		oracle = slices.Insert(oracle, pos, key)

		assert.Equal(t, Black, tree.Root().Color())

		if step%97 == 0 {
			require.NoError(t, tree.Validate())
			require.Equal(t, oracle, tree.Keys())
			assertHeightBound(t, tree)
		}
	}

	require.NoError(t, tree.Validate())
	assert.Equal(t, oracle, tree.Keys())
	assert.Equal(t, oracle[0], tree.Min().Key())
	assert.Equal(t, oracle[len(oracle)-1], tree.Max().Key())
}

func TestRandomizedSharedAllocatorWithHibernation(t *testing.T) {
	t.Parallel()

	for seed := range int64(200) {
		rng := rand.New(rand.NewSource(seed))
		alloc := NewAllocator[int]()
		trees := [2]*Tree[int]{NewWithAllocator(alloc), NewWithAllocator(alloc)}
		oracles := [2][]int{}

		for step := range 300 {
			which := rng.Intn(len(trees))
			key := rng.Intn(16)
			trees[which].Insert(key)

			pos, _ := slices.BinarySearch(oracles[which], key)
			oracles[which] = slices.Insert(oracles[which], pos, key)

			if step%53 == 52 {
				require.NoError(t, alloc.Hibernate(), "seed %d", seed)
				require.NoError(t, alloc.Boot(), "seed %d", seed)
			}

			for idx, tree := range trees {
				require.NoError(t, tree.Validate(), "seed %d step %d tree %d", seed, step, idx)
			}
		}

		for idx, tree := range trees {
			require.Equal(t, oracles[idx], tree.Keys(), "seed %d tree %d", seed, idx)
			assertHeightBound(t, tree)
		}
	}
}

func TestSharedAllocator(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int]()
	first := NewWithAllocator(alloc)
	second := NewWithAllocator(alloc)

	assert.Equal(t, alloc, first.Allocator())

	insertAll(first, 5, 10)
	insertAll(second, 1, 2, 3)

	assert.Equal(t, 5, alloc.Used())
	assert.Equal(t, 6, alloc.Size()) // 1 reserved + 5 nodes.
	assert.Equal(t, []int{5, 10}, first.Keys())
	assert.Equal(t, []int{1, 2, 3}, second.Keys())
	require.NoError(t, first.Validate())
	require.NoError(t, second.Validate())
}

func TestClone(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet()
	insertAll(tree, 3, 1, 2)

	observer := &recordingObserver{}
	tree.SetObserver(observer)

	clone := tree.Clone()
	clone.Insert(4)

	assert.Equal(t, []int{1, 2, 3}, tree.Keys())
	assert.Equal(t, []int{1, 2, 3, 4}, clone.Keys())
	assert.Empty(t, observer.cases)
	require.NoError(t, clone.Validate())
}

func TestStringKeys(t *testing.T) {
	t.Parallel()

	tree := New[string]()

	for _, key := range []string{"m", "c", "x", "a", "e", "z", "b"} {
		tree.Insert(key)
	}

	require.NoError(t, tree.Validate())
	assert.Equal(t, []string{"a", "b", "c", "e", "m", "x", "z"}, tree.Keys())
	assert.True(t, tree.Contains("e"))
	assert.False(t, tree.Contains("d"))
}

func TestFloatKeysWithNaN(t *testing.T) {
	t.Parallel()

	tree := New[float64]()

	for _, key := range []float64{2.5, math.NaN(), -1, math.Inf(1), 0} {
		tree.Insert(key)
	}

	require.NoError(t, tree.Validate())
	assert.True(t, math.IsNaN(tree.Min().Key()))
	assert.True(t, tree.Contains(math.NaN()))
	assert.Equal(t, math.Inf(1), tree.Max().Key())
}

func BenchmarkInsert(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, size := range sizes {
		b.Run("Size-"+strconv.Itoa(size), func(b *testing.B) {
			rng := rand.New(rand.NewSource(1))
			keys := rng.Perm(size)

			b.ResetTimer()

			for range b.N {
				tree := testNewIntSet()
				insertAll(tree, keys...)
			}
		})
	}
}

func BenchmarkInsertAscending(b *testing.B) {
	for range b.N {
		tree := testNewIntSet()

		for key := range 10000 {
			tree.Insert(key)
		}
	}
}
