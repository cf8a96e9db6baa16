// Package rbtree provides an insert-only red-black tree over totally ordered keys.
//
// Nodes live in an arena (see [Allocator]) and refer to each other by uint32
// index. Index zero is reserved: it stands for an absent child and for the
// missing parent of the root. Child links own their targets; the parent index is
// a plain back-reference used to climb toward the root during rebalancing.
package rbtree

import (
	"cmp"
)

// Color is the color of a tree node.
type Color bool

// Node colors.
const (
	Red   Color = false
	Black Color = true
)

// String returns "red" or "black".
func (c Color) String() string {
	if c == Black {
		return "black"
	}

	return "red"
}

// Direction selects a child slot, and the sense of a rotation: a Left rotation
// lifts the right child of the pivot, a Right rotation lifts the left child.
type Direction uint8

// Child directions.
const (
	Left Direction = iota
	Right
)

func (d Direction) opposite() Direction {
	return d ^ 1
}

// String returns "left" or "right".
func (d Direction) String() string {
	if d == Right {
		return "right"
	}

	return "left"
}

// FixupCase identifies the step taken by one iteration of the insert fix-up loop.
type FixupCase uint8

// Fix-up steps.
const (
	// CaseUncleRed recolors parent and uncle black, the grandparent red, and climbs.
	CaseUncleRed FixupCase = iota + 1
	// CaseInnerChild rotates a zig-zag shape into a straight line.
	CaseInnerChild
	// CaseOuterChild recolors and rotates the grandparent, ending the walk.
	CaseOuterChild
)

// String returns a short metric-friendly name of the case.
func (fc FixupCase) String() string {
	switch fc {
	case CaseUncleRed:
		return "uncle_red"
	case CaseInnerChild:
		return "inner_child"
	case CaseOuterChild:
		return "outer_child"
	default:
		return "unknown"
	}
}

// Observer receives a callback for every fix-up step and every rotation
// performed while inserting. It is called synchronously from Insert.
type Observer interface {
	ObserveFixup(fc FixupCase)
	ObserveRotation(dir Direction)
}

// Tree is a red-black binary search tree.
//
// Duplicates are allowed: an equal key is never less than the key it is compared
// with, so it always descends to the right. Tree is not safe for concurrent use.
type Tree[K cmp.Ordered] struct {
	// Nodes allocator.
	allocator *Allocator[K]

	// Optional fix-up callbacks.
	observer Observer

	// Root of the tree, 0 when empty.
	root uint32

	// Number of nodes under root, including the root.
	count int
}

// New creates an empty tree with its own allocator.
func New[K cmp.Ordered]() *Tree[K] {
	return NewWithAllocator(NewAllocator[K]())
}

// NewWithAllocator creates an empty tree that takes its nodes from allocator.
// Several trees may share one allocator.
func NewWithAllocator[K cmp.Ordered](allocator *Allocator[K]) *Tree[K] {
	return &Tree[K]{allocator: allocator}
}

// SetObserver installs the fix-up observer. Nil removes it.
func (tree *Tree[K]) SetObserver(observer Observer) {
	tree.observer = observer
}

// Allocator returns the bound nodes allocator.
func (tree *Tree[K]) Allocator() *Allocator[K] {
	return tree.allocator
}

// Clone performs a deep copy of the tree and its allocator. The observer is not copied.
func (tree *Tree[K]) Clone() *Tree[K] {
	return &Tree[K]{allocator: tree.allocator.Clone(), root: tree.root, count: tree.count}
}

// Len returns the number of keys in the tree.
func (tree *Tree[K]) Len() int {
	return tree.count
}

func (tree *Tree[K]) storage() []node[K] {
	if tree.allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	return tree.allocator.storage
}

// Insert adds key to the tree and rebalances it. It returns the node holding key.
func (tree *Tree[K]) Insert(key K) Node[K] {
	if tree.root == 0 {
		nodeIdx := tree.allocator.malloc(key, 0)
		tree.storage()[nodeIdx].color = Black
		tree.root = nodeIdx
		tree.count++

		return Node[K]{tree: tree, idx: nodeIdx}
	}

	storage := tree.storage()
	parent := tree.root
	side := Left

	for cursor := tree.root; cursor != 0; {
		parent = cursor
		side = descend(key, storage[cursor].key)
		cursor = storage[cursor].children[side]
	}

	nodeIdx := tree.allocator.malloc(key, parent)
	tree.storage()[parent].children[side] = nodeIdx
	tree.count++
	tree.fixInsert(nodeIdx)

	return Node[K]{tree: tree, idx: nodeIdx}
}

// descend picks the child to follow when key is compared against nodeKey.
func descend[K cmp.Ordered](key, nodeKey K) Direction {
	if cmp.Less(key, nodeKey) {
		return Left
	}

	return Right
}

// fixInsert restores the red-black properties after nodeIdx was attached as a
// red leaf. On entry to each iteration nodeIdx is red and the only possible
// violation is between nodeIdx and its parent.
func (tree *Tree[K]) fixInsert(nodeIdx uint32) {
	storage := tree.storage()

	for {
		parent := storage[nodeIdx].parent
		if parent == 0 || storage[parent].color == Black {
			break
		}

		// A red parent is never the root, so the grandparent exists.
		grandparent := storage[parent].parent
		doAssert(grandparent != 0)

		side := childSide(parent, storage)
		uncle := storage[grandparent].children[side.opposite()]

		if colorOf(uncle, storage) == Red {
			tree.observeFixup(CaseUncleRed)

			storage[parent].color = Black
			storage[uncle].color = Black
			storage[grandparent].color = Red
			nodeIdx = grandparent

			continue
		}

		if nodeIdx == storage[parent].children[side.opposite()] {
			tree.observeFixup(CaseInnerChild)
			tree.rotate(parent, side)

			// The old parent is now the lower node of a straight line.
			nodeIdx, parent = parent, nodeIdx
		}

		tree.observeFixup(CaseOuterChild)

		storage[parent].color = Black
		storage[grandparent].color = Red
		tree.rotate(grandparent, side.opposite())

		break
	}

	storage[tree.root].color = Black
}

func (tree *Tree[K]) observeFixup(fc FixupCase) {
	if tree.observer != nil {
		tree.observer.ObserveFixup(fc)
	}
}

// rotate performs a tree rotation around pivot. Colors are left untouched.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[K]) rotate(pivot uint32, dir Direction) {
	storage := tree.storage()
	lifted := dir.opposite()

	child := storage[pivot].children[lifted]
	doAssert(child != 0)

	// Move the inner subtree.
	inner := storage[child].children[dir]
	storage[pivot].children[lifted] = inner

	if inner != 0 {
		storage[inner].parent = pivot
	}

	// Update parent links.
	grandparent := storage[pivot].parent
	storage[child].parent = grandparent

	if grandparent == 0 {
		tree.root = child
	} else {
		storage[grandparent].children[childSide(pivot, storage)] = child
	}

	// Complete the rotation.
	storage[child].children[dir] = pivot
	storage[pivot].parent = child

	if tree.observer != nil {
		tree.observer.ObserveRotation(dir)
	}
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}

type node[K cmp.Ordered] struct {
	key      K
	parent   uint32
	children [2]uint32 // Indexed by Direction.
	color    Color
}

// Internal node attribute accessors.
func colorOf[K cmp.Ordered](nodeIdx uint32, storage []node[K]) Color {
	if nodeIdx == 0 {
		return Black
	}

	return storage[nodeIdx].color
}

// childSide reports which child slot of its parent nodeIdx occupies.
func childSide[K cmp.Ordered](nodeIdx uint32, storage []node[K]) Direction {
	if storage[storage[nodeIdx].parent].children[Left] == nodeIdx {
		return Left
	}

	return Right
}

// Node is a read-only handle to a tree node. The zero Node is absent.
//
// A Node stays valid while its tree lives; rotations may change its relatives
// but never its key.
type Node[K cmp.Ordered] struct {
	tree *Tree[K]
	idx  uint32
}

// Absent reports whether the handle points to no node.
func (n Node[K]) Absent() bool {
	return n.tree == nil || n.idx == 0
}

// Key returns the node key. It panics on an absent node.
func (n Node[K]) Key() K {
	doAssert(!n.Absent())

	return n.tree.storage()[n.idx].key
}

// Color returns the node color. Absent nodes are black.
func (n Node[K]) Color() Color {
	if n.Absent() {
		return Black
	}

	return n.tree.storage()[n.idx].color
}

// Child returns the child in the given direction.
func (n Node[K]) Child(dir Direction) Node[K] {
	if n.Absent() {
		return Node[K]{}
	}

	return n.relative(n.tree.storage()[n.idx].children[dir])
}

// Left returns the left child.
func (n Node[K]) Left() Node[K] {
	return n.Child(Left)
}

// Right returns the right child.
func (n Node[K]) Right() Node[K] {
	return n.Child(Right)
}

// Parent returns the parent node, absent for the root.
func (n Node[K]) Parent() Node[K] {
	if n.Absent() {
		return Node[K]{}
	}

	return n.relative(n.tree.storage()[n.idx].parent)
}

// Depth returns the number of edges between the node and the root.
func (n Node[K]) Depth() int {
	doAssert(!n.Absent())

	storage := n.tree.storage()
	depth := 0

	for idx := storage[n.idx].parent; idx != 0; idx = storage[idx].parent {
		depth++
	}

	return depth
}

func (n Node[K]) relative(idx uint32) Node[K] {
	if idx == 0 {
		return Node[K]{}
	}

	return Node[K]{tree: n.tree, idx: idx}
}
