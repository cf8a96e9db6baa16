package rbtree

import (
	"cmp"
	"iter"
)

// Read-only helpers. None of them changes colors or links.

// Root returns the root node, absent for an empty tree.
func (tree *Tree[K]) Root() Node[K] {
	if tree.root == 0 {
		return Node[K]{}
	}

	return Node[K]{tree: tree, idx: tree.root}
}

// Contains reports whether an equal key is stored in the tree.
func (tree *Tree[K]) Contains(key K) bool {
	return !tree.Find(key).Absent()
}

// Find returns the first node holding key on the search path, or an absent node.
func (tree *Tree[K]) Find(key K) Node[K] {
	if tree.root == 0 {
		return Node[K]{}
	}

	storage := tree.storage()

	for cursor := tree.root; cursor != 0; {
		switch comp := cmp.Compare(key, storage[cursor].key); {
		case comp == 0:
			return Node[K]{tree: tree, idx: cursor}
		case comp < 0:
			cursor = storage[cursor].children[Left]
		default:
			cursor = storage[cursor].children[Right]
		}
	}

	return Node[K]{}
}

// Min returns the node with the smallest key.
func (tree *Tree[K]) Min() Node[K] {
	return tree.extreme(Left)
}

// Max returns the node with the largest key.
func (tree *Tree[K]) Max() Node[K] {
	return tree.extreme(Right)
}

func (tree *Tree[K]) extreme(dir Direction) Node[K] {
	if tree.root == 0 {
		return Node[K]{}
	}

	return Node[K]{tree: tree, idx: outermost(tree.root, dir, tree.storage())}
}

// All returns an in-order iterator over the keys. Equal keys come out in
// insertion order. The tree must not be modified during iteration.
func (tree *Tree[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		if tree.root == 0 {
			return
		}

		storage := tree.storage()

		for cursor := outermost(tree.root, Left, storage); cursor != 0; cursor = doNext(cursor, storage) {
			if !yield(storage[cursor].key) {
				return
			}
		}
	}
}

// Keys collects the in-order key sequence.
func (tree *Tree[K]) Keys() []K {
	keys := make([]K, 0, tree.count)

	for key := range tree.All() {
		keys = append(keys, key)
	}

	return keys
}

// Height returns the number of edges on the longest root-to-leaf path.
// Empty and single-node trees have height 0.
func (tree *Tree[K]) Height() int {
	if tree.root == 0 {
		return 0
	}

	return nodeHeight(tree.root, tree.storage()) - 1
}

// BlackHeight returns the number of black nodes on any path from the root down
// to an absent child, not counting the root itself.
func (tree *Tree[K]) BlackHeight() int {
	if tree.root == 0 {
		return 0
	}

	storage := tree.storage()
	blacks := 0

	for cursor := storage[tree.root].children[Left]; cursor != 0; cursor = storage[cursor].children[Left] {
		if storage[cursor].color == Black {
			blacks++
		}
	}

	return blacks
}

func nodeHeight[K cmp.Ordered](nodeIdx uint32, storage []node[K]) int {
	if nodeIdx == 0 {
		return 0
	}

	return 1 + max(
		nodeHeight(storage[nodeIdx].children[Left], storage),
		nodeHeight(storage[nodeIdx].children[Right], storage),
	)
}

func outermost[K cmp.Ordered](nodeIdx uint32, dir Direction, storage []node[K]) uint32 {
	for storage[nodeIdx].children[dir] != 0 {
		nodeIdx = storage[nodeIdx].children[dir]
	}

	return nodeIdx
}

// Return the in-order successor of nodeIdx, 0 if there is none.
func doNext[K cmp.Ordered](nodeIdx uint32, storage []node[K]) uint32 {
	if right := storage[nodeIdx].children[Right]; right != 0 {
		return outermost(right, Left, storage)
	}

	for {
		parentIdx := storage[nodeIdx].parent
		if parentIdx == 0 {
			return 0
		}

		if childSide(nodeIdx, storage) == Left {
			return parentIdx
		}

		nodeIdx = parentIdx
	}
}
