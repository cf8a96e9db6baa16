package rbtree

import (
	"cmp"
	"errors"
	"fmt"
)

// Invariant violations reported by Validate.
var (
	ErrRedRoot      = errors.New("root is red")
	ErrRedViolation = errors.New("red node has a red parent")
	ErrBlackHeight  = errors.New("black height differs between paths")
	ErrOrder        = errors.New("in-order sequence is not sorted")
	ErrBrokenLink   = errors.New("child and parent links disagree")
	ErrCount        = errors.New("node count mismatch")
)

// Validate checks every red-black invariant and the search-tree order. It
// walks the whole tree and is meant for tests and debug runs.
//
// Equal keys may end up on both sides of each other after rotations, so the
// order check requires a non-decreasing in-order sequence.
func (tree *Tree[K]) Validate() error {
	if tree.root == 0 {
		if tree.count != 0 {
			return fmt.Errorf("%w: empty tree counts %d nodes", ErrCount, tree.count)
		}

		return nil
	}

	storage := tree.storage()

	if storage[tree.root].parent != 0 {
		return fmt.Errorf("%w: root has parent #%d", ErrBrokenLink, storage[tree.root].parent)
	}

	if storage[tree.root].color == Red {
		return ErrRedRoot
	}

	checker := &invariantChecker[K]{storage: storage, limit: len(storage)}

	_, err := checker.walk(tree.root)
	if err != nil {
		return err
	}

	if checker.visited != tree.count {
		return fmt.Errorf("%w: reached %d nodes, tree counts %d", ErrCount, checker.visited, tree.count)
	}

	var (
		prev    K
		started bool
	)

	for key := range tree.All() {
		if started && cmp.Less(key, prev) {
			return fmt.Errorf("%w: %v after %v", ErrOrder, key, prev)
		}

		prev, started = key, true
	}

	return nil
}

type invariantChecker[K cmp.Ordered] struct {
	storage []node[K]
	visited int
	limit   int
}

// walk returns the number of black nodes between nodeIdx (inclusive) and any
// absent child below it.
func (checker *invariantChecker[K]) walk(nodeIdx uint32) (int, error) {
	if nodeIdx == 0 {
		return 0, nil
	}

	checker.visited++
	if checker.visited > checker.limit {
		return 0, fmt.Errorf("%w: cycle through #%d", ErrBrokenLink, nodeIdx)
	}

	nd := &checker.storage[nodeIdx]
	heights := [2]int{}

	for dir, child := range nd.children {
		if child == 0 {
			continue
		}

		if checker.storage[child].parent != nodeIdx {
			return 0, fmt.Errorf("%w: #%d is not the parent of #%d", ErrBrokenLink, nodeIdx, child)
		}

		if nd.color == Red && checker.storage[child].color == Red {
			return 0, fmt.Errorf("%w: %v under %v", ErrRedViolation, checker.storage[child].key, nd.key)
		}

		height, err := checker.walk(child)
		if err != nil {
			return 0, err
		}

		heights[dir] = height
	}

	if heights[Left] != heights[Right] {
		return 0, fmt.Errorf("%w: %d left, %d right below %v", ErrBlackHeight, heights[Left], heights[Right], nd.key)
	}

	if nd.color == Black {
		return heights[Left] + 1, nil
	}

	return heights[Left], nil
}
