package rbtree

import (
	"cmp"
	"errors"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

// ErrColumnLength is returned when a hibernated column does not restore to the arena length.
var ErrColumnLength = errors.New("hibernated column length mismatch")

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// Hibernated columns, one per deinterleaved node field.
const (
	columnLeft = iota
	columnRight
	columnParent
	columnColor
	hibernatedColumns
)

// Allocator is the arena of tree nodes. Node #0 is reserved as the absent node.
//
// Nodes are never freed: trees built on an Allocator only grow.
type Allocator[K cmp.Ordered] struct {
	storage              []node[K]
	hibernatedKeys       []K
	hibernatedData       [hibernatedColumns][]byte
	HibernationThreshold int
	hibernatedStorageLen int
}

// NewAllocator creates a new allocator for tree nodes.
func NewAllocator[K cmp.Ordered]() *Allocator[K] {
	return &Allocator[K]{storage: []node[K]{}}
}

// Size returns the currently allocated size, including the reserved node.
func (allocator *Allocator[K]) Size() int {
	if allocator.storage == nil {
		return allocator.hibernatedStorageLen
	}

	return len(allocator.storage)
}

// Used returns the number of nodes handed out to trees.
func (allocator *Allocator[K]) Used() int {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if len(allocator.storage) == 0 {
		return 0
	}

	return len(allocator.storage) - 1
}

// Hibernated reports whether the arena is currently compressed.
func (allocator *Allocator[K]) Hibernated() bool {
	return allocator.storage == nil
}

// HibernatedBytes returns the compressed size of the link columns.
func (allocator *Allocator[K]) HibernatedBytes() int {
	total := 0

	for _, column := range allocator.hibernatedData {
		total += len(column)
	}

	return total
}

// Clone copies the allocator. A tree cloned with [Tree.Clone] refers to the copy.
func (allocator *Allocator[K]) Clone() *Allocator[K] {
	if allocator.storage == nil {
		panic("cannot clone a hibernated allocator")
	}

	clone := &Allocator[K]{
		HibernationThreshold: allocator.HibernationThreshold,
		storage:              make([]node[K], len(allocator.storage), cap(allocator.storage)),
	}
	copy(clone.storage, allocator.storage)

	return clone
}

// Hibernate compresses the node links. Keys are kept aside uncompressed.
// Arenas smaller than HibernationThreshold are left alone.
func (allocator *Allocator[K]) Hibernate() error {
	if allocator.hibernatedStorageLen > 0 {
		panic("cannot hibernate an already hibernated Allocator")
	}

	if len(allocator.storage) < allocator.HibernationThreshold {
		return nil
	}

	allocator.hibernatedStorageLen = len(allocator.storage)
	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = nil

		return nil
	}

	buffers := [hibernatedColumns][]uint32{}

	for idx := range buffers {
		buffers[idx] = make([]uint32, len(allocator.storage))
	}

	keys := make([]K, len(allocator.storage))

	// We deinterleave to achieve a better compression ratio.
	for idx, nd := range allocator.storage {
		keys[idx] = nd.key
		buffers[columnLeft][idx] = nd.children[Left]
		buffers[columnRight][idx] = nd.children[Right]
		buffers[columnParent][idx] = nd.parent

		if nd.color == Black {
			buffers[columnColor][idx] = 1
		}
	}

	// Nodes allocated together tend to share parents.
	DeltaEncodeUInt32Slice(buffers[columnParent])

	compressed := [hibernatedColumns][]byte{}
	errs := [hibernatedColumns]error{}

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers))

	for idx, buffer := range buffers {
		go func(colIdx int, col []uint32) {
			defer wg.Done()

			compressed[colIdx], errs[colIdx] = CompressUInt32Slice(col)
		}(idx, buffer)
	}

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		allocator.hibernatedStorageLen = 0

		return fmt.Errorf("hibernate: %w", err)
	}

	allocator.hibernatedKeys = keys
	allocator.hibernatedData = compressed
	allocator.storage = nil

	return nil
}

// Boot performs the opposite of Hibernate() - decompresses and restores the arena.
func (allocator *Allocator[K]) Boot() error {
	if allocator.storage == nil && allocator.hibernatedStorageLen == 0 {
		allocator.storage = []node[K]{}

		return nil
	}

	if allocator.hibernatedStorageLen == 0 {
		// Not hibernated.
		return nil
	}

	buffers := [hibernatedColumns][]uint32{}
	errs := [hibernatedColumns]error{}

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers))

	for idx := range buffers {
		go func(colIdx int) {
			defer wg.Done()

			buffers[colIdx] = make([]uint32, allocator.hibernatedStorageLen)
			errs[colIdx] = DecompressUInt32Slice(allocator.hibernatedData[colIdx], buffers[colIdx])
		}(idx)
	}

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	DeltaDecodeUInt32Slice(buffers[columnParent])

	if len(allocator.hibernatedKeys) != allocator.hibernatedStorageLen {
		return fmt.Errorf("boot: %w: %d keys for %d nodes",
			ErrColumnLength, len(allocator.hibernatedKeys), allocator.hibernatedStorageLen)
	}

	capSize := (allocator.hibernatedStorageLen * growCapacityNumerator) / growCapacityDenominator
	allocator.storage = make([]node[K], allocator.hibernatedStorageLen, capSize)

	for idx := range allocator.storage {
		nd := &allocator.storage[idx]
		nd.key = allocator.hibernatedKeys[idx]
		nd.children[Left] = buffers[columnLeft][idx]
		nd.children[Right] = buffers[columnRight][idx]
		nd.parent = buffers[columnParent][idx]
		nd.color = Color(buffers[columnColor][idx] > 0)
	}

	allocator.hibernatedKeys = nil
	allocator.hibernatedData = [hibernatedColumns][]byte{}
	allocator.hibernatedStorageLen = 0

	return nil
}

// malloc appends a red childless node and returns its index.
func (allocator *Allocator[K]) malloc(key K, parent uint32) uint32 {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if len(allocator.storage) == 0 {
		// Zero is reserved.
		allocator.storage = append(allocator.storage, node[K]{color: Black})
	}

	nodeIdx := safeconv.MustIntToUint32(len(allocator.storage))
	allocator.storage = append(allocator.storage, node[K]{key: key, parent: parent, color: Red})

	return nodeIdx
}
