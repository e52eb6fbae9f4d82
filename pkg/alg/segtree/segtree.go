// Package segtree provides a generic segment tree for range aggregation with
// point updates.
//
// The tree is stored pointer-free in a slice of 2*capacity-1 nodes, where
// capacity is the smallest power of two covering the logical size. Node x has
// children 2x+1 and 2x+2 and caches the combination of its subtree under the
// tree's [Monoid]. Queries take half-open ranges [l, r); both Query and Update
// run in O(log capacity), Build in O(capacity).
//
// A Tree is not safe for concurrent use.
package segtree

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrNegativeSize is returned when a tree is requested for a negative size.
	ErrNegativeSize = errors.New("segtree: size must not be negative")

	// ErrNilCombine is returned when the monoid has no combine function.
	ErrNilCombine = errors.New("segtree: combine function must not be nil")

	// ErrCapacityOverflow is returned when the size exceeds MaxCapacity.
	ErrCapacityOverflow = errors.New("segtree: size exceeds maximum capacity")

	// ErrLengthExceedsCapacity is returned when Build receives more values than the tree holds.
	ErrLengthExceedsCapacity = errors.New("segtree: input length exceeds capacity")

	// ErrIndexOutOfRange is returned when Update or Get addresses a slot outside [0, capacity).
	ErrIndexOutOfRange = errors.New("segtree: index out of range")

	// ErrInvalidRange is returned when a query range is not within [0, capacity] or l > r.
	ErrInvalidRange = errors.New("segtree: invalid range")
)

// MaxCapacity is the largest logical size a Tree accepts. Its storage holds
// 2*MaxCapacity-1 nodes, which still fits in a 32-bit int.
const MaxCapacity = 1 << 30

// root is the storage index of the node covering [0, capacity).
const root = 0

// Tree is a segment tree over a fixed number of slots.
type Tree[T any] struct {
	nodes    []T
	monoid   Monoid[T]
	size     int
	capacity int
}

// New creates a tree for n logical elements combined by m. Every slot starts
// at m.Identity, so an unbuilt tree answers every query with the identity.
// n == 0 is legal and yields a single-leaf tree.
func New[T any](n int, m Monoid[T]) (*Tree[T], error) {
	if m.Combine == nil {
		return nil, ErrNilCombine
	}

	capacity, err := capacityFor(n)
	if err != nil {
		return nil, err
	}

	t := &Tree[T]{
		nodes:    make([]T, 2*capacity-1),
		monoid:   m,
		size:     n,
		capacity: capacity,
	}
	t.Reset()

	return t, nil
}

// NodeCount returns the storage length of a tree built for n elements.
func NodeCount(n int) (int, error) {
	capacity, err := capacityFor(n)
	if err != nil {
		return 0, err
	}

	return 2*capacity - 1, nil
}

// capacityFor returns the smallest power of two >= max(n, 1).
func capacityFor(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeSize, n)
	}

	if n > MaxCapacity {
		return 0, fmt.Errorf("%w: %d > %d", ErrCapacityOverflow, n, MaxCapacity)
	}

	if n <= 1 {
		return 1, nil
	}

	return 1 << bits.Len(uint(n-1)), nil
}

// Len returns the logical size the tree was created for.
func (t *Tree[T]) Len() int {
	return t.size
}

// Capacity returns the number of leaves, a power of two >= Len.
func (t *Tree[T]) Capacity() int {
	return t.capacity
}

// Identity returns the identity element of the tree's monoid.
func (t *Tree[T]) Identity() T {
	return t.monoid.Identity
}

// Reset returns every slot to the identity element.
func (t *Tree[T]) Reset() {
	for i := range t.nodes {
		t.nodes[i] = t.monoid.Identity
	}
}

// Build populates the tree from values. Leaves past values.Len() are set to
// the identity, so rebuilding never mixes in stale data. A nil sequence
// resets the tree. The tree is left untouched on error.
func (t *Tree[T]) Build(values Sequence[T]) error {
	length := 0
	if values != nil {
		length = values.Len()
	}

	if length > t.capacity {
		return fmt.Errorf("%w: %d > %d", ErrLengthExceedsCapacity, length, t.capacity)
	}

	t.build(values, length, root, 0, t.capacity)

	return nil
}

// BuildSlice is Build for a plain slice.
func (t *Tree[T]) BuildSlice(values []T) error {
	return t.Build(Slice[T](values))
}

func (t *Tree[T]) build(values Sequence[T], length, x, lx, rx int) {
	if isLeaf(lx, rx) {
		if lx < length {
			t.nodes[x] = values.At(lx)
		} else {
			t.nodes[x] = t.monoid.Identity
		}

		return
	}

	m := midpoint(lx, rx)
	t.build(values, length, leftChild(x), lx, m)
	t.build(values, length, rightChild(x), m, rx)
	t.pull(x)
}

// Update sets slot i to v and recomputes its ancestors.
// Slots in [Len, Capacity) are padding but are not rejected.
func (t *Tree[T]) Update(i int, v T) error {
	if i < 0 || i >= t.capacity {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, t.capacity)
	}

	t.update(i, v, root, 0, t.capacity)

	return nil
}

func (t *Tree[T]) update(i int, v T, x, lx, rx int) {
	if isLeaf(lx, rx) {
		t.nodes[x] = v

		return
	}

	m := midpoint(lx, rx)
	if i < m {
		t.update(i, v, leftChild(x), lx, m)
	} else {
		t.update(i, v, rightChild(x), m, rx)
	}

	t.pull(x)
}

// Query returns the combination of the slots in [l, r).
// An empty range yields the identity.
func (t *Tree[T]) Query(l, r int) (T, error) {
	if l < 0 || l > r || r > t.capacity {
		var zero T

		return zero, fmt.Errorf("%w: [%d, %d) not within [0, %d]", ErrInvalidRange, l, r, t.capacity)
	}

	if l == r {
		return t.monoid.Identity, nil
	}

	return t.query(l, r, root, 0, t.capacity), nil
}

func (t *Tree[T]) query(l, r, x, lx, rx int) T {
	switch {
	case disjoint(lx, rx, l, r):
		return t.monoid.Identity
	case contains(l, r, lx, rx):
		return t.nodes[x]
	}

	m := midpoint(lx, rx)

	return t.monoid.Combine(
		t.query(l, r, leftChild(x), lx, m),
		t.query(l, r, rightChild(x), m, rx),
	)
}

// Get returns the value stored in slot i.
func (t *Tree[T]) Get(i int) (T, error) {
	if i < 0 || i >= t.capacity {
		var zero T

		return zero, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, t.capacity)
	}

	return t.nodes[t.leaf(i)], nil
}

// Values returns a copy of the first Len slots.
func (t *Tree[T]) Values() []T {
	out := make([]T, t.size)
	copy(out, t.nodes[t.leaf(0):])

	return out
}

// leaf maps slot i to its storage index. In a perfect tree the leaves are the
// last capacity nodes, in order.
func (t *Tree[T]) leaf(i int) int {
	return t.capacity - 1 + i
}

func (t *Tree[T]) pull(x int) {
	t.nodes[x] = t.monoid.Combine(t.nodes[leftChild(x)], t.nodes[rightChild(x)])
}

func leftChild(x int) int {
	return 2*x + 1
}

func rightChild(x int) int {
	return 2*x + 2
}

func midpoint(lx, rx int) int {
	return lx + (rx-lx)/2
}

func isLeaf(lx, rx int) bool {
	return rx-lx == 1
}

// disjoint reports whether node range [lx, rx) shares no slot with [l, r).
func disjoint(lx, rx, l, r int) bool {
	return lx >= r || l >= rx
}

// contains reports whether [l, r) covers node range [lx, rx) entirely.
func contains(l, r, lx, rx int) bool {
	return lx >= l && rx <= r
}
