package segtree

import (
	"iter"
	"slices"
)

// Sequence is the read-only input consumed by Build: ordered, indexable and
// iterable. Build never retains it.
type Sequence[T any] interface {
	Len() int
	At(i int) T
	All() iter.Seq2[int, T]
}

// Slice adapts a Go slice to Sequence.
type Slice[T any] []T

// Len returns the number of elements.
func (s Slice[T]) Len() int {
	return len(s)
}

// At returns the element at index i.
func (s Slice[T]) At(i int) T {
	return s[i]
}

// All iterates over index/value pairs in order.
func (s Slice[T]) All() iter.Seq2[int, T] {
	return slices.All(s)
}
