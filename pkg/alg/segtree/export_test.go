package segtree

// Exported aliases for internal helpers, used by segtree_test.
var (
	Disjoint = disjoint
	Contains = contains
	Midpoint = midpoint
)

// Nodes returns a copy of the raw storage.
func (t *Tree[T]) Nodes() []T {
	out := make([]T, len(t.nodes))
	copy(out, t.nodes)

	return out
}
