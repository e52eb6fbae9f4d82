package segtree

import "golang.org/x/exp/constraints"

// Monoid pairs an associative combine function with its identity element.
// Combine(Identity, x) and Combine(x, Identity) must both equal x for every
// value stored in a tree; associativity is assumed, not checked.
type Monoid[T any] struct {
	Combine  func(a, b T) T
	Identity T
}

// Number is the set of types Sum and Product operate on.
type Number interface {
	constraints.Integer | constraints.Float
}

// Min returns the minimum monoid. top must be >= every value the tree will
// hold, e.g. math.MaxInt64 or math.Inf(1).
func Min[T constraints.Ordered](top T) Monoid[T] {
	return Monoid[T]{
		Combine: func(a, b T) T {
			if b < a {
				return b
			}

			return a
		},
		Identity: top,
	}
}

// Max returns the maximum monoid. bottom must be <= every value the tree
// will hold.
func Max[T constraints.Ordered](bottom T) Monoid[T] {
	return Monoid[T]{
		Combine: func(a, b T) T {
			if b > a {
				return b
			}

			return a
		},
		Identity: bottom,
	}
}

// Sum returns the additive monoid with identity 0.
func Sum[T Number]() Monoid[T] {
	return Monoid[T]{
		Combine: func(a, b T) T { return a + b },
	}
}

// Product returns the multiplicative monoid with identity 1.
func Product[T Number]() Monoid[T] {
	return Monoid[T]{
		Combine:  func(a, b T) T { return a * b },
		Identity: 1,
	}
}

// Xor returns the bitwise exclusive-or monoid with identity 0.
func Xor[T constraints.Integer]() Monoid[T] {
	return Monoid[T]{
		Combine: func(a, b T) T { return a ^ b },
	}
}

// Fold combines values left to right, starting from the identity.
func Fold[T any](m Monoid[T], values Sequence[T]) T {
	acc := m.Identity

	for _, v := range values.All() {
		acc = m.Combine(acc, v)
	}

	return acc
}
