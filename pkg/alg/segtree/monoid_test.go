package segtree_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/rangeagg/pkg/alg/segtree"
)

// identitySamples are values every shipped int64 monoid must absorb the identity against.
var identitySamples = []int64{0, 1, -1, 42, -9000, math.MaxInt32, math.MinInt32}

func TestMonoids_IdentityAbsorption(t *testing.T) {
	t.Parallel()

	monoids := map[string]segtree.Monoid[int64]{
		"min":     segtree.Min[int64](math.MaxInt64),
		"max":     segtree.Max[int64](math.MinInt64),
		"sum":     segtree.Sum[int64](),
		"product": segtree.Product[int64](),
		"xor":     segtree.Xor[int64](),
	}

	for name, m := range monoids {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for _, x := range identitySamples {
				assert.Equal(t, x, m.Combine(m.Identity, x), "left identity for %d", x)
				assert.Equal(t, x, m.Combine(x, m.Identity), "right identity for %d", x)
			}
		})
	}
}

func TestMonoids_Combine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, segtree.Min(math.MaxInt).Combine(3, 7))
	assert.Equal(t, 7, segtree.Max(math.MinInt).Combine(3, 7))
	assert.Equal(t, 10, segtree.Sum[int]().Combine(3, 7))
	assert.Equal(t, 21, segtree.Product[int]().Combine(3, 7))
	assert.Equal(t, 4, segtree.Xor[int]().Combine(3, 7))
	assert.InDelta(t, 1.5, segtree.Sum[float64]().Combine(1, 0.5), 0)
	assert.Equal(t, "a", segtree.Min("~").Combine("b", "a"))
}

func TestFold(t *testing.T) {
	t.Parallel()

	values := segtree.Slice[int]{4, 8, 15, 16, 23, 42}

	assert.Equal(t, 108, segtree.Fold(segtree.Sum[int](), values))
	assert.Equal(t, 4, segtree.Fold(segtree.Min(math.MaxInt), values))
	assert.Equal(t, 1, segtree.Fold(segtree.Product[int](), segtree.Slice[int]{}))
}

func TestSlice_Sequence(t *testing.T) {
	t.Parallel()

	s := segtree.Slice[string]{"x", "y", "z"}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "y", s.At(1))

	var seen []string

	for i, v := range s.All() {
		assert.Equal(t, s.At(i), v)

		seen = append(seen, v)
	}

	assert.Equal(t, []string{"x", "y", "z"}, seen)
}
