// Package operator maps operator names used in scripts and on the command
// line to int64 monoids.
package operator

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/Sumatoshi-tech/rangeagg/pkg/alg/segtree"
)

// ErrUnknownOperator is returned by Lookup for a name with no registered monoid.
var ErrUnknownOperator = errors.New("operator: unknown operator")

// Supported operator names.
const (
	NameMin     = "min"
	NameMax     = "max"
	NameSum     = "sum"
	NameProduct = "product"
	NameXor     = "xor"
)

var registry = map[string]func() segtree.Monoid[int64]{
	NameMin:     func() segtree.Monoid[int64] { return segtree.Min[int64](math.MaxInt64) },
	NameMax:     func() segtree.Monoid[int64] { return segtree.Max[int64](math.MinInt64) },
	NameSum:     segtree.Sum[int64],
	NameProduct: segtree.Product[int64],
	NameXor:     segtree.Xor[int64],
}

// Lookup returns the monoid registered under name. Matching is case-insensitive.
func Lookup(name string) (segtree.Monoid[int64], error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return segtree.Monoid[int64]{}, fmt.Errorf("%w: %q (want one of %s)",
			ErrUnknownOperator, name, strings.Join(Names(), ", "))
	}

	return build(), nil
}

// Names returns the registered operator names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}
