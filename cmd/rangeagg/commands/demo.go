package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rangeagg/internal/operator"
	"github.com/Sumatoshi-tech/rangeagg/pkg/alg/segtree"
)

const (
	demoLeft        = 3
	demoRight       = 7
	demoUpdateIndex = 4
	demoUpdateValue = 1000
)

// demoValues is the sequence every demo tree is built from.
var demoValues = []int64{56, 34, 12, 664, 53, 65}

// NewDemoCommand creates the demo subcommand.
func NewDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Build min, max and sum trees over a fixed sequence and query them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}
}

func runDemo(w io.Writer) error {
	fmt.Fprintf(w, "values: %v\n", demoValues)

	for _, name := range []string{operator.NameMin, operator.NameMax, operator.NameSum} {
		tree, err := demoTree(name)
		if err != nil {
			return err
		}

		got, err := tree.Query(demoLeft, demoRight)
		if err != nil {
			return fmt.Errorf("%s query: %w", name, err)
		}

		fmt.Fprintf(w, "%s [%d, %d) = %d\n", name, demoLeft, demoRight, got)
	}

	tree, err := demoTree(operator.NameSum)
	if err != nil {
		return err
	}

	err = tree.Update(demoUpdateIndex, demoUpdateValue)
	if err != nil {
		return fmt.Errorf("sum update: %w", err)
	}

	got, err := tree.Query(demoLeft, demoRight)
	if err != nil {
		return fmt.Errorf("sum query: %w", err)
	}

	fmt.Fprintf(w, "sum [%d, %d) after %d = %d: %d\n", demoLeft, demoRight, demoUpdateIndex, demoUpdateValue, got)

	return nil
}

func demoTree(name string) (*segtree.Tree[int64], error) {
	m, err := operator.Lookup(name)
	if err != nil {
		return nil, err
	}

	tree, err := segtree.New(len(demoValues), m)
	if err != nil {
		return nil, fmt.Errorf("%s tree: %w", name, err)
	}

	err = tree.BuildSlice(demoValues)
	if err != nil {
		return nil, fmt.Errorf("%s build: %w", name, err)
	}

	return tree, nil
}
