// Package render writes script reports and metric samples as tables, JSON
// or YAML.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/rangeagg/internal/script"
	"github.com/Sumatoshi-tech/rangeagg/pkg/observability"
)

// ErrUnknownFormat is returned for an output format render does not support.
var ErrUnknownFormat = errors.New("render: unknown format")

// Formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
	noValue      = "-"
)

// Options controls rendering.
type Options struct {
	Format string
	Color  bool
}

// Report writes rep in the configured format.
func Report(w io.Writer, rep *script.Report, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case FormatTable, "":
		return reportTable(w, rep, opts.Color)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()

		return enc.Encode(rep)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

func reportTable(w io.Writer, rep *script.Report, useColor bool) error {
	_, err := fmt.Fprintf(w, "%s tree: size %s, capacity %s, %s nodes (%s)\n",
		rep.Operator,
		humanize.Comma(int64(rep.Size)),
		humanize.Comma(int64(rep.Capacity)),
		humanize.Comma(int64(rep.Nodes)),
		humanize.IBytes(rep.StorageBytes),
	)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	ok := painter(useColor, color.FgGreen)
	failed := painter(useColor, color.FgRed)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Op", "Args", "Value", "Status"})

	for _, step := range rep.Steps {
		value := noValue
		if step.Value != nil {
			value = humanize.Comma(*step.Value)
		}

		status := ok(statusOK)
		if step.Error != "" {
			status = failed(statusFailed + ": " + step.Error)
		}

		tw.AppendRow(table.Row{step.Index, step.Kind, step.Args, value, status})
	}

	tw.AppendFooter(table.Row{"", "", "", "failed", len(rep.Failed())})
	tw.Render()

	return nil
}

// Metrics writes gathered samples as a table, one row per series.
func Metrics(w io.Writer, samples []observability.Sample) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Metric", "Labels", "Value"})

	for _, s := range samples {
		tw.AppendRow(table.Row{s.Name, s.LabelString(), humanize.Ftoa(s.Value)})
	}

	tw.Render()
}

func painter(enabled bool, attr color.Attribute) func(string) string {
	if !enabled {
		return func(s string) string { return s }
	}

	c := color.New(attr)
	c.EnableColor()

	return func(s string) string { return c.Sprint(s) }
}
