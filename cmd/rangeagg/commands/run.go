package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rangeagg/internal/config"
	"github.com/Sumatoshi-tech/rangeagg/internal/render"
	"github.com/Sumatoshi-tech/rangeagg/internal/script"
	"github.com/Sumatoshi-tech/rangeagg/pkg/observability"
	"github.com/Sumatoshi-tech/rangeagg/pkg/version"
)

const (
	runCmdUse   = "run <script.yaml|->"
	runCmdShort = "Build a tree from a script and execute its steps"
	stdinArg    = "-"
)

// RunCommand holds the flags of the run subcommand.
type RunCommand struct {
	globals   *Globals
	format    string
	noColor   bool
	metrics   bool
	keepGoing bool
}

// NewRunCommand creates the run subcommand.
func NewRunCommand(globals *Globals) *cobra.Command {
	if globals == nil {
		globals = &Globals{}
	}

	rc := &RunCommand{globals: globals}

	cmd := &cobra.Command{
		Use:   runCmdUse,
		Short: runCmdShort,
		Long: `Decode a YAML or JSON script, validate it against the script schema,
build the tree it describes and execute its query, update and get steps.
Use "-" to read the script from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.format, "format", "", "Output format: table, json, yaml (default from config)")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored table output")
	cmd.Flags().BoolVar(&rc.metrics, "metrics", false, "Print operation metrics after the report")
	cmd.Flags().BoolVar(&rc.keepGoing, "keep-going", false, "Record failing steps and continue")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := config.LoadConfig(rc.globals.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	maxMemory, err := cfg.MaxMemoryBytes()
	if err != nil {
		return err
	}

	obsCfg := cfg.Observability(version.Version)
	obsCfg.LogLevel = rc.logLevel(obsCfg.LogLevel)

	var registry *prometheus.Registry
	if rc.metrics {
		registry = prometheus.NewRegistry()
		obsCfg.PrometheusRegistry = registry
	}

	providers, err := observability.InitWithWriter(obsCfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		err = errors.Join(err, providers.Shutdown(context.WithoutCancel(cmdContext(cmd))))
	}()

	s, err := readScript(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	opMetrics, err := observability.NewOpMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	runner := script.NewRunner(
		script.WithTracer(providers.Tracer),
		script.WithMetrics(opMetrics),
		script.WithLogger(providers.Logger),
		script.WithMaxMemory(maxMemory),
		script.WithKeepGoing(rc.keepGoing),
	)

	report, runErr := runner.Run(cmdContext(cmd), s)

	if report != nil && !rc.globals.Quiet {
		renderErr := render.Report(cmd.OutOrStdout(), report, rc.renderOptions(cfg))
		if renderErr != nil {
			return errors.Join(runErr, fmt.Errorf("render report: %w", renderErr))
		}
	}

	if registry != nil && !rc.globals.Quiet {
		samples, gatherErr := observability.GatherSamples(registry)
		if gatherErr != nil {
			return errors.Join(runErr, fmt.Errorf("gather metrics: %w", gatherErr))
		}

		render.Metrics(cmd.OutOrStdout(), samples)
	}

	return runErr
}

func (rc *RunCommand) logLevel(configured slog.Level) slog.Level {
	switch {
	case rc.globals.Quiet:
		return slog.LevelError
	case rc.globals.Verbose:
		return slog.LevelDebug
	default:
		return configured
	}
}

func (rc *RunCommand) renderOptions(cfg *config.Config) render.Options {
	format := cfg.Output.Format
	if rc.format != "" {
		format = rc.format
	}

	return render.Options{
		Format: format,
		Color:  cfg.Output.Color && !rc.noColor && !color.NoColor,
	}
}

func readScript(stdin io.Reader, path string) (*script.Script, error) {
	if path == stdinArg {
		return script.Decode(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	return script.Decode(f)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
