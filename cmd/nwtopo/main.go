/*
Copyright 2022.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/telekom/das-schiff-network-topology/pkg/config"
	"github.com/telekom/das-schiff-network-topology/pkg/diagnostics"
	"github.com/telekom/das-schiff-network-topology/pkg/helpers/diff"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
	"github.com/telekom/das-schiff-network-topology/pkg/topology"
	"github.com/telekom/das-schiff-network-topology/pkg/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
	"sigs.k8s.io/yaml"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

type computeOptions struct {
	snapshot     string
	config       string
	output       string
	outputFile   string
	logFile      string
	verbose      bool
	printMetrics bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "nwtopo",
		Short:        "Infer network topologies from device configurations.",
		SilenceUsage: true,
	}
	root.AddCommand(newComputeCommand(), newDiffCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Run: func(cmd *cobra.Command, _ []string) {
			version.Get().Print(cmd.OutOrStdout(), "nwtopo")
		},
	}
}

func newDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show what changed between two computed results.",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runDiff(out io.Writer, oldFile, newFile string) error {
	origin, err := os.ReadFile(oldFile)
	if err != nil {
		return fmt.Errorf("error reading result: %w", err)
	}
	final, err := os.ReadFile(newFile)
	if err != nil {
		return fmt.Errorf("error reading result: %w", err)
	}
	removed, added, err := diff.Changes(origin, final)
	if err != nil {
		return fmt.Errorf("error comparing results: %w", err)
	}
	fmt.Fprintf(out, "--- removed\n%s+++ added\n%s", removed, added)
	return nil
}

func newComputeCommand() *cobra.Command {
	opts := &computeOptions{}
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute layer 1, layer 2 and layer 3 topologies and IP owners of a snapshot.",
		Long: `compute reads a snapshot of normalized device configurations and the
known physical wiring, derives the broadcast domains, the layer 3 adjacencies
and the owners of every IP address, and writes the result as YAML or JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompute(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.snapshot, "snapshot", "", "Snapshot file to compute topologies for.")
	flags.StringVar(&opts.config, "config", "", "Config file (default: $NWTOPO_CONFIG or /etc/nwtopo/config.yaml).")
	flags.StringVarP(&opts.output, "output", "o", outputYAML, "Output format, yaml or json.")
	flags.StringVar(&opts.outputFile, "output-file", "", "Write the result to this file instead of stdout.")
	flags.StringVar(&opts.logFile, "log-file", "", "Additionally write logs to this rotated file.")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug messages.")
	flags.BoolVar(&opts.printMetrics, "print-metrics", false, "Print the collected metrics to stderr when done.")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if path == "" && os.Getenv("NWTOPO_CONFIG") == "" && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("error loading config: %w", err)
}

func newLogger(cfg *config.LoggingConfig, logFile string, verbose bool) (logr.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return logr.Discard(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	z, err := zc.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("error building logger: %w", err)
	}

	if logFile == "" {
		logFile = cfg.File
	}
	if logFile != "" {
		lumberjackLogger := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zc.EncoderConfig), zapcore.AddSync(lumberjackLogger), zc.Level)
		z = z.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}
	return zapr.NewLogger(z), nil
}

func runCompute(ctx context.Context, out io.Writer, opts *computeOptions) error {
	if opts.output != outputYAML && opts.output != outputJSON {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	log, err := newLogger(&cfg.Logging, opts.logFile, opts.verbose)
	if err != nil {
		return err
	}
	ctrl.SetLogger(log)
	setupLog := ctrl.Log.WithName("setup")
	setupLog.Info("starting", "version", version.Get().String(), "parallelism", cfg.Parallelism)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot, err := model.LoadSnapshot(opts.snapshot)
	if err != nil {
		setupLog.Error(err, "unable to load snapshot", "file", opts.snapshot)
		return fmt.Errorf("error loading snapshot: %w", err)
	}

	engine := topology.NewEngine(cfg, diagnostics.NewLogSink(ctrl.Log.WithName("anomalies")), ctrl.Log)
	result, err := engine.Compute(ctx, snapshot)
	if err != nil {
		setupLog.Error(err, "unable to compute topology")
		return fmt.Errorf("error computing topology: %w", err)
	}

	data, err := topology.Marshal(result)
	if err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	if opts.output == outputJSON {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return fmt.Errorf("error converting result to json: %w", err)
		}
	}

	if opts.outputFile != "" {
		if err := os.WriteFile(opts.outputFile, data, 0o600); err != nil { //nolint:mnd
			return fmt.Errorf("error writing result: %w", err)
		}
		setupLog.Info("result written", "file", opts.outputFile)
	} else if _, err := out.Write(data); err != nil {
		return fmt.Errorf("error writing result: %w", err)
	}

	if opts.printMetrics {
		if err := printMetrics(os.Stderr); err != nil {
			return err
		}
	}
	return nil
}

func printMetrics(w io.Writer) error {
	families, err := metrics.Registry.Gather()
	if err != nil {
		return fmt.Errorf("error gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("error writing metrics: %w", err)
		}
	}
	return nil
}
