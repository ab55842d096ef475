// Command txledger applies a CSV file of client operations and prints the
// resulting account table.
//
//	txledger [flags] transactions.csv > accounts.csv
//
// With no file argument, or "-", operations are read from stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/xraph/txledger"
	"github.com/xraph/txledger/config"
	"github.com/xraph/txledger/ingest"
	"github.com/xraph/txledger/observability"
	"github.com/xraph/txledger/snapshot"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("txledger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: txledger [flags] [transactions.csv|-]")
		fs.PrintDefaults()
	}

	var (
		configPath string
		flags      config.Config
	)
	fs.StringVar(&configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&flags.LockPolicy, "lock-policy", "", "operations a locked account rejects: funding or all")
	fs.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&flags.LogFormat, "log-format", "", "json or console")
	fs.BoolVar(&flags.Metrics, "metrics", false, "collect metrics and log them at the end of the run")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	var fileCfg config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitError
		}
		fileCfg = loaded
	}

	cfg := config.Merge(fileCfg, flags)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "txledger: invalid configuration:", err)
		var multi txledger.MultiError
		if errors.As(err, &multi) && len(multi.Errors) > 1 {
			for _, e := range multi.Errors {
				fmt.Fprintln(stderr, "  -", e)
			}
		}
		return exitError
	}

	logger, syncLogger, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer func() { _ = syncLogger() }() //nolint:errcheck // stderr sync errors are not actionable

	input, closeInput, err := openInput(fs.Arg(0), stdin)
	if err != nil {
		logger.Error("failed to open input", "error", err)
		return exitError
	}
	defer closeInput()

	opts := append(cfg.Options(), txledger.WithLogger(logger))

	var reader *sdkmetric.ManualReader
	if cfg.Metrics {
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = provider.Shutdown(context.Background()) }() //nolint:errcheck // best-effort shutdown

		factory, ferr := observability.NewOTelFactory(provider.Meter("github.com/xraph/txledger"))
		if ferr != nil {
			logger.Error("failed to create metrics", "error", ferr)
			return exitError
		}
		opts = append(opts, txledger.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	l := txledger.New(opts...)
	l.Start(ctx)
	defer l.Stop(context.Background())

	pipeline := ingest.NewPipeline(l,
		ingest.WithLogger(logger),
		ingest.WithBuffer(cfg.PipelineBuffer),
	)
	if _, err := pipeline.Run(ctx, input); err != nil {
		logger.Error("run failed", "error", err)
		return exitError
	}

	records, err := l.Snapshot(ctx)
	if err != nil {
		logger.Error("snapshot failed", "error", err)
		return exitError
	}
	if err := snapshot.WriteCSV(stdout, records); err != nil {
		logger.Error("failed to write output", "error", err)
		return exitError
	}

	if reader != nil {
		logMetrics(ctx, logger, reader)
	}

	return exitOK
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func logMetrics(ctx context.Context, logger *slog.Logger, reader *sdkmetric.ManualReader) {
	points, err := observability.Collect(ctx, reader)
	if err != nil {
		logger.Warn("failed to collect metrics", "error", err)
		return
	}

	for _, p := range points {
		attrs := []any{"name", p.Name, "value", p.Value}
		if p.Attrs != "" {
			attrs = append(attrs, "attributes", p.Attrs)
		}
		if p.Count > 0 {
			attrs = append(attrs, "count", p.Count)
		}
		logger.Info("metric", attrs...)
	}
}
