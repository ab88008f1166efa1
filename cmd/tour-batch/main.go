// cmd/tour-batch/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"places-workers/internal/app"
	"places-workers/internal/batch"
	"places-workers/internal/common/config"
	"places-workers/internal/common/database"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/places"
	"places-workers/internal/export"
)

type options struct {
	citiesPath   string
	keywordsPath string
	mode         string
	endpoint     string
	configPath   string
	pacing       string
	interval     time.Duration
	outPath      string
	logLevel     string
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("tour-batch", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.citiesPath, "cities", "", "File with one city per line (required)")
	fs.StringVar(&opts.keywordsPath, "keywords", "", "File with one keyword group per line (required)")
	fs.StringVar(&opts.mode, "mode", "remote", "remote: call a running API; local: query the places directory in-process")
	fs.StringVar(&opts.endpoint, "endpoint", "http://localhost:8080/api/tours", "Aggregation endpoint for remote mode")
	fs.StringVar(&opts.configPath, "config", "", "Config file for local mode (default: configs/config.yaml lookup)")
	fs.StringVar(&opts.pacing, "pacing", "fixed", "Pacing between units in remote mode: fixed, token_bucket or none")
	fs.DurationVar(&opts.interval, "interval", batch.DefaultInterval, "Pacing interval in remote mode")
	fs.StringVar(&opts.outPath, "out", export.FileName, "Output spreadsheet path")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.citiesPath == "" || opts.keywordsPath == "" {
		fs.Usage()
		return nil, errors.New("both -cities and -keywords are required")
	}
	if opts.mode != "remote" && opts.mode != "local" {
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code: 2 for bad flags, 1 for setup failures
// or a cancelled batch. Deferred cleanup has finished by the time it returns.
func run(args []string, stdout io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}

	zapLog := logger.New(opts.logLevel, "console", "stderr")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	citiesText, err := os.ReadFile(opts.citiesPath)
	if err != nil {
		zapLog.Error("reading cities", zap.Error(err))
		return 1
	}
	keywordsText, err := os.ReadFile(opts.keywordsPath)
	if err != nil {
		zapLog.Error("reading keywords", zap.Error(err))
		return 1
	}

	fetcher, pacer, cleanup, err := buildFetcher(ctx, opts, log)
	if err != nil {
		zapLog.Error("setup failed", zap.Error(err))
		return 1
	}
	defer cleanup()

	runner := batch.NewRunner(fetcher, pacer, log, batch.WithProgress(printProgress(stdout)))
	acc, runErr := runner.Run(ctx, string(citiesText), string(keywordsText))

	if msg := acc.Message(); msg != "" {
		fmt.Fprintln(stdout, msg)
	}
	fmt.Fprintln(stdout, acc.Status())

	data, err := export.ExportTours(acc.Records())
	if err != nil {
		zapLog.Error("export failed", zap.Error(err))
		return 1
	}
	if err := os.WriteFile(opts.outPath, data, 0o644); err != nil {
		zapLog.Error("writing spreadsheet", zap.Error(err))
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %d records to %s\n", acc.Len(), opts.outPath)

	if runErr != nil {
		return 1
	}
	return 0
}

// buildFetcher returns the unit fetcher and pacer for the selected mode.
func buildFetcher(ctx context.Context, opts *options, log logger.Logger) (batch.UnitFetcher, batch.Pacer, func(), error) {
	noop := func() {}

	if opts.mode == "remote" {
		pacer, err := batch.NewPacer(opts.pacing, opts.interval)
		if err != nil {
			return nil, nil, noop, err
		}
		return batch.NewRemoteFetcher(opts.endpoint, 2*time.Minute), pacer, noop, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, noop, err
	}

	pacer, err := app.Pacer(cfg)
	if err != nil {
		return nil, nil, noop, err
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	if rdb != nil {
		if err := database.PingRedis(ctx, rdb); err != nil {
			log.Warn("redis unavailable, detail cache disabled", map[string]interface{}{"error": err})
			_ = rdb.Close()
			rdb = nil
		}
	}
	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	client := places.NewClient(app.PlacesConfig(cfg), log)
	return app.ToursService(cfg, client, rdb, log), pacer, cleanup, nil
}

func printProgress(w io.Writer) batch.ProgressFunc {
	return func(p batch.Progress) {
		outcome := "ok"
		if p.Err != nil {
			outcome = "failed"
		}
		fmt.Fprintf(w, "[%d/%d %5.1f%%] %s - %s: %s\n",
			p.Completed, p.Total, p.Percent, p.Term.City, p.Term.Keywords, outcome)
	}
}
