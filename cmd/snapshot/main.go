package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/app"
	"github.com/riskibarqy/bingo-stats/internal/config"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/infrastructure/bundlesource"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/usecase"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns the exit code so deferred flushes happen before main exits.
func run(args []string, stderr io.Writer) int {
	if len(args) > 1 || (len(args) == 1 && strings.HasPrefix(args[0], "-")) {
		printUsage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.NewConsole(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	outPath := cfg.SnapshotPath
	if len(args) == 1 {
		outPath = strings.TrimSpace(args[0])
	}

	cat, err := app.LoadCatalog(cfg)
	if err != nil {
		logger.Error("load event tables", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start, end := cat.EventWindow()
	req := gains.Request{
		GroupID:   cat.GroupID(),
		StartDate: start,
		EndDate:   end,
		Metrics:   cat.SupportedMetrics(),
	}
	logger.Info("refreshing snapshot",
		"group_id", req.GroupID,
		"metrics", len(req.Metrics),
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
		"path", outPath,
	)

	fetcher := usecase.NewBundleService(app.NewWOMClient(cfg, nil, logger), logger.Named("bundle"))
	bundle, notes := fetcher.FetchBundle(ctx, req)
	for _, note := range notes {
		fmt.Fprintln(stderr, note)
	}
	if len(bundle.Gains) == 0 {
		logger.Error("every metric failed, snapshot left untouched", "path", outPath)
		return 1
	}

	if err := bundlesource.WriteSnapshotFile(outPath, gains.SnapshotFromBundle(bundle, time.Now())); err != nil {
		logger.Error("write snapshot", "path", outPath, "error", err)
		return 1
	}
	logger.Info("snapshot written",
		"path", outPath,
		"metrics", len(bundle.Gains),
		"failed", len(notes),
	)
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s [output-path]\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(w, "fetches every supported metric for the configured event window and")
	fmt.Fprintln(w, "writes it to output-path (default SNAPSHOT_PATH).")
}
