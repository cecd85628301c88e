// Command processor runs one batch pipeline pass: scan the raw input
// directory, ingest rosters, extract vendor statements through their
// registered adapters, and merge everything into the dataset document.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"travelcli/internal/config"
	"travelcli/internal/infrastructure"
	"travelcli/internal/pipeline"
	"travelcli/internal/vendor"
)

func main() {
	inDir := flag.String("in", "", "raw input directory (overrides configuration)")
	outDir := flag.String("out", "", "processed output directory (overrides configuration)")
	full := flag.Bool("full", false, "reprocess all files regardless of modification times")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inDir != "" {
		cfg.Paths.RawDir = *inDir
	}
	if *outDir != "" {
		cfg.Paths.ProcessedDir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	p := pipeline.New(cfg.Paths, vendor.Default(), logger)

	result, err := p.Run(context.Background(), pipeline.Options{Force: *full})
	if err != nil {
		logger.Error("pipeline run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("done",
		slog.String("run_id", result.RunID),
		slog.Int("rosters", result.RostersIngested),
		slog.Int("processed", result.FilesProcessed),
		slog.Int("skipped", result.FilesSkipped),
		slog.Int("failed", result.FilesFailed),
		slog.Int("records", result.RecordsMerged))
}
