// Package pipeline orchestrates a full processing run: roster ingestion,
// vendor statement extraction, and the final merge into the dataset
// document. Rosters run serially in month order because they share a
// single-writer index; vendor files run in parallel, each writing its own
// shard.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"travelcli/internal/config"
	"travelcli/internal/files"
	"travelcli/internal/infrastructure"
	"travelcli/internal/merge"
	"travelcli/internal/roster"
	"travelcli/internal/vendor"
)

// vendorConcurrency bounds the parallel vendor-file phase.
const vendorConcurrency = 4

// Options tunes a single run.
type Options struct {
	// Force reprocesses every input regardless of recorded mtimes.
	Force bool
}

// Result summarizes what a run did.
type Result struct {
	RunID           string
	RostersIngested int
	FilesProcessed  int
	FilesSkipped    int
	FilesFailed     int
	RecordsMerged   int
}

// Pipeline runs the three processing phases over a configured layout.
type Pipeline struct {
	paths    config.PathsConfig
	registry *vendor.Registry
	index    *roster.Index
	shards   *vendor.ShardWriter
	engine   *merge.Engine
	logger   *slog.Logger
}

// New assembles a pipeline from configuration and an adapter registry.
func New(paths config.PathsConfig, registry *vendor.Registry, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	store := roster.NewFileStore(paths.RosterIndexFile(), paths.ByMonthDir())
	return &Pipeline{
		paths:    paths,
		registry: registry,
		index:    roster.NewIndex(store, logger),
		shards:   vendor.NewShardWriter(paths.ByMonthDir(), logger),
		engine:   merge.NewEngine(logger),
		logger:   logger,
	}
}

// Run executes a complete processing run. A missing raw directory or a
// merge failure is fatal; individual file failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.New().String()}
	ctx = infrastructure.WithRunID(ctx, result.RunID)

	p.logger.InfoContext(ctx, "pipeline run started",
		slog.String("raw_dir", p.paths.RawDir),
		slog.Bool("force", opts.Force))

	scan, err := files.NewDiscovery(p.paths.RawDir).ScanAndClassify(".")
	if err != nil {
		return nil, err
	}
	for _, f := range scan.Unattributable {
		p.logger.WarnContext(ctx, "skipping file without a usable date token",
			slog.String("file", f.Name))
	}
	for _, f := range scan.Unclassified {
		p.logger.WarnContext(ctx, "skipping unclassified file",
			slog.String("file", f.Name))
	}

	meta := loadProcessedMeta(p.paths.ProcessedMetaFile())
	if opts.Force {
		meta = &processedMeta{Files: make(map[string]time.Time)}
	}

	p.ingestRosters(ctx, scan, meta, result)

	if err := p.processTravelFiles(ctx, scan, meta, result); err != nil {
		return nil, err
	}

	if err := p.mergeDataset(ctx, result); err != nil {
		return nil, err
	}

	if err := meta.save(p.paths.ProcessedMetaFile()); err != nil {
		p.logger.WarnContext(ctx, "failed to save processed metadata",
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "pipeline run finished",
		slog.Int("rosters", result.RostersIngested),
		slog.Int("processed", result.FilesProcessed),
		slog.Int("skipped", result.FilesSkipped),
		slog.Int("failed", result.FilesFailed),
		slog.Int("records", result.RecordsMerged))

	return result, nil
}

// ingestRosters runs phase 1: roster files in ascending month order,
// serialized. Per-file failures are logged and skipped.
func (p *Pipeline) ingestRosters(ctx context.Context, scan *files.ScanResult, meta *processedMeta, result *Result) {
	months := scan.RosterMonths()
	sort.Strings(months)

	for _, month := range months {
		file := scan.Rosters[month]
		if meta.unchanged(file.FileInfo) {
			result.FilesSkipped++
			continue
		}

		entries, err := roster.ReadFile(file.Path)
		if err != nil {
			result.FilesFailed++
			p.logger.ErrorContext(ctx, "failed to read roster",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
			continue
		}
		if err := p.index.Ingest(ctx, month, file.Name, entries); err != nil {
			result.FilesFailed++
			p.logger.ErrorContext(ctx, "failed to ingest roster",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
			continue
		}
		meta.mark(file.FileInfo)
		result.RostersIngested++
	}
}

// processTravelFiles runs phase 2: each vendor file through its adapter,
// in parallel. Every file writes a distinct shard, so the only shared
// state is the counters, guarded by collecting per-file outcomes.
func (p *Pipeline) processTravelFiles(ctx context.Context, scan *files.ScanResult, meta *processedMeta, result *Result) error {
	type outcome struct {
		file      files.TravelFile
		processed bool
		failed    bool
	}

	travelFiles := scan.AllTravelFiles()
	outcomes := make([]outcome, len(travelFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(vendorConcurrency)

	for i, file := range travelFiles {
		if meta.unchanged(file.FileInfo) {
			result.FilesSkipped++
			continue
		}

		adapter, ok := p.registry.Get(file.Source)
		if !ok {
			p.logger.WarnContext(ctx, "no adapter registered for vendor",
				slog.String("file", file.Name),
				slog.String("vendor", string(file.Source)))
			result.FilesSkipped++
			continue
		}

		lookup, err := p.index.LookupFor(file.MatchingRoster)
		if err != nil {
			return err
		}

		i, file := i, file
		g.Go(func() error {
			records, err := adapter.Extract(gctx, file.Path, lookup)
			if err != nil {
				p.logger.ErrorContext(gctx, "failed to extract vendor file",
					slog.String("file", file.Name),
					slog.String("error", err.Error()))
				outcomes[i] = outcome{file: file, failed: true}
				return nil
			}
			if _, err := p.shards.Write(gctx, adapter, file.TargetMonth, file.Name, records); err != nil {
				p.logger.ErrorContext(gctx, "failed to write shard",
					slog.String("file", file.Name),
					slog.String("error", err.Error()))
				outcomes[i] = outcome{file: file, failed: true}
				return nil
			}
			outcomes[i] = outcome{file: file, processed: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, o := range outcomes {
		switch {
		case o.processed:
			meta.mark(o.file.FileInfo)
			result.FilesProcessed++
		case o.failed:
			result.FilesFailed++
		}
	}
	return nil
}

// mergeDataset runs phase 3, strictly after phase 2 completes.
func (p *Pipeline) mergeDataset(ctx context.Context, result *Result) error {
	shards, err := p.engine.LoadShards(ctx, p.paths.ByMonthDir())
	if err != nil {
		return err
	}

	index, err := p.index.CumulativeIndex()
	if err != nil {
		return err
	}

	dataset := p.engine.Merge(ctx, shards, index)
	result.RecordsMerged = len(dataset.Records)

	return p.engine.Write(ctx, p.paths.DatasetFile(), dataset)
}
