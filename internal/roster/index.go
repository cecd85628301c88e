package roster

import (
	"context"
	"log/slog"
	"time"

	apperrors "travelcli/internal/errors"
	"travelcli/pkg/contracts/domain"
)

// Lookup resolves an employee name to department info. Unmatched names
// resolve to empty department fields, never an error.
type Lookup func(name string) domain.DeptInfo

// Index maintains per-month roster snapshots and the cumulative
// latest-known view of every employee. Ingestion is a read-modify-write
// cycle over the shared store and must not run concurrently.
type Index struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewIndex creates a roster index over the given store.
func NewIndex(store Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{store: store, logger: logger, now: time.Now}
}

// Ingest stores one month's validated roster entries as a snapshot and
// merges them into the cumulative index. For an employee already present,
// department fields and latestRecord are overwritten only when the incoming
// month is not older than the recorded one, so reprocessing months out of
// order never regresses newer data. A duplicate name within the entry list
// keeps the last occurrence.
func (ix *Index) Ingest(ctx context.Context, month, rosterFile string, entries []domain.RosterEntry) error {
	employees := make(map[string]domain.RosterEntry, len(entries))
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		employees[entry.Name] = entry
	}

	processedAt := ix.now().Format(time.RFC3339)

	snapshot := &domain.RosterSnapshot{
		Month:       month,
		RosterFile:  rosterFile,
		ProcessedAt: processedAt,
		Employees:   employees,
		Count:       len(employees),
	}
	if err := ix.store.SaveSnapshot(snapshot); err != nil {
		return err
	}

	index, err := ix.store.LoadIndex()
	if err != nil {
		return err
	}

	index.Months[month] = domain.MonthMeta{
		File:        rosterFile,
		ProcessedAt: processedAt,
		Count:       len(employees),
	}

	for name, entry := range employees {
		current, exists := index.AllEmployees[name]
		if exists && month < current.LatestRecord {
			continue
		}
		index.AllEmployees[name] = domain.DeptInfo{
			DeptLevel1:   entry.DeptLevel1,
			DeptLevel2:   entry.DeptLevel2,
			DeptLevel3:   entry.DeptLevel3,
			LatestRecord: month,
		}
	}

	if err := ix.store.SaveIndex(index); err != nil {
		return err
	}

	ix.logger.InfoContext(ctx, "ingested roster snapshot",
		slog.String("month", month),
		slog.String("file", rosterFile),
		slog.Int("employees", len(employees)))

	return nil
}

// LookupFor returns a resolver for department lookups. With a month that
// has a snapshot, names resolve against that month; otherwise, and for an
// empty month, they resolve against the cumulative latest-known view.
func (ix *Index) LookupFor(month string) (Lookup, error) {
	if month != "" {
		snapshot, err := ix.store.LoadSnapshot(month)
		if err == nil {
			return func(name string) domain.DeptInfo {
				entry, ok := snapshot.Employees[name]
				if !ok {
					return domain.DeptInfo{}
				}
				return domain.DeptInfo{
					DeptLevel1:   entry.DeptLevel1,
					DeptLevel2:   entry.DeptLevel2,
					DeptLevel3:   entry.DeptLevel3,
					LatestRecord: month,
				}
			}, nil
		}
		if !apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			return nil, err
		}
	}

	index, err := ix.store.LoadIndex()
	if err != nil {
		return nil, err
	}
	return func(name string) domain.DeptInfo {
		return index.AllEmployees[name]
	}, nil
}

// CumulativeIndex returns the persisted cumulative view, for embedding into
// the merged dataset.
func (ix *Index) CumulativeIndex() (*domain.EmployeeIndex, error) {
	return ix.store.LoadIndex()
}
