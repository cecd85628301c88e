package roster

import (
	"fmt"
	"os"
	"path/filepath"

	"travelcli/internal/errors"
	"travelcli/internal/files"
	"travelcli/pkg/contracts/domain"
)

// Store abstracts the persistence of the cumulative employee index and the
// per-month snapshots, so the merge logic stays testable against an
// in-memory substitute and file locking can be added without touching it.
type Store interface {
	// LoadIndex returns the cumulative index, or an empty one if none has
	// been persisted yet.
	LoadIndex() (*domain.EmployeeIndex, error)
	// SaveIndex persists the full cumulative index.
	SaveIndex(*domain.EmployeeIndex) error
	// SaveSnapshot persists one month's roster snapshot.
	SaveSnapshot(*domain.RosterSnapshot) error
	// LoadSnapshot returns the snapshot for a month, or a NOT_FOUND typed
	// error if the month has no snapshot.
	LoadSnapshot(month string) (*domain.RosterSnapshot, error)
}

// FileStore is the production store: a shared index file plus one snapshot
// file per month in the shard directory. All writes go through a
// write-then-rename, but the index read-modify-write cycle itself is not
// safe under concurrent writers; callers must serialize ingestion.
type FileStore struct {
	indexPath   string
	snapshotDir string
}

// NewFileStore creates a file-backed store.
func NewFileStore(indexPath, snapshotDir string) *FileStore {
	return &FileStore{indexPath: indexPath, snapshotDir: snapshotDir}
}

// LoadIndex implements Store.
func (s *FileStore) LoadIndex() (*domain.EmployeeIndex, error) {
	if _, err := os.Stat(s.indexPath); os.IsNotExist(err) {
		return domain.NewEmployeeIndex(), nil
	}

	index := domain.NewEmployeeIndex()
	if err := files.ReadJSON(s.indexPath, index); err != nil {
		return nil, err
	}
	if index.Months == nil {
		index.Months = make(map[string]domain.MonthMeta)
	}
	if index.AllEmployees == nil {
		index.AllEmployees = make(map[string]domain.DeptInfo)
	}
	return index, nil
}

// SaveIndex implements Store.
func (s *FileStore) SaveIndex(index *domain.EmployeeIndex) error {
	return files.WriteJSONAtomic(s.indexPath, index)
}

// SnapshotPath returns the snapshot file path for a month. The roster_
// prefix keeps snapshots out of the merge phase's shard glob.
func (s *FileStore) SnapshotPath(month string) string {
	return filepath.Join(s.snapshotDir, fmt.Sprintf("roster_%s.json", month))
}

// SaveSnapshot implements Store.
func (s *FileStore) SaveSnapshot(snapshot *domain.RosterSnapshot) error {
	return files.WriteJSONAtomic(s.SnapshotPath(snapshot.Month), snapshot)
}

// LoadSnapshot implements Store.
func (s *FileStore) LoadSnapshot(month string) (*domain.RosterSnapshot, error) {
	path := s.SnapshotPath(month)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("no roster snapshot for month", nil).
			WithContext("month", month)
	}

	var snapshot domain.RosterSnapshot
	if err := files.ReadJSON(path, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	index     *domain.EmployeeIndex
	snapshots map[string]*domain.RosterSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*domain.RosterSnapshot)}
}

// LoadIndex implements Store.
func (s *MemoryStore) LoadIndex() (*domain.EmployeeIndex, error) {
	if s.index == nil {
		return domain.NewEmployeeIndex(), nil
	}
	return s.index, nil
}

// SaveIndex implements Store.
func (s *MemoryStore) SaveIndex(index *domain.EmployeeIndex) error {
	s.index = index
	return nil
}

// SaveSnapshot implements Store.
func (s *MemoryStore) SaveSnapshot(snapshot *domain.RosterSnapshot) error {
	s.snapshots[snapshot.Month] = snapshot
	return nil
}

// LoadSnapshot implements Store.
func (s *MemoryStore) LoadSnapshot(month string) (*domain.RosterSnapshot, error) {
	snapshot, ok := s.snapshots[month]
	if !ok {
		return nil, errors.NewNotFoundError("no roster snapshot for month", nil).
			WithContext("month", month)
	}
	return snapshot, nil
}
