// Package http exposes the merged dataset over a read-only JSON API. The
// report renderer consumes these endpoints; nothing here mutates pipeline
// state.
package http

import (
	"context"
	"sync"

	apperrors "travelcli/internal/errors"
	"travelcli/internal/files"
	"travelcli/pkg/contracts/domain"
)

// DataService is the read surface the handler serves from.
type DataService interface {
	Dataset(ctx context.Context) (*domain.Dataset, error)
	Reload(ctx context.Context) error
}

// FileDataService serves the dataset document from disk, cached in memory.
// Reload swaps the cache after a pipeline run rewrites the file.
type FileDataService struct {
	path string

	mu      sync.RWMutex
	dataset *domain.Dataset
}

// NewFileDataService creates a service over the dataset file at path. The
// file is read lazily on first access.
func NewFileDataService(path string) *FileDataService {
	return &FileDataService{path: path}
}

// Dataset returns the cached dataset, loading it from disk if needed.
func (s *FileDataService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	s.mu.RLock()
	cached := s.dataset
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset, nil
}

// Reload re-reads the dataset file and swaps the cache.
func (s *FileDataService) Reload(ctx context.Context) error {
	var dataset domain.Dataset
	if err := files.ReadJSON(s.path, &dataset); err != nil {
		return apperrors.NewStorageError("failed to load dataset", err).
			WithContext("path", s.path)
	}

	s.mu.Lock()
	s.dataset = &dataset
	s.mu.Unlock()
	return nil
}
