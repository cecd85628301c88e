package pipeline

import (
	"time"

	"travelcli/internal/files"
)

// processedMeta records each input file's modification time at the moment
// it was last processed, keyed by filename. Unchanged files are skipped on
// incremental runs.
type processedMeta struct {
	Files map[string]time.Time `json:"files"`
}

func loadProcessedMeta(path string) *processedMeta {
	meta := &processedMeta{Files: make(map[string]time.Time)}
	if err := files.ReadJSON(path, meta); err != nil {
		// Missing or corrupt metadata just means a full run.
		return &processedMeta{Files: make(map[string]time.Time)}
	}
	if meta.Files == nil {
		meta.Files = make(map[string]time.Time)
	}
	return meta
}

func (m *processedMeta) save(path string) error {
	return files.WriteJSONAtomic(path, m)
}

// unchanged reports whether the file was already processed at this mtime.
func (m *processedMeta) unchanged(file files.FileInfo) bool {
	seen, ok := m.Files[file.Name]
	return ok && seen.Equal(file.ModTime)
}

func (m *processedMeta) mark(file files.FileInfo) {
	m.Files[file.Name] = file.ModTime
}
