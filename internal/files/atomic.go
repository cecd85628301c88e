package files

import (
	"encoding/json"
	"os"
	"path/filepath"

	"travelcli/internal/errors"
)

// WriteJSONAtomic marshals v with two-space indentation and writes it to
// path via a temp file and rename, so readers never observe a partially
// written document. The parent directory is created if missing.
func WriteJSONAtomic(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewStorageError("failed to create output directory", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode JSON document", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewStorageError("failed to create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewStorageError("failed to write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError("failed to close temp file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError("failed to replace output file", err)
	}
	return nil
}

// ReadJSON decodes the JSON document at path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewStorageError("failed to read JSON document", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewParsingError("failed to decode JSON document", err).
			WithContext("file", filepath.Base(path))
	}
	return nil
}
