package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// fileSnapshotter writes the record set as a JSON file via an atomic
// rename, so a crash mid-write never truncates the registry.
type fileSnapshotter struct {
	path string
	log  *slog.Logger
}

func (s *fileSnapshotter) write(files []interfaces.File) error {
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace registry snapshot: %w", err)
	}

	s.log.Debug("Persisted registry snapshot",
		slog.String("path", s.path),
		slog.Int("files", len(files)))
	return nil
}

// OpenFileRegistry creates a registry persisted as a JSON snapshot at path,
// loading any existing snapshot first.
func OpenFileRegistry(path string, log *slog.Logger) (*FileRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	r := NewFileRegistry()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read registry snapshot: %w", err)
	}
	if err == nil {
		var files []interfaces.File
		if err := json.Unmarshal(data, &files); err != nil {
			return nil, fmt.Errorf("malformed registry snapshot: %w", err)
		}
		for _, f := range files {
			r.files[f.ID] = f
		}
	}

	log.Info("Opened file registry",
		slog.String("path", path),
		slog.Int("files", len(r.files)))

	r.snap = &fileSnapshotter{path: path, log: log}
	return r, nil
}
