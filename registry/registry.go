package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// FileRegistry is the authoritative in-memory store of file metadata
// records. Records are immutable after registration except for policy
// replacement on revocation, and are never deleted.
type FileRegistry struct {
	mu    sync.RWMutex
	files map[interfaces.FileID]interfaces.File
	snap  snapshotter
}

// snapshotter persists the full record set after each mutation. The pure
// in-memory registry uses a nil snapshotter.
type snapshotter interface {
	write(files []interfaces.File) error
}

// NewFileRegistry creates an empty in-memory registry.
func NewFileRegistry() *FileRegistry {
	return &FileRegistry{files: make(map[interfaces.FileID]interfaces.File)}
}

// Register stores a new file record. Registering an already-known id is an
// error; records are created exactly once, at upload.
func (r *FileRegistry) Register(file interfaces.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[file.ID]; exists {
		return fmt.Errorf("file %s already registered", file.ID)
	}

	r.files[file.ID] = file
	return r.persistLocked()
}

// Get returns a file record by id.
func (r *FileRegistry) Get(id interfaces.FileID) (interfaces.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, ok := r.files[id]
	if !ok {
		return interfaces.File{}, interfaces.ErrFileNotFound
	}
	return file, nil
}

// ReplacePolicy swaps the stored policy string for an existing file. All
// other fields stay untouched.
func (r *FileRegistry) ReplacePolicy(id interfaces.FileID, policy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, ok := r.files[id]
	if !ok {
		return interfaces.ErrFileNotFound
	}

	file.Policy = policy
	r.files[id] = file
	return r.persistLocked()
}

// List returns all records ordered by creation time, oldest first. Ties
// break on file id for a stable order.
func (r *FileRegistry) List() []interfaces.File {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]interfaces.File, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *FileRegistry) persistLocked() error {
	if r.snap == nil {
		return nil
	}

	files := make([]interfaces.File, 0, len(r.files))
	for _, f := range r.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return r.snap.write(files)
}
