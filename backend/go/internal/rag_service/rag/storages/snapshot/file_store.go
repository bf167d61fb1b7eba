package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
)

// FileStore keeps the snapshot in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the snapshot file. A missing file is an empty snapshot. An
// unreadable or unparseable file also yields an empty snapshot, together
// with the error so the caller can log it.
func (s *FileStore) Load(ctx context.Context) (*schema.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return schema.NewSnapshot(), err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return schema.NewSnapshot(), nil
	}
	if err != nil {
		return schema.NewSnapshot(), fmt.Errorf("snapshot: read %s: %w", s.path, err)
	}
	return Decode(data)
}

// Save writes snap to a temporary file in the same directory and renames it
// over the target, so readers never observe a half-written file.
func (s *FileStore) Save(ctx context.Context, snap *schema.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("snapshot: rename to %s: %w", s.path, err)
	}
	return nil
}

// compile-time check to ensure FileStore implements the SnapshotStore interface
var _ interfaces.SnapshotStore = (*FileStore)(nil)
