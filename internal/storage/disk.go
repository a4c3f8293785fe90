package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"
)

// DiskStorage writes objects below a local directory.
type DiskStorage struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewDiskStorage creates the upload directory if needed. Saved objects are
// addressed as prefix + relative path, e.g. "/uploads/2025/09/01/<id>.pdf".
func NewDiskStorage(dir, prefix string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if prefix == "" {
		prefix = "/uploads"
	}
	return &DiskStorage{dir: dir, prefix: prefix, now: time.Now}, nil
}

// Save writes obj to disk.
func (d *DiskStorage) Save(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(d.now().UTC(), obj.FileName)
	full := filepath.Join(d.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(full, obj.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path.Join(d.prefix, name), nil
}
