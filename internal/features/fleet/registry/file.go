package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

// FileStore persists the registry as a YAML file
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored nodes. A missing file is an empty registry.
func (s *FileStore) Load(ctx context.Context) ([]domain.Node, error) {
	if err := common.CheckContext(ctx); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node list %s: %w", s.path, err)
	}
	return Unmarshal(data)
}

// Save writes nodes, replacing the file atomically
func (s *FileStore) Save(ctx context.Context, nodes []domain.Node) error {
	if err := common.CheckContext(ctx); err != nil {
		return err
	}
	data, err := Marshal(nodes)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write node list: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write node list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write node list: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write node list: %w", err)
	}
	return nil
}
