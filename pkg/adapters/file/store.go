package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/automat/pkg/domain"
)

const ext = ".json"

// ErrInvalidID is returned for ids that cannot be used as file names.
var ErrInvalidID = errors.New("invalid snapshot id")

// Store implements ports.SnapshotStore on the local filesystem, one JSON
// file per instance.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".automat/snapshots".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".automat", "snapshots")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.BasePath, id+ext), nil
}

// Save writes the snapshot atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	dest, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+id+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace snapshot: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot file.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %q: %w", id, err)
	}
	return &snap, nil
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the ids of the snapshot files, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}
