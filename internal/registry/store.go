package registry

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/model"
)

// Store persists the registry as a JSON array. Checkpoints go to a
// sibling temp file; only Commit promotes the temp file over the final
// path, so a crash mid-write never corrupts the last good registry.
type Store struct {
	path string
}

// NewStore creates a Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the final output path.
func (s *Store) Path() string { return s.path }

func (s *Store) tempPath() string {
	dir, base := filepath.Split(s.path)
	return filepath.Join(dir, base+".tmp")
}

// Load reads the persisted registry, keying entities by their
// reconstructed canonical id. A missing file yields an empty registry.
func (s *Store) Load() (*Registry, error) {
	reg := New()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("no existing registry, starting fresh", zap.String("path", s.path))
		return reg, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", s.path)
	}

	var entities []*model.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", s.path)
	}

	for _, e := range entities {
		id := model.CanonicalID(e.Name, e.Pincode, e.City)
		reg.Put(id, e)
	}

	zap.L().Info("loaded registry", zap.Int("entities", reg.Len()), zap.String("path", s.path))
	return reg, nil
}

// Checkpoint writes the current registry to the temp path without
// promoting it. Safe to call while geocode workers run.
func (s *Store) Checkpoint(reg *Registry) error {
	return s.write(reg, s.tempPath())
}

// Commit writes the registry to the temp path and atomically renames it
// over the final path.
func (s *Store) Commit(reg *Registry) error {
	tmp := s.tempPath()
	if err := s.write(reg, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "registry: promote %s", tmp)
	}
	zap.L().Info("registry committed", zap.Int("entities", reg.Len()), zap.String("path", s.path))
	return nil
}

func (s *Store) write(reg *Registry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "registry: mkdir for %s", path)
	}

	data, err := json.MarshalIndent(reg.Sorted(), "", "    ")
	if err != nil {
		return eris.Wrap(err, "registry: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "registry: write %s", path)
	}
	return nil
}
