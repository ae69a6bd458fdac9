// Package repo implements persistence for eggs, creatures and their generated
// assets. This file provides JSONStore, the default record store: each record
// kind lives in a single JSON document holding an array, and every mutation
// reads the whole array, modifies it and writes it back.
//
// Semantics:
//   - A missing document is an empty collection (lists return []).
//   - Lookups are linear scans by id; the first match wins.
//   - UpdateEggStatus on an unknown id (or a missing document) is a no-op.
//
// Concurrency: a process-local mutex serializes read-modify-write cycles of a
// single JSONStore. Separate processes (or separate JSONStore values) writing
// the same files can still interleave and lose updates; there is no file lock.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tbourn/go-hatch-backend/internal/domain"
)

// JSONStore persists eggs and creatures as two JSON array documents.
type JSONStore struct {
	EggsPath      string
	CreaturesPath string

	mu sync.Mutex
}

// NewJSONStore returns a store backed by the given documents. The files are
// created lazily on first write.
func NewJSONStore(eggsPath, creaturesPath string) *JSONStore {
	return &JSONStore{EggsPath: eggsPath, CreaturesPath: creaturesPath}
}

// AppendEgg adds egg to the end of the eggs document.
func (s *JSONStore) AppendEgg(_ context.Context, egg domain.Egg) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eggs, err := readArray[domain.Egg](s.EggsPath)
	if err != nil {
		return err
	}
	eggs = append(eggs, egg)
	return writeArray(s.EggsPath, eggs)
}

// FindEgg returns the first egg with the given id or ErrNotFound.
func (s *JSONStore) FindEgg(_ context.Context, id string) (*domain.Egg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eggs, err := readArray[domain.Egg](s.EggsPath)
	if err != nil {
		return nil, err
	}
	for i := range eggs {
		if eggs[i].ID == id {
			return &eggs[i], nil
		}
	}
	return nil, ErrNotFound
}

// UpdateEggStatus rewrites the status of the egg with the given id.
func (s *JSONStore) UpdateEggStatus(_ context.Context, id string, status domain.EggStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.EggsPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	eggs, err := readArray[domain.Egg](s.EggsPath)
	if err != nil {
		return err
	}
	for i := range eggs {
		if eggs[i].ID == id {
			eggs[i].Status = status
			break
		}
	}
	return writeArray(s.EggsPath, eggs)
}

// ListEggs returns every stored egg in insertion order.
func (s *JSONStore) ListEggs(_ context.Context) ([]domain.Egg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readArray[domain.Egg](s.EggsPath)
}

// AppendCreature adds c to the end of the creatures document.
func (s *JSONStore) AppendCreature(_ context.Context, c domain.Creature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creatures, err := readArray[domain.Creature](s.CreaturesPath)
	if err != nil {
		return err
	}
	creatures = append(creatures, c)
	return writeArray(s.CreaturesPath, creatures)
}

// FindCreature returns the first creature with the given id or ErrNotFound.
func (s *JSONStore) FindCreature(_ context.Context, id string) (*domain.Creature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creatures, err := readArray[domain.Creature](s.CreaturesPath)
	if err != nil {
		return nil, err
	}
	for i := range creatures {
		if creatures[i].ID == id {
			return &creatures[i], nil
		}
	}
	return nil, ErrNotFound
}

// ListCreatures returns every stored creature in insertion order.
func (s *JSONStore) ListCreatures(_ context.Context) ([]domain.Creature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readArray[domain.Creature](s.CreaturesPath)
}

// readArray loads a JSON array document. Missing or empty files yield an
// empty, non-nil slice.
func readArray[T any](path string) ([]T, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := []T{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// writeArray replaces the document at path with items (indented like the
// files the web UI has always read).
func writeArray[T any](path string, items []T) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
