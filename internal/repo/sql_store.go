// Package repo implements persistence for eggs, creatures and their generated
// assets. This file provides SQLStore, the GORM-backed record store. It keeps
// the JSONStore contract (append, find by id, status update, list all) so the
// services layer can switch backends through configuration alone.
//
// Error semantics:
//   - Lookups of unknown ids return ErrNotFound (gorm.ErrRecordNotFound).
//   - UpdateEggStatus on an unknown id affects no rows and returns nil.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-hatch-backend/internal/domain"
)

// SQLStore persists eggs and creatures in SQL tables via GORM.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore wraps an opened and migrated database handle.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// AppendEgg inserts egg.
func (s *SQLStore) AppendEgg(ctx context.Context, egg domain.Egg) error {
	return s.DB.WithContext(ctx).Create(&egg).Error
}

// FindEgg fetches a single egg by id.
func (s *SQLStore) FindEgg(ctx context.Context, id string) (*domain.Egg, error) {
	var e domain.Egg
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEggStatus sets the status column of one egg.
func (s *SQLStore) UpdateEggStatus(ctx context.Context, id string, status domain.EggStatus) error {
	return s.DB.WithContext(ctx).
		Model(&domain.Egg{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListEggs returns all eggs, oldest first.
func (s *SQLStore) ListEggs(ctx context.Context) ([]domain.Egg, error) {
	out := []domain.Egg{}
	err := s.DB.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, err
}

// AppendCreature inserts c.
func (s *SQLStore) AppendCreature(ctx context.Context, c domain.Creature) error {
	return s.DB.WithContext(ctx).Create(&c).Error
}

// FindCreature fetches a single creature by id.
func (s *SQLStore) FindCreature(ctx context.Context, id string) (*domain.Creature, error) {
	var c domain.Creature
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCreatures returns all creatures, oldest first.
func (s *SQLStore) ListCreatures(ctx context.Context) ([]domain.Creature, error) {
	out := []domain.Creature{}
	err := s.DB.WithContext(ctx).Order("hatched_at asc").Find(&out).Error
	return out, err
}
