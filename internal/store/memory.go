package store

import (
	"context"
	"sync"
	"time"

	"github.com/bartab/backend/internal/models"
)

type MemoryStore struct {
	customers map[string]*models.CustomerRecord
	mu        sync.RWMutex
	closed    bool
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]*models.CustomerRecord),
		now:       time.Now,
	}
}

func (s *MemoryStore) check(ctx context.Context, op string) error {
	// Check if the context is canceled or timed out
	select {
	case <-ctx.Done():
		return unavailable(op, ctx.Err())
	default:
	}
	if s.closed {
		return unavailable(op, errClosed)
	}
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, rec *models.CustomerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "put"); err != nil {
		return err
	}

	if stored, ok := s.customers[rec.ID]; ok && stored.Version != rec.Version {
		return ErrVersionConflict
	}

	rec.Version++
	rec.UpdatedAt = s.now().UTC()
	s.customers[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryStore) GetAll(ctx context.Context) ([]models.CustomerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "get all"); err != nil {
		return nil, err
	}

	result := make([]models.CustomerRecord, 0, len(s.customers))
	for _, rec := range s.customers {
		result = append(result, *rec.Clone())
	}
	return result, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*models.CustomerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "get"); err != nil {
		return nil, err
	}

	rec, ok := s.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "delete"); err != nil {
		return err
	}
	delete(s.customers, id)
	return nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "clear"); err != nil {
		return err
	}
	s.customers = make(map[string]*models.CustomerRecord)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
