package store

import (
	"context"
	"sync"

	"github.com/Zachkp/portfolio/internal/contact"
)

// MemoryStore keeps records for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	lastID  int64
	records []contact.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(ctx context.Context, d contact.Draft) (contact.Record, error) {
	if err := d.Check(); err != nil {
		return contact.Record{}, err
	}
	if err := ctx.Err(); err != nil {
		return contact.Record{}, wrap("create", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	rec := contact.NewRecord(s.lastID, d, now())
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]contact.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("list", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contact.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
