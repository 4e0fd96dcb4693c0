package store

import (
	"context"
	"sync"
	"time"

	"hrcases-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCaseStore is an in-process CaseStore and AnalyticsSource. Every
// method holds the lock for its whole read-modify-write, which gives the
// same per-document atomicity the Mongo store relies on.
type MemoryCaseStore struct {
	mu    sync.RWMutex
	cases map[primitive.ObjectID]*models.Case
	order []primitive.ObjectID
	now   func() time.Time
	// lastSwap keeps status stamps strictly increasing so the journal sorts
	// in swap order even when the clock does not advance between writes.
	lastSwap time.Time
}

func NewMemoryCaseStore() *MemoryCaseStore {
	return &MemoryCaseStore{
		cases: make(map[primitive.ObjectID]*models.Case),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryCaseStore) Insert(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c.ID = primitive.NewObjectID()
	c.Archived = false
	c.CreatedAt = now
	c.UpdatedAt = now
	ensureSlices(c)

	s.cases[c.ID] = c.Clone()
	s.order = append(s.order, c.ID)
	return nil
}

func (s *MemoryCaseStore) FindActive(_ context.Context, id primitive.ObjectID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok || c.Archived {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryCaseStore) FindAny(_ context.Context, id primitive.ObjectID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryCaseStore) Find(_ context.Context, f models.CaseFilter, page models.Page) ([]models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Case{}
	var skipped int64
	for _, id := range s.order {
		c := s.cases[id]
		if !MatchCase(c, f) {
			continue
		}
		if skipped < page.Skip {
			skipped++
			continue
		}
		if page.Limit > 0 && int64(len(out)) >= page.Limit {
			break
		}
		out = append(out, *c.Clone())
	}
	return out, nil
}

func (s *MemoryCaseStore) Count(_ context.Context, f models.CaseFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.cases {
		if MatchCase(c, f) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryCaseStore) Replace(_ context.Context, id primitive.ObjectID, c *models.Case) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cases[id]
	if !ok || cur.Archived {
		return nil, ErrNotFound
	}

	next := c.Clone()
	ensureSlices(next)
	next.ID = id
	next.Archived = false
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now()
	s.cases[id] = next
	return next.Clone(), nil
}

func (s *MemoryCaseStore) SwapStatus(_ context.Context, id primitive.ObjectID, status string) (*models.Case, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cases[id]
	if !ok || cur.Archived {
		return nil, time.Time{}, ErrNotFound
	}
	at := s.now()
	if !at.After(s.lastSwap) {
		at = s.lastSwap.Add(time.Microsecond)
	}
	s.lastSwap = at

	before := cur.Clone()
	cur.Status = status
	cur.UpdatedAt = at
	return before, at, nil
}

func (s *MemoryCaseStore) SetArchived(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cases[id]
	if !ok {
		return ErrNotFound
	}
	cur.Archived = true
	return nil
}

func (s *MemoryCaseStore) PushEvidence(_ context.Context, id primitive.ObjectID, items []models.Evidence) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cases[id]
	if !ok || cur.Archived {
		return nil, ErrNotFound
	}
	for _, e := range items {
		if e.DateCaptured != nil {
			d := *e.DateCaptured
			e.DateCaptured = &d
		}
		cur.Evidence = append(cur.Evidence, e)
	}
	cur.UpdatedAt = s.now()
	return cur.Clone(), nil
}

func (s *MemoryCaseStore) ActiveCaseIDExists(_ context.Context, caseID string, exclude primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, c := range s.cases {
		if id == exclude || c.Archived {
			continue
		}
		if c.CaseID == caseID {
			return true, nil
		}
	}
	return false, nil
}
