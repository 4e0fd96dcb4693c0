package store

import (
	"context"
	"sort"
	"sync"

	"hrcases-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryHistoryStore is an in-process journal.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	entries []models.StatusHistoryEntry
	ids     map[primitive.ObjectID]struct{}
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{ids: make(map[primitive.ObjectID]struct{})}
}

func (s *MemoryHistoryStore) Append(_ context.Context, e *models.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if _, dup := s.ids[e.ID]; dup {
		return nil
	}
	s.ids[e.ID] = struct{}{}
	s.entries = append(s.entries, *e)
	return nil
}

func (s *MemoryHistoryStore) ListByCaseID(_ context.Context, caseID string) ([]models.StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.StatusHistoryEntry{}
	for _, e := range s.entries {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangedAt.Before(out[j].ChangedAt)
	})
	return out, nil
}

// MemoryHistoryOutbox is the fallback outbox used when Redis is not
// configured. Its contents do not survive a restart.
type MemoryHistoryOutbox struct {
	mu      sync.Mutex
	pending []models.StatusHistoryEntry
}

func NewMemoryHistoryOutbox() *MemoryHistoryOutbox {
	return &MemoryHistoryOutbox{}
}

func (o *MemoryHistoryOutbox) Push(_ context.Context, e models.StatusHistoryEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, e)
	return nil
}

func (o *MemoryHistoryOutbox) Pop(_ context.Context) (*models.StatusHistoryEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) == 0 {
		return nil, nil
	}
	e := o.pending[0]
	o.pending = o.pending[1:]
	return &e, nil
}

func (o *MemoryHistoryOutbox) Requeue(_ context.Context, e models.StatusHistoryEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append([]models.StatusHistoryEntry{e}, o.pending...)
	return nil
}

func (o *MemoryHistoryOutbox) Len(_ context.Context) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return int64(len(o.pending)), nil
}
