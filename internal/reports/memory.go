package reports

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety. The HTTP
// tests run against it; production wires the Postgres store.
type InMemory struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{reports: make(map[string]*Report)}
}

func (s *InMemory) Create(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := cloneReport(r)
	s.reports[r.ID] = clone
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReport(r), nil
}

func (s *InMemory) ListByUser(ctx context.Context, userID string) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Report
	for _, r := range s.reports {
		if r.UserID == userID {
			out = append(out, cloneReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) SetResults(ctx context.Context, id string, labName string, reportDate time.Time, params []Parameter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.LabName = labName
	r.ReportDate = reportDate
	r.Parameters = append([]Parameter(nil), params...)
	r.ProcessingStatus = StatusCompleted
	return nil
}

func (s *InMemory) SetStatus(ctx context.Context, id string, status ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.ProcessingStatus = status
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

func cloneReport(r *Report) *Report {
	clone := *r
	clone.Parameters = append([]Parameter(nil), r.Parameters...)
	return &clone
}
