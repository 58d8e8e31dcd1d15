package booking

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety. Used in
// tests and for running the service without a database.
type InMemory struct {
	mu       sync.RWMutex
	seq      int64
	bookings map[int64]*Booking
}

// NewInMemory creates an empty booking store.
func NewInMemory() *InMemory {
	return &InMemory{bookings: make(map[int64]*Booking)}
}

func (s *InMemory) Create(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	b.ID = s.seq
	copied := *b
	s.bookings[b.ID] = &copied
	return nil
}

func (s *InMemory) Get(ctx context.Context, id int64) (Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return *b, nil
}

func (s *InMemory) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	b.Status = status
	b.Updated = at
	return *b, nil
}

func (s *InMemory) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *InMemory) ListBySeminar(ctx context.Context, seminarID int64) ([]Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.SeminarID == seminarID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *InMemory) ListByUser(ctx context.Context, username string) ([]Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.Username == username {
			out = append(out, *b)
		}
	}
	return out, nil
}
