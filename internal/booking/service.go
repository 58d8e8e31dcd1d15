package booking

import (
	"context"
	"errors"
	"time"

	"aline.org/internal/auth"
)

var (
	ErrNotFound        = errors.New("booking: not found")
	ErrSeminarNotFound = errors.New("booking: seminar not found")
	ErrNotBookable     = errors.New("booking: seminar is not bookable")
)

// Booking is a user's request to attend a seminar. The owner is stored by
// username; authorization facts about the owner (division membership) are
// resolved through the directory at decision time.
type Booking struct {
	ID        int64     `json:"id"`
	SeminarID int64     `json:"seminar_id"`
	Username  string    `json:"username"`
	Status    Status    `json:"status"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// Store describes the persistence operations the booking service needs.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id int64) (Booking, error)
	UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) (Booking, error)
	Delete(ctx context.Context, id int64) error
	ListBySeminar(ctx context.Context, seminarID int64) ([]Booking, error)
	ListByUser(ctx context.Context, username string) ([]Booking, error)
}

// SeminarGate decides whether a seminar can be booked at all (existence,
// capacity, billing period). It is a business rule outside this core: the
// service only gates who may ask.
type SeminarGate interface {
	Bookable(ctx context.Context, seminarID int64) error
}

// Service executes booking lifecycle operations. Every mutating operation
// is a single policy check followed by a single state write; a denial
// rejects before anything mutates.
type Service struct {
	store Store
	dir   auth.Directory
	gate  SeminarGate
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithSeminarGate installs the seminar bookability check.
func WithSeminarGate(gate SeminarGate) ServiceOption {
	return func(s *Service) { s.gate = gate }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a booking service.
func NewService(store Store, dir auth.Directory, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("booking: store is required")
	}
	if dir == nil {
		return nil, errors.New("booking: directory is required")
	}
	svc := &Service{store: store, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Book creates a booking in REQUESTED state. An empty onBehalfOf books for
// the caller; booking for someone else needs front-office authority. The
// policy check runs against the requested name, then the empty name is
// resolved to the caller before anything downstream sees it.
func (s *Service) Book(ctx context.Context, caller auth.Principal, seminarID int64, onBehalfOf string) (Booking, error) {
	if !auth.CanBookForUser(&caller, onBehalfOf) {
		return Booking{}, auth.ErrForbidden
	}
	username := onBehalfOf
	if username == "" {
		username = caller.Username
	}
	if _, err := s.dir.Lookup(ctx, username); err != nil {
		return Booking{}, err
	}
	if s.gate != nil {
		if err := s.gate.Bookable(ctx, seminarID); err != nil {
			return Booking{}, err
		}
	}
	now := s.now().UTC()
	b := &Booking{
		SeminarID: seminarID,
		Username:  username,
		Status:    StatusRequested,
		Created:   now,
		Updated:   now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return Booking{}, err
	}
	return *b, nil
}

// Get returns a single booking. Existence is resolved here so callers can
// answer "not found" before any policy question is asked.
func (s *Service) Get(ctx context.Context, id int64) (Booking, error) {
	return s.store.Get(ctx, id)
}

// Grant moves the booking to GRANTED.
func (s *Service) Grant(ctx context.Context, caller auth.Principal, id int64) (Booking, error) {
	return s.setStatus(ctx, caller, id, StatusGranted)
}

// Deny moves the booking to DENIED.
func (s *Service) Deny(ctx context.Context, caller auth.Principal, id int64) (Booking, error) {
	return s.setStatus(ctx, caller, id, StatusDenied)
}

func (s *Service) setStatus(ctx context.Context, caller auth.Principal, id int64, status Status) (Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	owner, err := s.dir.Lookup(ctx, b.Username)
	if err != nil {
		return Booking{}, err
	}
	if !auth.CanChangeBookingStatus(&caller, &owner) {
		return Booking{}, auth.ErrForbidden
	}
	if !b.Status.CanTransitionTo(status) {
		// Setting the current status again is a no-op, not an error.
		return b, nil
	}
	return s.store.UpdateStatus(ctx, id, status, s.now().UTC())
}

// Delete removes the booking from any state.
func (s *Service) Delete(ctx context.Context, caller auth.Principal, id int64) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	owner, err := s.dir.Lookup(ctx, b.Username)
	if err != nil {
		return err
	}
	if !auth.CanDeleteBooking(&caller, &owner) {
		return auth.ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

// ListForSeminar returns all bookings of one seminar; front office only.
func (s *Service) ListForSeminar(ctx context.Context, caller auth.Principal, seminarID int64) ([]Booking, error) {
	if !auth.IsFrontOffice(&caller) {
		return nil, auth.ErrForbidden
	}
	return s.store.ListBySeminar(ctx, seminarID)
}

// ListForUser returns a user's bookings, gated like the user's own data.
func (s *Service) ListForUser(ctx context.Context, caller auth.Principal, username string) ([]Booking, error) {
	if username == "" {
		username = caller.Username
	}
	target, err := s.dir.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessUserData(&caller, &target) {
		return nil, auth.ErrForbidden
	}
	return s.store.ListByUser(ctx, username)
}
