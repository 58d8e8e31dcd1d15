package booking

import (
	"context"
	"database/sql"
	"time"
)

var (
	_ Store       = (*PGStore)(nil)
	_ SeminarGate = (*PGStore)(nil)
)

// PGStore implements Store and SeminarGate using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const bookingColumns = `id, seminar_id, username, status, created, updated`

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	return s.db.QueryRowContext(ctx,
		`insert into bookings(seminar_id, username, status, created, updated)
		 values($1,$2,$3,$4,$5) returning id`,
		b.SeminarID, b.Username, string(b.Status), b.Created, b.Updated,
	).Scan(&b.ID)
}

func (s *PGStore) Get(ctx context.Context, id int64) (Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+bookingColumns+` from bookings where id = $1`, id)
	return scanBooking(row)
}

func (s *PGStore) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) (Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`update bookings set status = $2, updated = $3 where id = $1
		 returning `+bookingColumns,
		id, string(status), at)
	return scanBooking(row)
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from bookings where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListBySeminar(ctx context.Context, seminarID int64) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+bookingColumns+` from bookings where seminar_id = $1 order by created asc`, seminarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *PGStore) ListByUser(ctx context.Context, username string) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+bookingColumns+` from bookings where username = $1 order by created asc`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// Bookable checks that the seminar exists and is open for booking.
func (s *PGStore) Bookable(ctx context.Context, seminarID int64) error {
	var bookable bool
	err := s.db.QueryRowContext(ctx,
		`select bookable from seminars where id = $1`, seminarID).Scan(&bookable)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrSeminarNotFound
		}
		return err
	}
	if !bookable {
		return ErrNotBookable
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (Booking, error) {
	var (
		b      Booking
		status string
	)
	err := row.Scan(&b.ID, &b.SeminarID, &b.Username, &status, &b.Created, &b.Updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	parsed, ok := ParseStatus(status)
	if !ok {
		parsed = StatusRequested
	}
	b.Status = parsed
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]Booking, error) {
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
