package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2017, 1, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("insert into bookings").
		WithArgs(int64(42), "alice", "REQUESTED", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	store := NewPGStore(db)
	b := &Booking{SeminarID: 42, Username: "alice", Status: StatusRequested, Created: now, Updated: now}
	if err := store.Create(context.Background(), b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.ID != 5 {
		t.Fatalf("expected assigned id 5, got %d", b.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGetAndUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2017, 1, 2, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mock.ExpectQuery("select id, seminar_id, username, status, created, updated from bookings where id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seminar_id", "username", "status", "created", "updated"}).
			AddRow(int64(5), int64(42), "alice", "DENIED", created, created))

	store := NewPGStore(db)
	b, err := store.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.Status != StatusDenied || b.Username != "alice" {
		t.Fatalf("unexpected booking: %+v", b)
	}

	mock.ExpectQuery("update bookings set status").
		WithArgs(int64(5), "GRANTED", updated).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seminar_id", "username", "status", "created", "updated"}).
			AddRow(int64(5), int64(42), "alice", "GRANTED", created, updated))

	b, err = store.UpdateStatus(context.Background(), 5, StatusGranted, updated)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if b.Status != StatusGranted || !b.Updated.Equal(updated) {
		t.Fatalf("unexpected booking after update: %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from bookings").
		WithArgs(int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.Delete(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreBookable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()

	mock.ExpectQuery("select bookable from seminars").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"bookable"}).AddRow(true))
	if err := store.Bookable(ctx, 1); err != nil {
		t.Fatalf("Bookable open seminar: %v", err)
	}

	mock.ExpectQuery("select bookable from seminars").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"bookable"}).AddRow(false))
	if err := store.Bookable(ctx, 2); !errors.Is(err, ErrNotBookable) {
		t.Fatalf("expected ErrNotBookable, got %v", err)
	}

	mock.ExpectQuery("select bookable from seminars").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"bookable"}))
	if err := store.Bookable(ctx, 3); !errors.Is(err, ErrSeminarNotFound) {
		t.Fatalf("expected ErrSeminarNotFound, got %v", err)
	}
}
