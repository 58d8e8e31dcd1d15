package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"aline.org/internal/auth"
)

type stubDirectory struct {
	users map[string]auth.Principal
}

func (d *stubDirectory) Lookup(_ context.Context, username string) (auth.Principal, error) {
	p, ok := d.users[username]
	if !ok {
		return auth.Principal{}, auth.ErrNotFound
	}
	return p, nil
}

func (d *stubDirectory) ListUsernames(context.Context) ([]string, error) { return nil, nil }
func (d *stubDirectory) ListByDivision(context.Context, string) ([]auth.Principal, error) {
	return nil, nil
}
func (d *stubDirectory) TouchLogout(context.Context, string, time.Time) error { return nil }
func (d *stubDirectory) TouchPasswordReset(context.Context, string, string, time.Time) error {
	return nil
}

type stubGate struct{ err error }

func (g stubGate) Bookable(context.Context, int64) error { return g.err }

func principal(username, division string, roles ...auth.Role) auth.Principal {
	return auth.Principal{Username: username, Division: division, Roles: auth.NewRoleSet(roles...)}
}

func testService(t *testing.T, opts ...ServiceOption) (*Service, *stubDirectory) {
	t.Helper()
	dir := &stubDirectory{users: map[string]auth.Principal{
		"alice": principal("alice", "sales", auth.RoleUser),
		"bob":   principal("bob", "sales", auth.RoleUser),
		"eve":   principal("eve", "eng", auth.RoleUser),
		"carol": principal("carol", "sales", auth.RoleDivisionHead),
		"frank": principal("frank", "office", auth.RoleFrontOffice),
	}}
	svc, err := NewService(NewInMemory(), dir, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, dir
}

func TestBookForSelf(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()
	alice := dir.users["alice"]

	b, err := svc.Book(ctx, alice, 42, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.Username != "alice" || b.SeminarID != 42 {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if b.Status != StatusRequested {
		t.Fatalf("new booking must start REQUESTED, got %s", b.Status)
	}

	// Booking under one's own explicit name works the same way.
	if _, err := svc.Book(ctx, alice, 42, "alice"); err != nil {
		t.Fatalf("Book by own name: %v", err)
	}
}

func TestBookForOther(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, dir.users["alice"], 1, "bob"); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for plain user, got %v", err)
	}

	b, err := svc.Book(ctx, dir.users["frank"], 1, "bob")
	if err != nil {
		t.Fatalf("front office Book: %v", err)
	}
	if b.Username != "bob" {
		t.Fatalf("expected booking for bob, got %q", b.Username)
	}

	if _, err := svc.Book(ctx, dir.users["frank"], 1, "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestBookHonorsSeminarGate(t *testing.T) {
	svc, dir := testService(t, WithSeminarGate(stubGate{err: ErrNotBookable}))
	if _, err := svc.Book(context.Background(), dir.users["alice"], 9, ""); !errors.Is(err, ErrNotBookable) {
		t.Fatalf("expected ErrNotBookable, got %v", err)
	}
}

func TestGrantAndDeny(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()
	carol := dir.users["carol"]

	b, err := svc.Book(ctx, dir.users["bob"], 7, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	granted, err := svc.Grant(ctx, carol, b.ID)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if granted.Status != StatusGranted {
		t.Fatalf("expected GRANTED, got %s", granted.Status)
	}

	denied, err := svc.Deny(ctx, carol, b.ID)
	if err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if denied.Status != StatusDenied {
		t.Fatalf("expected DENIED, got %s", denied.Status)
	}

	// A denied booking may be granted again; the decision is reversible.
	regranted, err := svc.Grant(ctx, carol, b.ID)
	if err != nil {
		t.Fatalf("Grant after deny: %v", err)
	}
	if regranted.Status != StatusGranted {
		t.Fatalf("expected GRANTED after reversal, got %s", regranted.Status)
	}
}

func TestChangeStatusAuthorization(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()

	// Booking owned by eve in division eng: carol heads sales, not eng.
	b, err := svc.Book(ctx, dir.users["eve"], 3, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Grant(ctx, dir.users["carol"], b.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for foreign division head, got %v", err)
	}
	if _, err := svc.Grant(ctx, dir.users["alice"], b.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for plain user, got %v", err)
	}
	if _, err := svc.Grant(ctx, dir.users["frank"], b.ID); err != nil {
		t.Fatalf("front office Grant: %v", err)
	}
	if _, err := svc.Grant(ctx, dir.users["frank"], 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGrantCurrentStatusIsNoop(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()

	b, err := svc.Book(ctx, dir.users["bob"], 7, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	first, err := svc.Grant(ctx, dir.users["carol"], b.ID)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	second, err := svc.Grant(ctx, dir.users["carol"], b.ID)
	if err != nil {
		t.Fatalf("repeated Grant: %v", err)
	}
	if second.Status != StatusGranted || !second.Updated.Equal(first.Updated) {
		t.Fatalf("repeated grant must not rewrite state: %+v vs %+v", first, second)
	}
}

func TestDelete(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()

	b, err := svc.Book(ctx, dir.users["alice"], 5, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := svc.Delete(ctx, dir.users["bob"], b.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	// Division head authority does not extend to deletion.
	if err := svc.Delete(ctx, dir.users["carol"], b.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for division head, got %v", err)
	}
	if err := svc.Delete(ctx, dir.users["alice"], b.ID); err != nil {
		t.Fatalf("owner Delete: %v", err)
	}
	if _, err := svc.Get(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected booking gone, got %v", err)
	}

	b2, err := svc.Book(ctx, dir.users["alice"], 5, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if err := svc.Delete(ctx, dir.users["frank"], b2.ID); err != nil {
		t.Fatalf("front office Delete: %v", err)
	}
}

func TestListForSeminar(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, dir.users["alice"], 11, ""); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Book(ctx, dir.users["bob"], 11, ""); err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := svc.ListForSeminar(ctx, dir.users["alice"], 11); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for plain user, got %v", err)
	}
	list, err := svc.ListForSeminar(ctx, dir.users["frank"], 11)
	if err != nil {
		t.Fatalf("ListForSeminar: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(list))
	}
}

func TestListForUser(t *testing.T) {
	svc, dir := testService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, dir.users["bob"], 1, ""); err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Empty username resolves to the caller.
	own, err := svc.ListForUser(ctx, dir.users["bob"], "")
	if err != nil || len(own) != 1 {
		t.Fatalf("own bookings: %v, %d", err, len(own))
	}

	if _, err := svc.ListForUser(ctx, dir.users["alice"], "bob"); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for peer, got %v", err)
	}
	if _, err := svc.ListForUser(ctx, dir.users["carol"], "bob"); err != nil {
		t.Fatalf("division head ListForUser: %v", err)
	}
}
