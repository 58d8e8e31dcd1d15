package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

var _ Directory = (*PGDirectory)(nil)

// PGDirectory implements Directory on top of PostgreSQL. Authorities are
// stored as a comma-separated tag list on the user row.
type PGDirectory struct {
	db *sql.DB
}

func NewPGDirectory(db *sql.DB) *PGDirectory {
	return &PGDirectory{db: db}
}

const userColumns = `id, username, password_hash, division, authorities, last_password_reset, last_logout`

func (d *PGDirectory) Lookup(ctx context.Context, username string) (Principal, error) {
	row := d.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username = $1`, username)
	return scanPrincipal(row)
}

func (d *PGDirectory) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `select username from users order by username asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d *PGDirectory) ListByDivision(ctx context.Context, division string) ([]Principal, error) {
	rows, err := d.db.QueryContext(ctx,
		`select `+userColumns+` from users where division = $1 order by username asc`, division)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *PGDirectory) TouchLogout(ctx context.Context, username string, at time.Time) error {
	res, err := d.db.ExecContext(ctx,
		`update users set last_logout = $2 where username = $1`, username, at.UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (d *PGDirectory) TouchPasswordReset(ctx context.Context, username, passwordHash string, at time.Time) error {
	res, err := d.db.ExecContext(ctx,
		`update users set password_hash = $2, last_password_reset = $3 where username = $1`,
		username, passwordHash, at.UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (Principal, error) {
	var (
		p           Principal
		authorities string
		reset       sql.NullTime
		logout      sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.Division, &authorities, &reset, &logout)
	if err != nil {
		if err == sql.ErrNoRows {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	p.Roles = ParseRoleSet(strings.Split(authorities, ","))
	if reset.Valid {
		t := reset.Time
		p.LastPasswordReset = &t
	}
	if logout.Valid {
		t := logout.Time
		p.LastLogout = &t
	}
	return p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
