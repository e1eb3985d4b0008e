package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type PostgresDB struct {
	db  *sql.DB
	dsn string
}

// NewPostgresDB opens dsn with the named database/sql driver, "postgres"
// (lib/pq) or "pgx" (pgx stdlib).
func NewPostgresDB(driver, dsn string) (*PostgresDB, error) {
	d, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	p := &PostgresDB{db: d, dsn: dsn}
	if err := p.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresDB) Init() error {
	// rely on migrations to create tables; just verify connectivity
	if err := p.db.Ping(); err != nil {
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func (p *PostgresDB) CreateUser(ctx context.Context, publicID, name, passwordHash string, admin bool) (*User, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `INSERT INTO users(public_id,name,password,admin,created_at) VALUES($1,$2,$3,$4,now()) RETURNING id`, publicID, name, passwordHash, admin).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %q: %w", name, ErrConflict)
		}
		return nil, err
	}
	return &User{ID: id, PublicID: publicID, Name: name, Password: passwordHash, Admin: admin}, nil
}

func (p *PostgresDB) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id,public_id,name,password,admin FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (p *PostgresDB) GetUserByPublicID(ctx context.Context, publicID string) (*User, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id,public_id,name,password,admin FROM users WHERE public_id = $1`, publicID)
	return scanUser(row)
}

func (p *PostgresDB) GetUserByName(ctx context.Context, name string) (*User, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id,public_id,name,password,admin FROM users WHERE name = $1 ORDER BY id LIMIT 1`, name)
	return scanUser(row)
}

func (p *PostgresDB) UpdateUserName(ctx context.Context, publicID, name string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET name = $1 WHERE public_id = $2`, name, publicID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rename user %s: %w", publicID, ErrConflict)
		}
		return err
	}
	return expectOneRow(res)
}

func (p *PostgresDB) PromoteUser(ctx context.Context, publicID string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET admin = true WHERE public_id = $1`, publicID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// DeleteUser relies on the pets.owner_id foreign key cascading.
func (p *PostgresDB) DeleteUser(ctx context.Context, publicID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM users WHERE public_id = $1`, publicID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (p *PostgresDB) CreatePet(ctx context.Context, name string, ownerID int64) (*Pet, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `INSERT INTO pets(name,owner_id,created_at) VALUES($1,$2,now()) RETURNING id`, name, ownerID).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &Pet{ID: id, Name: name, OwnerID: ownerID}, nil
}

func (p *PostgresDB) ListPetsByOwner(ctx context.Context, ownerID int64) ([]*Pet, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id,name,owner_id FROM pets WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectPets(rows)
}

func (p *PostgresDB) GetPet(ctx context.Context, id, ownerID int64) (*Pet, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id,name,owner_id FROM pets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return scanPet(row)
}

func (p *PostgresDB) UpdatePetName(ctx context.Context, id, ownerID int64, name string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE pets SET name = $1 WHERE id = $2 AND owner_id = $3`, name, id, ownerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (p *PostgresDB) DeletePet(ctx context.Context, id, ownerID int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (p *PostgresDB) close() error { return p.db.Close() }
func (p *PostgresDB) ping() bool   { return p.db.Ping() == nil }
