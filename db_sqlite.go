package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite DB
type SQLiteDB struct {
	db   *sql.DB
	path string
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps writers serialized and the pragma below in effect
	d.SetMaxOpenConns(1)
	s := &SQLiteDB{db: d, path: path}
	if err := s.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteDB) Init() error {
	queries := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY AUTOINCREMENT, public_id TEXT NOT NULL UNIQUE, name TEXT NOT NULL DEFAULT '', password TEXT NOT NULL, admin INTEGER NOT NULL DEFAULT 0, created_at TEXT);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_name_key ON users(name) WHERE name <> '';`,
		`CREATE TABLE IF NOT EXISTS pets (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE, created_at TEXT);`,
		`CREATE INDEX IF NOT EXISTS pets_owner_id_idx ON pets(owner_id);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("sqlite init: %w", err)
		}
	}
	return nil
}

func sqliteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func (s *SQLiteDB) CreateUser(ctx context.Context, publicID, name, passwordHash string, admin bool) (*User, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users(public_id,name,password,admin,created_at) VALUES(?,?,?,?,datetime('now'))`, publicID, name, passwordHash, admin)
	if err != nil {
		if sqliteUniqueViolation(err) {
			return nil, fmt.Errorf("create user %q: %w", name, ErrConflict)
		}
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, PublicID: publicID, Name: name, Password: passwordHash, Admin: admin}, nil
}

func (s *SQLiteDB) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,public_id,name,password,admin FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *SQLiteDB) GetUserByPublicID(ctx context.Context, publicID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,public_id,name,password,admin FROM users WHERE public_id = ?`, publicID)
	return scanUser(row)
}

func (s *SQLiteDB) GetUserByName(ctx context.Context, name string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,public_id,name,password,admin FROM users WHERE name = ? ORDER BY id LIMIT 1`, name)
	return scanUser(row)
}

func (s *SQLiteDB) UpdateUserName(ctx context.Context, publicID, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET name = ? WHERE public_id = ?`, name, publicID)
	if err != nil {
		if sqliteUniqueViolation(err) {
			return fmt.Errorf("rename user %s: %w", publicID, ErrConflict)
		}
		return err
	}
	return expectOneRow(res)
}

func (s *SQLiteDB) PromoteUser(ctx context.Context, publicID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET admin = 1 WHERE public_id = ?`, publicID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// DeleteUser removes the user and their pets in one transaction. Pets are
// deleted explicitly so the cascade does not depend on the foreign_keys pragma.
func (s *SQLiteDB) DeleteUser(ctx context.Context, publicID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pets WHERE owner_id = (SELECT id FROM users WHERE public_id = ?)`, publicID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE public_id = ?`, publicID)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteDB) CreatePet(ctx context.Context, name string, ownerID int64) (*Pet, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO pets(name,owner_id,created_at) VALUES(?,?,datetime('now'))`, name, ownerID)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &Pet{ID: id, Name: name, OwnerID: ownerID}, nil
}

func (s *SQLiteDB) ListPetsByOwner(ctx context.Context, ownerID int64) ([]*Pet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,owner_id FROM pets WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectPets(rows)
}

func (s *SQLiteDB) GetPet(ctx context.Context, id, ownerID int64) (*Pet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,owner_id FROM pets WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanPet(row)
}

func (s *SQLiteDB) UpdatePetName(ctx context.Context, id, ownerID int64, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE pets SET name = ? WHERE id = ? AND owner_id = ?`, name, id, ownerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *SQLiteDB) DeletePet(ctx context.Context, id, ownerID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *SQLiteDB) close() error { return s.db.Close() }
func (s *SQLiteDB) ping() bool   { return s.db.Ping() == nil }

// helpers shared by the sql-backed stores

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.PublicID, &u.Name, &u.Password, &u.Admin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanPet(row rowScanner) (*Pet, error) {
	var p Pet
	if err := row.Scan(&p.ID, &p.Name, &p.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectUsers(rows *sql.Rows) ([]*User, error) {
	defer rows.Close()
	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func collectPets(rows *sql.Rows) ([]*Pet, error) {
	defer rows.Close()
	pets := []*Pet{}
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
