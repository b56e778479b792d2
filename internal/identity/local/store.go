package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	uid           TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS reset_codes (
	code_hash  TEXT PRIMARY KEY,
	uid        TEXT NOT NULL REFERENCES accounts(uid) ON DELETE CASCADE,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS revoked_tokens (
	jti        TEXT PRIMARY KEY,
	expires_at INTEGER NOT NULL
);
`

type account struct {
	UID          string
	Email        string
	PasswordHash string
}

var errNotFound = errors.New("not found")

// store is the SQLite persistence of the local provider.
type store struct {
	db *sql.DB
}

// openStore opens the SQLite database at dsn and applies the schema.
func openStore(ctx context.Context, dsn string) (*store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory:
	// databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) insertAccount(ctx context.Context, a account, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (uid, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		a.UID, a.Email, a.PasswordHash, now.Unix())
	return err
}

func (s *store) accountByEmail(ctx context.Context, email string) (*account, error) {
	var a account
	err := s.db.QueryRowContext(ctx,
		`SELECT uid, email, password_hash FROM accounts WHERE email = ?`, email,
	).Scan(&a.UID, &a.Email, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *store) insertResetCode(ctx context.Context, codeHash, uid string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reset_codes (code_hash, uid, expires_at) VALUES (?, ?, ?)`,
		codeHash, uid, expiresAt.Unix())
	return err
}

// resetPassword replaces the password of the account owning codeHash and
// deletes every reset code of that account, in one transaction.
func (s *store) resetPassword(ctx context.Context, codeHash, passwordHash string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var uid string
	err = tx.QueryRowContext(ctx,
		`SELECT uid FROM reset_codes WHERE code_hash = ? AND expires_at > ?`, codeHash, now.Unix(),
	).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return errNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET password_hash = ? WHERE uid = ?`, passwordHash, uid); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reset_codes WHERE uid = ?`, uid); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *store) revokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`, jti, expiresAt.Unix())
	return err
}

func (s *store) tokenRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&n)
	return n > 0, err
}

// purge removes expired reset codes and revocations of expired tokens.
func (s *store) purge(ctx context.Context, now time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reset_codes WHERE expires_at <= ?`, now.Unix()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= ?`, now.Unix())
	return err
}

func (s *store) close() error {
	return s.db.Close()
}
