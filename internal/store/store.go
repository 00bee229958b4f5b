// Package store implements the persistence operations of the lost-and-found
// service on top of database/sql.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/lostfound/internal/model"
)

// Sentinel errors returned by store operations. Callers match them with
// errors.Is; they are always wrapped with operation context.
var (
	ErrNotFound        = errors.New("not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrValidation      = errors.New("validation failed")
	ErrEmailTaken      = errors.New("email already registered")
	ErrAlreadyResolved = errors.New("claim already resolved")
)

// now returns the current time in UTC. Timestamps are always written from Go
// so that stored values compare correctly as text.
var now = func() time.Time { return time.Now().UTC() }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func newID() string {
	return uuid.NewString()
}

// inTx runs fn inside a transaction, committing on success.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rolling back transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// userSummary looks up the public view of an active user. A dangling or
// cleared weak reference yields nil.
func userSummary(ctx context.Context, q querier, id *string) (*model.UserSummary, error) {
	if id == nil || *id == "" {
		return nil, nil
	}

	s := &model.UserSummary{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, role FROM users WHERE id = ? AND deleted_at IS NULL`, *id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user summary: %w", err)
	}
	return s, nil
}
