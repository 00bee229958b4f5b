package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/lostfound/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at, deleted_at`

func scanUser(s scanner) (*model.User, error) {
	u := &model.User{}
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user. The email must not belong to another active
// user.
func CreateUser(ctx context.Context, db *sql.DB, name, email, passwordHash, role string) (*model.User, error) {
	return createUser(ctx, db, name, email, passwordHash, role)
}

func createUser(ctx context.Context, q querier, name, email, passwordHash, role string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("creating user: name and email required: %w", ErrValidation)
	}
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("creating user: invalid role %q: %w", role, ErrValidation)
	}

	t := now()
	u := &model.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    t,
		UpdatedAt:    t,
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating user %q: %w", email, ErrEmailTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return u, nil
}

// GetUser returns a user by ID, including soft-deleted users.
func GetUser(ctx context.Context, db *sql.DB, id string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the active user with the given email. The match is
// exact.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser soft-deletes a user and clears every weak reference to it.
func DeleteUser(ctx context.Context, db *sql.DB, id string) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		t := now()
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
			t, t, id,
		)
		if err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("deleting user %s: %w", id, ErrNotFound)
		}

		clears := []string{
			`UPDATE found_items SET added_by = NULL WHERE added_by = ?`,
			`UPDATE claims SET claimed_by = NULL WHERE claimed_by = ?`,
			`UPDATE claims SET resolved_by = NULL WHERE resolved_by = ?`,
			`UPDATE missing_reports SET reported_by = NULL WHERE reported_by = ?`,
			`UPDATE archived_reports SET reported_by = NULL WHERE reported_by = ?`,
		}
		for _, q := range clears {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("clearing user references: %w", err)
			}
		}
		return nil
	})
}

// EnsureAdmin returns the admin account, creating it with the given email if no
// active admin exists. The created account has no password and can only be
// reached through the admin secret.
func EnsureAdmin(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	var admin *model.User
	err := inTx(ctx, db, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users
			 WHERE role = ? AND deleted_at IS NULL ORDER BY created_at LIMIT 1`,
			model.RoleAdmin,
		))
		if err == nil {
			admin = u
			return nil
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("finding admin: %w", err)
		}

		admin, err = createUser(ctx, tx, "Admin", email, "", model.RoleAdmin)
		return err
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}
