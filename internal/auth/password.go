// Package auth holds the credential checks of the service: student passwords
// and the shared admin secret. There are no sessions; each check stands alone.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/store"
)

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. An empty hash never
// matches.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// EnsureAdminSecret makes sure an admin secret is configured. A non-empty
// password replaces the stored secret. Otherwise an existing secret is kept,
// or a new one is generated and returned so the caller can show it once.
func EnsureAdminSecret(ctx context.Context, db *sql.DB, password string) (generated string, err error) {
	if password == "" {
		existing, err := store.GetSetting(ctx, db, store.SettingAdminSecretHash)
		if err != nil {
			return "", err
		}
		if existing != "" {
			return "", nil
		}

		buf := make([]byte, 18)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating admin secret: %w", err)
		}
		password = base64.RawURLEncoding.EncodeToString(buf)
		generated = password
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	if err := store.SetSetting(ctx, db, store.SettingAdminSecretHash, hash); err != nil {
		return "", err
	}
	return generated, nil
}

// CheckAdminSecret reports whether secret matches the stored admin secret.
func CheckAdminSecret(ctx context.Context, db *sql.DB, secret string) (bool, error) {
	hash, err := store.GetSetting(ctx, db, store.SettingAdminSecretHash)
	if err != nil {
		return false, err
	}
	return CheckPassword(hash, secret), nil
}
