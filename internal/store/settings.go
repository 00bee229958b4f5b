package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Settings keys.
const (
	SettingReceiptSecret   = "receipt_secret"
	SettingAdminSecretHash = "admin_secret_hash"
)

// GetSetting returns a stored setting, or "" if it is not set.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting, replacing any previous value.
func SetSetting(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// GetReceiptSecret retrieves the claim receipt signing secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetReceiptSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating receipt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		SettingReceiptSecret, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing receipt secret: %w", err)
	}

	// Either our insert or the existing value.
	secret, err := GetSetting(ctx, db, SettingReceiptSecret)
	if err != nil {
		return "", err
	}
	return secret, nil
}
