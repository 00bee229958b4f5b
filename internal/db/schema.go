package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// added_by, claimed_by, resolved_by and reported_by are weak references to
// users: plain ids without a foreign key, cleared explicitly when a user is
// deleted. claims.item_id is the only owning relation.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('student', 'admin')),
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS found_items (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL,
    building    TEXT NOT NULL,
    room        TEXT,
    date_found  DATETIME NOT NULL,
    added_by    TEXT,
    image       BLOB,
    thumbnail   BLOB,
    image_mime  TEXT,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS claims (
    id                 TEXT PRIMARY KEY,
    item_id            TEXT NOT NULL REFERENCES found_items(id) ON DELETE CASCADE,
    claimer_name       TEXT NOT NULL,
    claimer_email      TEXT NOT NULL,
    last_seen_building TEXT NOT NULL,
    last_seen_room     TEXT,
    ownership_details  TEXT NOT NULL,
    claim_date         DATETIME NOT NULL,
    date_submitted     DATETIME NOT NULL,
    claimed_by         TEXT,
    status             TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'resolved')),
    resolved_date      DATETIME,
    resolved_by        TEXT,
    deleted_at         DATETIME,
    created_at         DATETIME NOT NULL,
    updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_item_id ON claims(item_id);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);

CREATE TABLE IF NOT EXISTS missing_reports (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL,
    building       TEXT NOT NULL,
    room           TEXT,
    date_lost      DATETIME,
    reporter_name  TEXT NOT NULL,
    reporter_email TEXT NOT NULL,
    reported_by    TEXT,
    found_item_id  TEXT,
    created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS archived_reports (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL,
    building       TEXT NOT NULL,
    room           TEXT,
    date_lost      DATETIME,
    reporter_name  TEXT NOT NULL,
    reporter_email TEXT NOT NULL,
    reported_by    TEXT,
    found_item_id  TEXT,
    created_at     DATETIME NOT NULL,
    archived_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
