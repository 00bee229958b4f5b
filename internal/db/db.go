package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

// pragmas are applied to every pooled connection through the DSN, so settings
// such as foreign_keys hold no matter which connection serves a query.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Open opens a SQLite database connection and configures pragmas.
func Open(path string) (*sql.DB, error) {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")

	params := url.Values{}
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}
	if !memory {
		params.Add("_pragma", "journal_mode(WAL)")
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + params.Encode()
	} else {
		dsn += "?" + params.Encode()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every new connection to :memory: is a fresh, empty database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}
