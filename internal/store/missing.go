package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

// NewMissingReport holds the fields a student submits when reporting a lost
// item.
type NewMissingReport struct {
	Name          string
	Description   string
	Building      string
	Room          string
	DateLost      *time.Time
	ReporterName  string
	ReporterEmail string
	ReportedBy    *string
}

func (n *NewMissingReport) validate() error {
	n.Name = strings.TrimSpace(n.Name)
	n.Description = strings.TrimSpace(n.Description)
	n.Building = strings.TrimSpace(n.Building)
	n.Room = strings.TrimSpace(n.Room)
	n.ReporterName = strings.TrimSpace(n.ReporterName)
	n.ReporterEmail = strings.TrimSpace(n.ReporterEmail)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", n.Name},
		{"description", n.Description},
		{"building", n.Building},
		{"reporterName", n.ReporterName},
		{"reporterEmail", n.ReporterEmail},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required: %w", strings.Join(missing, ", "), ErrValidation)
	}
	return nil
}

const reportColumns = `id, name, description, building, room, date_lost, reporter_name, reporter_email,
       reported_by, found_item_id, created_at`

func scanReport(s scanner, extra ...any) (*model.MissingReport, error) {
	r := &model.MissingReport{}
	var room sql.NullString
	dest := []any{&r.ID, &r.Name, &r.Description, &r.Building, &room, &r.DateLost, &r.ReporterName,
		&r.ReporterEmail, &r.ReportedBy, &r.FoundItemID, &r.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	r.Room = room.String
	return r, nil
}

// CreateMissingReport records a report of a lost item.
func CreateMissingReport(ctx context.Context, db *sql.DB, n NewMissingReport) (*model.MissingReport, error) {
	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("creating missing report: %w", err)
	}

	var dateLost *time.Time
	if n.DateLost != nil {
		d := n.DateLost.UTC()
		dateLost = &d
	}

	id := newID()
	_, err := db.ExecContext(ctx,
		`INSERT INTO missing_reports (id, name, description, building, room, date_lost, reporter_name,
		                              reporter_email, reported_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, n.Name, n.Description, n.Building, nullString(n.Room), dateLost, n.ReporterName,
		n.ReporterEmail, n.ReportedBy, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating missing report: %w", err)
	}

	return GetMissingReport(ctx, db, id)
}

// GetMissingReport returns an active missing report by ID.
func GetMissingReport(ctx context.Context, db *sql.DB, id string) (*model.MissingReport, error) {
	r, err := scanReport(db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM missing_reports WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting missing report: %w", err)
	}
	return r, nil
}

// ListMissingReports returns active missing reports, newest first.
func ListMissingReports(ctx context.Context, db *sql.DB) ([]model.MissingReport, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM missing_reports ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing missing reports: %w", err)
	}
	defer rows.Close()

	reports := []model.MissingReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning missing report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// MatchMissingReport links a missing report to the found item it describes.
// Matched reports are never archived.
func MatchMissingReport(ctx context.Context, db *sql.DB, id, itemID string) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM found_items WHERE id = ?`, itemID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("matching report to %s: %w", itemID, ErrItemNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking item: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE missing_reports SET found_item_id = ? WHERE id = ?`, itemID, id,
		)
		if err != nil {
			return fmt.Errorf("matching missing report: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("matching missing report %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ArchiveStaleReports moves every unmatched missing report created before
// cutoff into the archive and returns how many were moved. Running it again
// with the same cutoff moves nothing.
func ArchiveStaleReports(ctx context.Context, db *sql.DB, cutoff time.Time) (int, error) {
	cutoff = cutoff.UTC()
	var moved int64
	err := inTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO archived_reports (`+reportColumns+`, archived_at)
			 SELECT `+reportColumns+`, ?
			 FROM missing_reports
			 WHERE found_item_id IS NULL AND created_at < ?`,
			now(), cutoff,
		)
		if err != nil {
			return fmt.Errorf("archiving reports: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM missing_reports WHERE found_item_id IS NULL AND created_at < ?`, cutoff,
		)
		if err != nil {
			return fmt.Errorf("removing archived reports: %w", err)
		}
		moved, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(moved), nil
}

// ListArchivedReports returns archived reports, most recently archived first.
func ListArchivedReports(ctx context.Context, db *sql.DB) ([]model.ArchivedReport, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+reportColumns+`, archived_at FROM archived_reports ORDER BY archived_at DESC, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing archived reports: %w", err)
	}
	defer rows.Close()

	reports := []model.ArchivedReport{}
	for rows.Next() {
		var archivedAt time.Time
		r, err := scanReport(rows, &archivedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning archived report: %w", err)
		}
		reports = append(reports, model.ArchivedReport{MissingReport: *r, ArchivedAt: archivedAt})
	}
	return reports, rows.Err()
}
