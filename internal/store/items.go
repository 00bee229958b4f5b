package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

// NewItem holds the fields supplied when logging a found item.
type NewItem struct {
	Name        string
	Description string
	Building    string
	Room        string
	DateFound   time.Time
	AddedBy     *string
}

func (n *NewItem) validate() error {
	n.Name = strings.TrimSpace(n.Name)
	n.Description = strings.TrimSpace(n.Description)
	n.Building = strings.TrimSpace(n.Building)
	n.Room = strings.TrimSpace(n.Room)

	var missing []string
	if n.Name == "" {
		missing = append(missing, "name")
	}
	if n.Description == "" {
		missing = append(missing, "description")
	}
	if n.Building == "" {
		missing = append(missing, "building")
	}
	if n.DateFound.IsZero() {
		missing = append(missing, "dateFound")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required: %w", strings.Join(missing, ", "), ErrValidation)
	}
	return nil
}

// The added_by join only matches active users, so a dangling reference reads
// as no user.
const itemSelect = `
SELECT i.id, i.name, i.description, i.building, i.room, i.date_found, i.added_by,
       i.image IS NOT NULL, i.created_at, i.updated_at,
       u.id, u.name, u.email, u.role
FROM found_items i
LEFT JOIN users u ON u.id = i.added_by AND u.deleted_at IS NULL`

func scanItem(s scanner) (*model.FoundItem, error) {
	item := &model.FoundItem{}
	var room sql.NullString
	var userID, userName, userEmail, userRole sql.NullString
	err := s.Scan(&item.ID, &item.Name, &item.Description, &item.Building, &room, &item.DateFound,
		&item.AddedBy, &item.HasImage, &item.CreatedAt, &item.UpdatedAt,
		&userID, &userName, &userEmail, &userRole)
	if err != nil {
		return nil, err
	}
	item.Room = room.String
	if userID.Valid {
		item.AddedByUser = &model.UserSummary{
			ID:    userID.String,
			Name:  userName.String,
			Email: userEmail.String,
			Role:  userRole.String,
		}
	}
	return item, nil
}

// CreateItem logs a new found item.
func CreateItem(ctx context.Context, db *sql.DB, n NewItem) (*model.FoundItem, error) {
	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id := newID()
	t := now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO found_items (id, name, description, building, room, date_found, added_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, n.Name, n.Description, n.Building, nullString(n.Room), n.DateFound.UTC(), n.AddedBy, t, t,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns a found item by ID with its addedByUser populated.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.FoundItem, error) {
	item, err := scanItem(db.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all found items, newest first.
func ListItems(ctx context.Context, db *sql.DB) ([]model.FoundItem, error) {
	rows, err := db.QueryContext(ctx, itemSelect+` ORDER BY i.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.FoundItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// DeleteItem hard-deletes a found item together with every claim on it,
// soft-deleted claims included. Missing reports matched to it are unmatched.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE item_id = ?`, id); err != nil {
			return fmt.Errorf("deleting claims of item: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM found_items WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("deleting item %s: %w", id, ErrNotFound)
		}

		// Reports matched to the item become unmatched again.
		for _, table := range []string{"missing_reports", "archived_reports"} {
			if _, err := tx.ExecContext(ctx,
				`UPDATE `+table+` SET found_item_id = NULL WHERE found_item_id = ?`, id,
			); err != nil {
				return fmt.Errorf("unmatching %s: %w", table, err)
			}
		}
		return nil
	})
}

// SetItemImage stores a photo and its thumbnail for an item.
func SetItemImage(ctx context.Context, db *sql.DB, id string, image, thumbnail []byte, mime string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE found_items SET image = ?, thumbnail = ?, image_mime = ?, updated_at = ? WHERE id = ?`,
		image, thumbnail, mime, now(), id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("setting item image %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetItemImage returns an item's photo, or its thumbnail when thumb is set.
// Returns nil data when the item has no photo.
func GetItemImage(ctx context.Context, db *sql.DB, id string, thumb bool) ([]byte, string, error) {
	column := "image"
	if thumb {
		column = "thumbnail"
	}

	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+column+`, image_mime FROM found_items WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, mime.String, nil
}
