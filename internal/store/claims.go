package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

// NewClaim holds the fields a student submits when claiming a found item.
type NewClaim struct {
	ItemID           string
	ClaimerName      string
	ClaimerEmail     string
	LastSeenBuilding string
	LastSeenRoom     string
	OwnershipDetails string
	ClaimDate        time.Time
	ClaimedBy        *string
}

func (n *NewClaim) validate() error {
	n.ItemID = strings.TrimSpace(n.ItemID)
	n.ClaimerName = strings.TrimSpace(n.ClaimerName)
	n.ClaimerEmail = strings.TrimSpace(n.ClaimerEmail)
	n.LastSeenBuilding = strings.TrimSpace(n.LastSeenBuilding)
	n.LastSeenRoom = strings.TrimSpace(n.LastSeenRoom)
	n.OwnershipDetails = strings.TrimSpace(n.OwnershipDetails)

	var missing []string
	if n.ItemID == "" {
		missing = append(missing, "itemId")
	}
	if n.ClaimerName == "" {
		missing = append(missing, "claimerName")
	}
	if n.ClaimerEmail == "" {
		missing = append(missing, "claimerEmail")
	}
	if n.LastSeenBuilding == "" {
		missing = append(missing, "lastSeenBuilding")
	}
	if n.OwnershipDetails == "" {
		missing = append(missing, "ownershipDetails")
	}
	if n.ClaimDate.IsZero() {
		missing = append(missing, "claimDate")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required: %w", strings.Join(missing, ", "), ErrValidation)
	}
	return nil
}

const claimSelect = `
SELECT c.id, c.item_id, c.claimer_name, c.claimer_email, c.last_seen_building, c.last_seen_room,
       c.ownership_details, c.claim_date, c.date_submitted, c.claimed_by, c.status,
       c.resolved_date, c.resolved_by, c.deleted_at, c.created_at, c.updated_at,
       i.id, i.name, i.description, i.building, i.room, i.date_found, i.added_by,
       i.image IS NOT NULL, i.created_at, i.updated_at
FROM claims c
LEFT JOIN found_items i ON i.id = c.item_id`

func scanClaim(s scanner) (*model.Claim, error) {
	c := &model.Claim{}
	var lastSeenRoom sql.NullString
	var itemID, itemName, itemDesc, itemBuilding, itemRoom, itemAddedBy sql.NullString
	var itemDateFound, itemCreated, itemUpdated *time.Time
	var itemHasImage sql.NullBool

	err := s.Scan(&c.ID, &c.ItemID, &c.ClaimerName, &c.ClaimerEmail, &c.LastSeenBuilding, &lastSeenRoom,
		&c.OwnershipDetails, &c.ClaimDate, &c.DateSubmitted, &c.ClaimedBy, &c.Status,
		&c.ResolvedDate, &c.ResolvedBy, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
		&itemID, &itemName, &itemDesc, &itemBuilding, &itemRoom, &itemDateFound, &itemAddedBy,
		&itemHasImage, &itemCreated, &itemUpdated)
	if err != nil {
		return nil, err
	}
	c.LastSeenRoom = lastSeenRoom.String

	if itemID.Valid {
		c.Item = &model.FoundItem{
			ID:          itemID.String,
			Name:        itemName.String,
			Description: itemDesc.String,
			Building:    itemBuilding.String,
			Room:        itemRoom.String,
			HasImage:    itemHasImage.Bool,
		}
		if itemAddedBy.Valid {
			c.Item.AddedBy = &itemAddedBy.String
		}
		if itemDateFound != nil {
			c.Item.DateFound = *itemDateFound
		}
		if itemCreated != nil {
			c.Item.CreatedAt = *itemCreated
		}
		if itemUpdated != nil {
			c.Item.UpdatedAt = *itemUpdated
		}
	}
	return c, nil
}

func queryClaims(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	claims := []model.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// CreateClaim records a pending claim against an existing found item. If the
// item does not exist nothing is persisted and ErrItemNotFound is returned.
func CreateClaim(ctx context.Context, db *sql.DB, n NewClaim) (*model.Claim, error) {
	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id := newID()
	err := inTx(ctx, db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM found_items WHERE id = ?`, n.ItemID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("creating claim for %s: %w", n.ItemID, ErrItemNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking item: %w", err)
		}

		if n.ClaimedBy != nil {
			claimant, err := userSummary(ctx, tx, n.ClaimedBy)
			if err != nil {
				return err
			}
			if claimant == nil {
				slog.Warn("claim references unknown user", "claimed_by", *n.ClaimedBy, "item", n.ItemID)
			}
		}

		t := now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO claims (id, item_id, claimer_name, claimer_email, last_seen_building, last_seen_room,
			                     ownership_details, claim_date, date_submitted, claimed_by, status,
			                     created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, n.ItemID, n.ClaimerName, n.ClaimerEmail, n.LastSeenBuilding, nullString(n.LastSeenRoom),
			n.OwnershipDetails, n.ClaimDate.UTC(), t, n.ClaimedBy, model.ClaimStatusPending, t, t,
		)
		if err != nil {
			return fmt.Errorf("creating claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetClaim(ctx, db, id)
}

// GetClaim returns a non-deleted claim with its item, claimant and resolver
// populated.
func GetClaim(ctx context.Context, db *sql.DB, id string) (*model.Claim, error) {
	c, err := scanClaim(db.QueryRowContext(ctx,
		claimSelect+` WHERE c.id = ? AND c.deleted_at IS NULL`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}

	if c.ClaimedByUser, err = userSummary(ctx, db, c.ClaimedBy); err != nil {
		return nil, err
	}
	if c.ResolvedByUser, err = userSummary(ctx, db, c.ResolvedBy); err != nil {
		return nil, err
	}
	return c, nil
}

// ListClaims returns non-deleted claims, newest submission first, with their
// items populated. An empty status returns every claim.
func ListClaims(ctx context.Context, db *sql.DB, status string) ([]model.Claim, error) {
	if status == "" {
		return queryClaims(ctx, db,
			claimSelect+` WHERE c.deleted_at IS NULL ORDER BY c.date_submitted DESC`)
	}
	if !model.ValidClaimStatus(status) {
		return nil, fmt.Errorf("listing claims: unknown status %q: %w", status, ErrValidation)
	}
	return queryClaims(ctx, db,
		claimSelect+` WHERE c.deleted_at IS NULL AND c.status = ? ORDER BY c.date_submitted DESC`, status)
}

// ListPendingClaims returns the claims still awaiting an administrator.
func ListPendingClaims(ctx context.Context, db *sql.DB) ([]model.Claim, error) {
	return ListClaims(ctx, db, model.ClaimStatusPending)
}

// ListClaimAudit returns every claim ever recorded, soft-deleted ones
// included.
func ListClaimAudit(ctx context.Context, db *sql.DB) ([]model.Claim, error) {
	return queryClaims(ctx, db, claimSelect+` ORDER BY c.date_submitted DESC`)
}

// ResolveClaim marks a pending claim as resolved, stamping the resolution date
// and resolver. A claim can only be resolved once.
func ResolveClaim(ctx context.Context, db *sql.DB, id string, resolvedBy *string) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		var status string
		var deletedAt *time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT status, deleted_at FROM claims WHERE id = ?`, id,
		).Scan(&status, &deletedAt)
		if err == sql.ErrNoRows || (err == nil && deletedAt != nil) {
			return fmt.Errorf("resolving claim %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("resolving claim: %w", err)
		}
		if status == model.ClaimStatusResolved {
			return fmt.Errorf("resolving claim %s: %w", id, ErrAlreadyResolved)
		}

		t := now()
		_, err = tx.ExecContext(ctx,
			`UPDATE claims SET status = ?, resolved_date = ?, resolved_by = ?, updated_at = ? WHERE id = ?`,
			model.ClaimStatusResolved, t, resolvedBy, t, id,
		)
		if err != nil {
			return fmt.Errorf("resolving claim: %w", err)
		}
		return nil
	})
}

// DeleteClaim soft-deletes a claim. Its status is left untouched.
func DeleteClaim(ctx context.Context, db *sql.DB, id string) error {
	t := now()
	res, err := db.ExecContext(ctx,
		`UPDATE claims SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		t, t, id,
	)
	if err != nil {
		return fmt.Errorf("deleting claim: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting claim %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetClaimStatus returns the status of a claim regardless of soft deletion,
// for receipt lookups. Returns (nil, nil) if the claim never existed or its
// item was removed.
func GetClaimStatus(ctx context.Context, db *sql.DB, id string) (*model.Claim, error) {
	c, err := scanClaim(db.QueryRowContext(ctx, claimSelect+` WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim status: %w", err)
	}
	return c, nil
}
