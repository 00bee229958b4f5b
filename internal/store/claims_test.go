package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

func testClaim(itemID string, claimedBy *string) NewClaim {
	return NewClaim{
		ItemID:           itemID,
		ClaimerName:      "Alice",
		ClaimerEmail:     "alice@crimson.ua.edu",
		LastSeenBuilding: "Library",
		OwnershipDetails: "has my initials on the tag",
		ClaimDate:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		ClaimedBy:        claimedBy,
	}
}

func TestCreateClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Blue Backpack"))
	claim, err := CreateClaim(ctx, database, testClaim(item.ID, nil))
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if claim.Status != model.ClaimStatusPending {
		t.Errorf("expected pending, got %q", claim.Status)
	}
	if claim.DateSubmitted.IsZero() {
		t.Error("expected dateSubmitted to be stamped")
	}
	if claim.ResolvedDate != nil || claim.ResolvedBy != nil {
		t.Error("expected no resolution metadata")
	}
	if claim.Item == nil || claim.Item.ID != item.ID {
		t.Errorf("expected item populated, got %+v", claim.Item)
	}
}

func TestCreateClaimMissingItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateClaim(ctx, database, testClaim("does-not-exist", nil))
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	audit, _ := ListClaimAudit(ctx, database)
	if len(audit) != 0 {
		t.Errorf("expected nothing persisted, got %d claims", len(audit))
	}
}

func TestCreateClaimUnknownClaimant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Laptop"))
	ghost := "no-such-user"
	claim, err := CreateClaim(ctx, database, testClaim(item.ID, &ghost))
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if claim.ClaimedBy == nil || *claim.ClaimedBy != ghost {
		t.Errorf("expected claimedBy to be kept, got %v", claim.ClaimedBy)
	}
	if claim.ClaimedByUser != nil {
		t.Error("expected no claimant summary for unknown user")
	}
}

func TestCreateClaimValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Laptop"))
	n := testClaim(item.ID, nil)
	n.OwnershipDetails = ""
	if _, err := CreateClaim(ctx, database, n); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListViewsExcludeDeleted(t *testing.T) {
	withClock(t)
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Watch"))
	pending, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))
	resolved, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))
	deleted, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))

	if err := ResolveClaim(ctx, database, resolved.ID, nil); err != nil {
		t.Fatalf("ResolveClaim: %v", err)
	}
	if err := DeleteClaim(ctx, database, deleted.ID); err != nil {
		t.Fatalf("DeleteClaim: %v", err)
	}

	all, _ := ListClaims(ctx, database, "")
	pend, _ := ListPendingClaims(ctx, database)
	audit, _ := ListClaimAudit(ctx, database)

	ids := func(claims []model.Claim) map[string]bool {
		m := map[string]bool{}
		for _, c := range claims {
			m[c.ID] = true
		}
		return m
	}
	allIDs, pendIDs, auditIDs := ids(all), ids(pend), ids(audit)

	for id := range pendIDs {
		if !allIDs[id] {
			t.Errorf("pending claim %s missing from list", id)
		}
	}
	for id := range allIDs {
		if !auditIDs[id] {
			t.Errorf("listed claim %s missing from audit", id)
		}
	}
	if allIDs[deleted.ID] || pendIDs[deleted.ID] {
		t.Error("soft-deleted claim visible in default views")
	}
	if !auditIDs[deleted.ID] {
		t.Error("soft-deleted claim missing from audit")
	}
	if len(pend) != 1 || pend[0].ID != pending.ID {
		t.Errorf("expected only the pending claim, got %d", len(pend))
	}
	if len(all) != 2 || all[0].ID != resolved.ID {
		t.Errorf("expected 2 claims newest first, got %d", len(all))
	}
	if all[0].Item == nil || all[0].Item.Name != "Watch" {
		t.Error("expected item populated in list")
	}

	resolvedOnly, _ := ListClaims(ctx, database, model.ClaimStatusResolved)
	if len(resolvedOnly) != 1 || resolvedOnly[0].ID != resolved.ID {
		t.Errorf("expected only the resolved claim, got %d", len(resolvedOnly))
	}

	if _, err := ListClaims(ctx, database, "approved"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestResolveClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin, _ := EnsureAdmin(ctx, database, "admin@university.edu")
	item, _ := CreateItem(ctx, database, testItem("Bike lock"))
	claim, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))

	if err := ResolveClaim(ctx, database, claim.ID, &admin.ID); err != nil {
		t.Fatalf("ResolveClaim: %v", err)
	}

	got, _ := GetClaim(ctx, database, claim.ID)
	if got.Status != model.ClaimStatusResolved {
		t.Errorf("expected resolved, got %q", got.Status)
	}
	if got.ResolvedDate == nil || got.ResolvedDate.Before(got.DateSubmitted) {
		t.Errorf("expected resolvedDate >= dateSubmitted, got %v vs %v", got.ResolvedDate, got.DateSubmitted)
	}
	if got.ResolvedByUser == nil || got.ResolvedByUser.ID != admin.ID {
		t.Errorf("expected resolver populated, got %+v", got.ResolvedByUser)
	}
}

func TestResolveClaimTwiceConflicts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Scarf"))
	claim, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))
	ResolveClaim(ctx, database, claim.ID, nil)
	first, _ := GetClaim(ctx, database, claim.ID)

	err := ResolveClaim(ctx, database, claim.ID, nil)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	second, _ := GetClaim(ctx, database, claim.ID)
	if !second.ResolvedDate.Equal(*first.ResolvedDate) {
		t.Errorf("resolution time changed: %v -> %v", first.ResolvedDate, second.ResolvedDate)
	}
}

func TestResolveClaimNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := ResolveClaim(ctx, database, "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	item, _ := CreateItem(ctx, database, testItem("Hat"))
	claim, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))
	DeleteClaim(ctx, database, claim.ID)

	if err := ResolveClaim(ctx, database, claim.ID, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted claim, got %v", err)
	}

	audit, _ := ListClaimAudit(ctx, database)
	if audit[0].Status != model.ClaimStatusPending || audit[0].ResolvedDate != nil {
		t.Error("expected deleted claim to stay untouched")
	}
}

func TestDeleteClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Glasses"))
	claim, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))

	if err := DeleteClaim(ctx, database, claim.ID); err != nil {
		t.Fatalf("DeleteClaim: %v", err)
	}
	if got, _ := GetClaim(ctx, database, claim.ID); got != nil {
		t.Error("expected deleted claim to be hidden")
	}
	if err := DeleteClaim(ctx, database, claim.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	status, err := GetClaimStatus(ctx, database, claim.ID)
	if err != nil {
		t.Fatalf("GetClaimStatus: %v", err)
	}
	if status == nil || status.DeletedAt == nil || status.Status != model.ClaimStatusPending {
		t.Errorf("unexpected status lookup result: %+v", status)
	}
}
