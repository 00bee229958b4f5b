package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

func testItem(name string) NewItem {
	return NewItem{
		Name:        name,
		Description: "Found near the entrance",
		Building:    "Library",
		DateFound:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

// withClock makes now() advance by one second per call.
func withClock(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	orig := now
	now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	t.Cleanup(func() { now = orig })
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	staff, _ := CreateUser(ctx, database, "Staff", "staff@crimson.ua.edu", "h", model.RoleAdmin)

	n := testItem("Blue Backpack")
	n.Room = "204"
	n.AddedBy = &staff.ID
	item, err := CreateItem(ctx, database, n)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Blue Backpack" || item.Room != "204" {
		t.Errorf("unexpected item: %+v", item)
	}
	if !item.DateFound.Equal(n.DateFound) {
		t.Errorf("expected dateFound %v, got %v", n.DateFound, item.DateFound)
	}
	if item.HasImage {
		t.Error("expected no image")
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.AddedByUser == nil || got.AddedByUser.Name != "Staff" {
		t.Errorf("expected addedByUser Staff, got %+v", got.AddedByUser)
	}

	missing, err := GetItem(ctx, database, "nope")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing item")
	}
}

func TestCreateItemValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	n := testItem("  ")
	n.DateFound = time.Time{}
	_, err := CreateItem(ctx, database, n)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	items, _ := ListItems(ctx, database)
	if len(items) != 0 {
		t.Errorf("expected nothing persisted, got %d items", len(items))
	}
}

func TestListItemsNewestFirst(t *testing.T) {
	withClock(t)
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := CreateItem(ctx, database, testItem(name)); err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
	}

	items, err := ListItems(ctx, database)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Name != "third" || items[2].Name != "first" {
		t.Errorf("expected newest first, got %s, %s, %s", items[0].Name, items[1].Name, items[2].Name)
	}
}

func TestDeleteItemCascadesClaims(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Keys"))
	c1, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))
	c2, _ := CreateClaim(ctx, database, testClaim(item.ID, nil))
	DeleteClaim(ctx, database, c2.ID)

	other, _ := CreateItem(ctx, database, testItem("Wallet"))
	c3, _ := CreateClaim(ctx, database, testClaim(other.ID, nil))

	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	for _, id := range []string{c1.ID, c2.ID} {
		got, err := GetClaim(ctx, database, id)
		if err != nil {
			t.Fatalf("GetClaim: %v", err)
		}
		if got != nil {
			t.Errorf("expected claim %s to be gone", id)
		}
	}

	audit, _ := ListClaimAudit(ctx, database)
	if len(audit) != 1 || audit[0].ID != c3.ID {
		t.Errorf("expected only the unrelated claim to survive, got %d claims", len(audit))
	}

	if err := DeleteItem(ctx, database, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, testItem("Phone"))

	data, _, err := GetItemImage(ctx, database, item.ID, false)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if data != nil {
		t.Error("expected no image yet")
	}

	if err := SetItemImage(ctx, database, item.ID, []byte("full"), []byte("thumb"), "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}

	data, mime, _ := GetItemImage(ctx, database, item.ID, false)
	if string(data) != "full" || mime != "image/jpeg" {
		t.Errorf("unexpected image %q (%s)", data, mime)
	}
	thumb, _, _ := GetItemImage(ctx, database, item.ID, true)
	if string(thumb) != "thumb" {
		t.Errorf("unexpected thumbnail %q", thumb)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if !got.HasImage {
		t.Error("expected hasImage after upload")
	}

	if err := SetItemImage(ctx, database, "nope", []byte("x"), []byte("x"), "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
