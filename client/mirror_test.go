package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/erazemk/lostfound/internal/model"
)

func TestMirrorWriteThrough(t *testing.T) {
	b := setupBackend(t)
	m := NewMirror(New(b.URL))
	ctx := context.Background()

	if err := m.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.LoadedAt().IsZero() {
		t.Error("expected LoadedAt to be set")
	}

	item, err := m.AddItem(ctx, testItemInput())
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if IsLocal(item.ID) {
		t.Errorf("expected server id, got %q", item.ID)
	}
	if items := m.Items(); len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("expected mirrored item %s, got %+v", item.ID, items)
	}

	claim, receipt, err := m.SubmitClaim(ctx, testClaimInput(item.ID))
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if receipt == "" {
		t.Error("expected a receipt")
	}
	if len(m.PendingClaims()) != 1 {
		t.Fatalf("expected 1 pending claim")
	}

	if err := m.ResolveClaim(ctx, claim.ID, ""); err != nil {
		t.Fatalf("ResolveClaim: %v", err)
	}
	if len(m.PendingClaims()) != 0 {
		t.Error("expected no pending claims after resolve")
	}
	if m.Diverged() {
		t.Error("expected mirror in sync")
	}

	// Server agrees with the local state.
	if err := m.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	claims := m.Claims()
	if len(claims) != 1 || claims[0].Status != model.ClaimStatusResolved {
		t.Errorf("expected resolved claim after reload, got %+v", claims)
	}

	if err := m.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if len(m.Items()) != 0 || len(m.Claims()) != 0 {
		t.Error("expected item and claims removed locally")
	}
}

func TestMirrorDivergesOnFailure(t *testing.T) {
	b := setupBackend(t)
	m := NewMirror(New(b.URL))
	ctx := context.Background()

	item, err := m.AddItem(ctx, testItemInput())
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	b.down.Store(true)

	local, err := m.AddItem(ctx, ItemInput{
		Name:        "Umbrella",
		Description: "black",
		Building:    "Gym",
		DateFound:   "2025-03-03",
	})
	if err == nil {
		t.Fatal("expected write error during outage")
	}
	if !IsLocal(local.ID) {
		t.Errorf("expected local id, got %q", local.ID)
	}
	if len(m.Items()) != 2 {
		t.Errorf("expected optimistic item kept, got %d items", len(m.Items()))
	}

	if err := m.DeleteItem(ctx, item.ID); err == nil {
		t.Fatal("expected delete error during outage")
	}
	if !m.Diverged() {
		t.Fatal("expected mirror to be diverged")
	}
	if err := m.Reload(ctx); err == nil {
		t.Fatal("expected reload error during outage")
	}
	if !m.Diverged() {
		t.Error("failed reload should not clear divergence")
	}

	b.down.Store(false)

	if err := m.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.Diverged() {
		t.Error("expected reload to clear divergence")
	}
	items := m.Items()
	if len(items) != 1 || items[0].ID != item.ID {
		t.Errorf("expected server state to win, got %+v", items)
	}
}

func TestMirrorLocalOnlyRecords(t *testing.T) {
	b := setupBackend(t)
	m := NewMirror(New(b.URL))
	ctx := context.Background()

	b.down.Store(true)
	item, _ := m.AddItem(ctx, testItemInput())
	claim, receipt, err := m.SubmitClaim(ctx, testClaimInput(item.ID))
	if err == nil || receipt != "" {
		t.Fatalf("expected failed submit without receipt, got %q, %v", receipt, err)
	}
	b.down.Store(false)

	// Local-only records never reach the server.
	if err := m.ResolveClaim(ctx, claim.ID, ""); err != nil {
		t.Errorf("ResolveClaim on local claim: %v", err)
	}
	if err := m.DeleteClaim(ctx, claim.ID); err != nil {
		t.Errorf("DeleteClaim on local claim: %v", err)
	}
	if err := m.DeleteItem(ctx, item.ID); err != nil {
		t.Errorf("DeleteItem on local item: %v", err)
	}
	if len(m.Items()) != 0 || len(m.Claims()) != 0 {
		t.Error("expected mirror to be empty")
	}
}

func TestMirrorResolveTwiceKeepsResolutionTime(t *testing.T) {
	b := setupBackend(t)
	m := NewMirror(New(b.URL))
	ctx := context.Background()

	item, err := m.AddItem(ctx, testItemInput())
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	claim, _, err := m.SubmitClaim(ctx, testClaimInput(item.ID))
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if err := m.ResolveClaim(ctx, claim.ID, ""); err != nil {
		t.Fatalf("ResolveClaim: %v", err)
	}
	first := *m.Claims()[0].ResolvedDate

	err = m.ResolveClaim(ctx, claim.ID, "")
	if StatusOf(err) != http.StatusConflict {
		t.Fatalf("expected 409 on second resolve, got %v", err)
	}
	if got := *m.Claims()[0].ResolvedDate; !got.Equal(first) {
		t.Errorf("resolution time changed from %v to %v", first, got)
	}
	if m.Diverged() {
		t.Error("conflict on an already resolved claim should not mark the mirror diverged")
	}
}
