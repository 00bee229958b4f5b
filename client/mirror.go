package client

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/lostfound/internal/model"
)

// localPrefix marks records that exist only in the mirror.
const localPrefix = "local-"

// Mirror keeps a local copy of items and claims for a front-end. Mutations
// apply locally first and are then written through to the server. A failed
// write leaves the mirror diverged until the next Reload, which replaces
// local state with the server's.
type Mirror struct {
	client *Client

	mu       sync.RWMutex
	items    []model.FoundItem
	claims   []model.Claim
	diverged bool
	loadedAt time.Time
}

// NewMirror creates an empty mirror backed by c.
func NewMirror(c *Client) *Mirror {
	return &Mirror{client: c}
}

// IsLocal reports whether id was assigned by the mirror and not the server.
func IsLocal(id string) bool {
	return strings.HasPrefix(id, localPrefix)
}

// Reload fetches items and claims from the server and replaces local state.
func (m *Mirror) Reload(ctx context.Context) error {
	items, err := m.client.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("reloading items: %w", err)
	}
	claims, err := m.client.ListClaims(ctx, "")
	if err != nil {
		return fmt.Errorf("reloading claims: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	m.claims = claims
	m.diverged = false
	m.loadedAt = time.Now()
	return nil
}

// Diverged reports whether a write failed since the last Reload.
func (m *Mirror) Diverged() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.diverged
}

// LoadedAt returns the time of the last successful Reload.
func (m *Mirror) LoadedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadedAt
}

// Items returns a copy of the mirrored items.
func (m *Mirror) Items() []model.FoundItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items)
}

// Claims returns a copy of the mirrored claims.
func (m *Mirror) Claims() []model.Claim {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.claims)
}

// PendingClaims returns the mirrored claims that are still pending.
func (m *Mirror) PendingClaims() []model.Claim {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pending []model.Claim
	for _, c := range m.claims {
		if c.Status == model.ClaimStatusPending {
			pending = append(pending, c)
		}
	}
	return pending
}

// AddItem records a found item locally and writes it to the server. On
// failure the local item keeps a mirror-assigned id and the error is returned.
func (m *Mirror) AddItem(ctx context.Context, in ItemInput) (model.FoundItem, error) {
	now := time.Now().UTC()
	dateFound, _ := time.Parse(time.DateOnly, in.DateFound)
	local := model.FoundItem{
		ID:          localPrefix + uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Building:    in.Building,
		Room:        in.Room,
		DateFound:   dateFound,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.AddedBy != "" {
		local.AddedBy = &in.AddedBy
	}

	m.mu.Lock()
	m.items = append([]model.FoundItem{local}, m.items...)
	m.mu.Unlock()

	created, err := m.client.CreateItem(ctx, in)
	if err != nil {
		m.markDiverged()
		return local, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.itemIndex(local.ID); i >= 0 {
		m.items[i] = *created
	}
	return *created, nil
}

// DeleteItem removes an item and its claims locally and on the server.
func (m *Mirror) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	m.items = slices.DeleteFunc(m.items, func(it model.FoundItem) bool { return it.ID == id })
	m.claims = slices.DeleteFunc(m.claims, func(c model.Claim) bool { return c.ItemID == id })
	m.mu.Unlock()

	if IsLocal(id) {
		return nil
	}
	if err := m.client.DeleteItem(ctx, id); err != nil {
		m.markDiverged()
		return err
	}
	return nil
}

// SubmitClaim records a pending claim locally and submits it. The receipt is
// empty when the server write fails.
func (m *Mirror) SubmitClaim(ctx context.Context, in ClaimInput) (model.Claim, string, error) {
	now := time.Now().UTC()
	claimDate, _ := time.Parse(time.DateOnly, in.ClaimDate)
	local := model.Claim{
		ID:               localPrefix + uuid.NewString(),
		ItemID:           in.ItemID,
		ClaimerName:      in.ClaimerName,
		ClaimerEmail:     in.ClaimerEmail,
		LastSeenBuilding: in.LastSeenBuilding,
		LastSeenRoom:     in.LastSeenRoom,
		OwnershipDetails: in.OwnershipDetails,
		ClaimDate:        claimDate,
		DateSubmitted:    now,
		Status:           model.ClaimStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.ClaimedBy != "" {
		local.ClaimedBy = &in.ClaimedBy
	}

	m.mu.Lock()
	m.claims = append([]model.Claim{local}, m.claims...)
	m.mu.Unlock()

	submitted, err := m.client.SubmitClaim(ctx, in)
	if err != nil {
		m.markDiverged()
		return local, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.claimIndex(local.ID); i >= 0 {
		m.claims[i] = submitted.Claim
	}
	return submitted.Claim, submitted.Receipt, nil
}

// ResolveClaim marks a claim resolved locally and on the server. A claim that
// is already resolved keeps its local resolution time.
func (m *Mirror) ResolveClaim(ctx context.Context, id, resolvedBy string) error {
	now := time.Now().UTC()

	m.mu.Lock()
	if i := m.claimIndex(id); i >= 0 && m.claims[i].Status != model.ClaimStatusResolved {
		m.claims[i].Status = model.ClaimStatusResolved
		m.claims[i].ResolvedDate = &now
		m.claims[i].UpdatedAt = now
		if resolvedBy != "" {
			m.claims[i].ResolvedBy = &resolvedBy
		}
	}
	m.mu.Unlock()

	if IsLocal(id) {
		return nil
	}
	if err := m.client.ResolveClaim(ctx, id, resolvedBy); err != nil {
		// Conflict means the server already holds it resolved.
		if StatusOf(err) != http.StatusConflict {
			m.markDiverged()
		}
		return err
	}
	return nil
}

// DeleteClaim withdraws a claim locally and on the server.
func (m *Mirror) DeleteClaim(ctx context.Context, id string) error {
	m.mu.Lock()
	m.claims = slices.DeleteFunc(m.claims, func(c model.Claim) bool { return c.ID == id })
	m.mu.Unlock()

	if IsLocal(id) {
		return nil
	}
	if err := m.client.DeleteClaim(ctx, id); err != nil {
		m.markDiverged()
		return err
	}
	return nil
}

func (m *Mirror) markDiverged() {
	m.mu.Lock()
	m.diverged = true
	m.mu.Unlock()
}

// itemIndex must be called with mu held.
func (m *Mirror) itemIndex(id string) int {
	return slices.IndexFunc(m.items, func(it model.FoundItem) bool { return it.ID == id })
}

// claimIndex must be called with mu held.
func (m *Mirror) claimIndex(id string) int {
	return slices.IndexFunc(m.claims, func(c model.Claim) bool { return c.ID == id })
}
