package model

import "time"

// Claim is a student's assertion of ownership over a found item.
type Claim struct {
	ID               string     `json:"id"`
	ItemID           string     `json:"itemId"`
	ClaimerName      string     `json:"claimerName"`
	ClaimerEmail     string     `json:"claimerEmail"`
	LastSeenBuilding string     `json:"lastSeenBuilding"`
	LastSeenRoom     string     `json:"lastSeenRoom,omitempty"`
	OwnershipDetails string     `json:"ownershipDetails"`
	ClaimDate        time.Time  `json:"claimDate"`
	DateSubmitted    time.Time  `json:"dateSubmitted"`
	ClaimedBy        *string    `json:"claimedBy,omitempty"`
	Status           string     `json:"status"`
	ResolvedDate     *time.Time `json:"resolvedDate,omitempty"`
	ResolvedBy       *string    `json:"resolvedBy,omitempty"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	// Populated on read (not always).
	Item           *FoundItem   `json:"item,omitempty"`
	ClaimedByUser  *UserSummary `json:"claimedByUser,omitempty"`
	ResolvedByUser *UserSummary `json:"resolvedByUser,omitempty"`
}

// Claim statuses. A claim only ever moves from pending to resolved.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusResolved = "resolved"
)

// ValidClaimStatus reports whether status is a known claim status.
func ValidClaimStatus(status string) bool {
	return status == ClaimStatusPending || status == ClaimStatusResolved
}
