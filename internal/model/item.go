package model

import "time"

// FoundItem is a physical object logged by staff as found on campus.
type FoundItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Building    string    `json:"building"`
	Room        string    `json:"room,omitempty"`
	DateFound   time.Time `json:"dateFound"`
	AddedBy     *string   `json:"addedBy,omitempty"`
	HasImage    bool      `json:"hasImage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Populated on read (not always).
	AddedByUser *UserSummary `json:"addedByUser,omitempty"`
}
