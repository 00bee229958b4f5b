package model

import "time"

// MissingReport is a student's report of an item they lost.
type MissingReport struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Building      string     `json:"building"`
	Room          string     `json:"room,omitempty"`
	DateLost      *time.Time `json:"dateLost,omitempty"`
	ReporterName  string     `json:"reporterName"`
	ReporterEmail string     `json:"reporterEmail"`
	ReportedBy    *string    `json:"reportedBy,omitempty"`
	FoundItemID   *string    `json:"foundItemId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ArchivedReport is a stale missing report moved out of the active listing.
type ArchivedReport struct {
	MissingReport
	ArchivedAt time.Time `json:"archivedAt"`
}

// ArchiveAfter is the default age at which unmatched missing reports are archived.
const ArchiveAfter = 7 * 24 * time.Hour
