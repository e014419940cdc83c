package model

import "time"

// Equipment represents a single tracked IT asset.
//
// AssigneeKey is a derived pointer to the current assignee's business
// key; the source of truth for "who has this now" is the open
// AssignmentInterval. The pointer is maintained by the lifecycle
// coordinator, never written directly by callers.
type Equipment struct {
	ID              int64          `gorm:"primaryKey" json:"id"`
	Category        Category       `gorm:"size:32;not null" json:"category"`
	Brand           string         `gorm:"size:128;not null" json:"brand"`
	Model           string         `gorm:"size:128;not null" json:"model"`
	SerialNumber    *string        `gorm:"size:128;uniqueIndex" json:"serial_number"`
	InventoryNumber string         `gorm:"size:128" json:"inventory_number"`
	State           LifecycleState `gorm:"size:32;not null" json:"state"`
	Site            Site           `gorm:"size:32;not null" json:"site"`
	RegisteredOn    time.Time      `gorm:"not null" json:"registered_on"`
	AssignedOn      *time.Time     `json:"assigned_on"`
	Active          bool           `gorm:"not null" json:"active"`
	Notes           string         `gorm:"type:text" json:"notes"`
	AssigneeKey     *string        `gorm:"size:64;index" json:"assignee_key"`
	CreatedAt       time.Time      `json:"-"`
	UpdatedAt       time.Time      `json:"-"`
}

// Assigned reports whether the equipment currently has an assignee.
func (e *Equipment) Assigned() bool {
	return e.AssigneeKey != nil
}

// Description is the human-readable summary used in audit details.
func (e *Equipment) Description() string {
	serial := "-"
	if e.SerialNumber != nil {
		serial = *e.SerialNumber
	}
	return e.Brand + " " + e.Model + " (serial: " + serial + ")"
}
