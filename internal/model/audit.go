package model

import "time"

// SystemActor is recorded when no authenticated actor is available.
const SystemActor = "SYSTEM"

// AuditEntry is one immutable record of a state-changing action.
// Rows are append-only; nothing in the codebase updates or deletes them.
type AuditEntry struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Actor      string    `gorm:"size:128;not null;index" json:"actor"`
	Verb       Verb      `gorm:"size:32;not null;index" json:"verb"`
	EntityType string    `gorm:"size:64;not null;index" json:"entity_type"`
	EntityID   string    `gorm:"size:64" json:"entity_id"`
	Detail     string    `gorm:"type:text" json:"detail"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
	IPAddress  string    `gorm:"size:64" json:"ip_address"`
}

// IsCritical reports whether the entry's verb belongs to the critical set.
func (a *AuditEntry) IsCritical() bool {
	return a.Verb == VerbCreate || a.Verb == VerbEdit || a.Verb == VerbDelete
}
