package model

import "time"

// AssignmentInterval is one stretch of an equipment's assignment
// history. A nil EndedAt marks the currently-open interval; a nil
// UserKey marks a return to the pool. Intervals are closed exactly
// once and never deleted.
type AssignmentInterval struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	EquipmentID int64      `gorm:"not null;index" json:"equipment_id"`
	UserKey     *string    `gorm:"size:64" json:"user_key"`
	StartedAt   time.Time  `gorm:"not null;index" json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	AssignedBy  string     `gorm:"size:128" json:"assigned_by"`
}

// Open reports whether the interval is still running.
func (a *AssignmentInterval) Open() bool {
	return a.EndedAt == nil
}
