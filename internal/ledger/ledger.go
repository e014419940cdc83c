package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"asset-registry-backend/internal/model"
)

// Ledger owns assignment intervals. It enforces exactly one rule, "at
// most one open interval per equipment", and leaves all business
// sequencing (close old, then open new) to the lifecycle coordinator.
type Ledger struct {
	db *gorm.DB
}

// New creates a gorm-backed assignment ledger.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the given transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// OpenInterval starts a new assignment interval for the equipment.
// It rejects with AlreadyOpen when an open interval exists, and with
// NotFound when the equipment or user is unknown.
func (l *Ledger) OpenInterval(ctx context.Context, equipmentID int64, userKey string, attribution string, at time.Time) (*model.AssignmentInterval, error) {
	if err := l.requireEquipment(ctx, equipmentID); err != nil {
		return nil, err
	}
	if err := l.requireUser(ctx, userKey); err != nil {
		return nil, err
	}

	var open int64
	if err := l.db.WithContext(ctx).Model(&model.AssignmentInterval{}).
		Where("equipment_id = ? AND ended_at IS NULL", equipmentID).
		Count(&open).Error; err != nil {
		return nil, fmt.Errorf("check open interval for equipment %d: %w", equipmentID, err)
	}
	if open > 0 {
		return nil, &model.AlreadyOpenError{EquipmentID: equipmentID}
	}

	interval := model.AssignmentInterval{
		EquipmentID: equipmentID,
		UserKey:     &userKey,
		StartedAt:   at,
		AssignedBy:  attribution,
	}
	if err := l.db.WithContext(ctx).Create(&interval).Error; err != nil {
		return nil, fmt.Errorf("open interval for equipment %d: %w", equipmentID, err)
	}
	return &interval, nil
}

// CloseOpenInterval sets the end timestamp on the equipment's open
// interval, if any. Nothing to close is not an error; the returned flag
// reports whether an interval was actually closed.
func (l *Ledger) CloseOpenInterval(ctx context.Context, equipmentID int64, at time.Time) (bool, error) {
	result := l.db.WithContext(ctx).Model(&model.AssignmentInterval{}).
		Where("equipment_id = ? AND ended_at IS NULL", equipmentID).
		Update("ended_at", at)
	if result.Error != nil {
		return false, fmt.Errorf("close open interval for equipment %d: %w", equipmentID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// HistoryFor returns the equipment's assignment intervals, most recent
// start first.
func (l *Ledger) HistoryFor(ctx context.Context, equipmentID int64) ([]model.AssignmentInterval, error) {
	var intervals []model.AssignmentInterval
	err := l.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("started_at DESC, id DESC").
		Find(&intervals).Error
	if err != nil {
		return nil, fmt.Errorf("history for equipment %d: %w", equipmentID, err)
	}
	return intervals, nil
}

// BackfillInitialRecord synthesizes the missing first interval for
// equipment assigned before history tracking existed. It is idempotent:
// equipment with any history, or with no assignee, is left untouched.
// The synthesized start is the equipment's assignment date, else its
// registration date, else now.
func (l *Ledger) BackfillInitialRecord(ctx context.Context, equipment *model.Equipment) (bool, error) {
	if equipment.AssigneeKey == nil {
		return false, nil
	}

	var existing int64
	if err := l.db.WithContext(ctx).Model(&model.AssignmentInterval{}).
		Where("equipment_id = ?", equipment.ID).
		Count(&existing).Error; err != nil {
		return false, fmt.Errorf("check history for equipment %d: %w", equipment.ID, err)
	}
	if existing > 0 {
		return false, nil
	}

	start := time.Now().UTC()
	switch {
	case equipment.AssignedOn != nil:
		start = *equipment.AssignedOn
	case !equipment.RegisteredOn.IsZero():
		start = equipment.RegisteredOn
	}

	interval := model.AssignmentInterval{
		EquipmentID: equipment.ID,
		UserKey:     equipment.AssigneeKey,
		StartedAt:   start,
	}
	if err := l.db.WithContext(ctx).Create(&interval).Error; err != nil {
		return false, fmt.Errorf("backfill interval for equipment %d: %w", equipment.ID, err)
	}
	return true, nil
}

func (l *Ledger) requireEquipment(ctx context.Context, equipmentID int64) error {
	var n int64
	if err := l.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("id = ?", equipmentID).
		Count(&n).Error; err != nil {
		return fmt.Errorf("check equipment %d: %w", equipmentID, err)
	}
	if n == 0 {
		return &model.NotFoundError{Entity: "equipment", Key: strconv.FormatInt(equipmentID, 10)}
	}
	return nil
}

func (l *Ledger) requireUser(ctx context.Context, userKey string) error {
	var n int64
	if err := l.db.WithContext(ctx).Model(&model.User{}).
		Where("legajo = ?", userKey).
		Count(&n).Error; err != nil {
		return fmt.Errorf("check user %s: %w", userKey, err)
	}
	if n == 0 {
		return &model.NotFoundError{Entity: "user", Key: userKey}
	}
	return nil
}
