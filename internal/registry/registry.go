package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"asset-registry-backend/internal/model"
)

// DefaultPageSize is the fixed page size for listing and search.
const DefaultPageSize = 20

// Registry owns Equipment rows and their core attributes. It enforces
// enum membership and serial uniqueness; assignment state is owned by
// the ledger and coordinator.
type Registry struct {
	db *gorm.DB
}

// New creates a gorm-backed equipment registry.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// WithTx returns a registry bound to the given transaction.
func (r *Registry) WithTx(tx *gorm.DB) *Registry {
	return &Registry{db: tx}
}

// Spec carries the caller-supplied attributes for create and update.
type Spec struct {
	Category        model.Category
	Brand           string
	Model           string
	SerialNumber    *string
	InventoryNumber string
	State           model.LifecycleState
	Site            model.Site
	RegisteredOn    *time.Time
	Notes           string
}

func (s *Spec) validate() error {
	if !s.Category.Valid() {
		return &model.InvalidEnumError{Kind: "category", Value: string(s.Category)}
	}
	if !s.State.Valid() {
		return &model.InvalidEnumError{Kind: "state", Value: string(s.State)}
	}
	if !s.Site.Valid() {
		return &model.InvalidEnumError{Kind: "site", Value: string(s.Site)}
	}
	return nil
}

// normalizedSerial returns the trimmed serial or nil when absent.
func (s *Spec) normalizedSerial() *string {
	if s.SerialNumber == nil {
		return nil
	}
	serial := strings.TrimSpace(*s.SerialNumber)
	if serial == "" {
		return nil
	}
	return &serial
}

// Create validates the spec, applies defaults and persists a new
// equipment row. The registration date defaults to now and the active
// flag is derived from the lifecycle state.
func (r *Registry) Create(ctx context.Context, spec Spec) (*model.Equipment, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	serial := spec.normalizedSerial()
	if serial != nil {
		taken, err := r.serialTaken(ctx, *serial, 0)
		if err != nil {
			return nil, fmt.Errorf("check serial uniqueness: %w", err)
		}
		if taken {
			return nil, &model.DuplicateSerialError{Serial: *serial}
		}
	}

	registeredOn := time.Now().UTC()
	if spec.RegisteredOn != nil {
		registeredOn = *spec.RegisteredOn
	}

	equipment := model.Equipment{
		Category:        spec.Category,
		Brand:           spec.Brand,
		Model:           spec.Model,
		SerialNumber:    serial,
		InventoryNumber: spec.InventoryNumber,
		State:           spec.State,
		Site:            spec.Site,
		RegisteredOn:    registeredOn,
		Active:          spec.State == model.StateActive,
		Notes:           spec.Notes,
	}

	if err := r.db.WithContext(ctx).Create(&equipment).Error; err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	return &equipment, nil
}

// Update re-validates and applies all supplied fields. Assignment state
// (assignee pointer, assignment date) is never touched here.
func (r *Registry) Update(ctx context.Context, id int64, spec Spec) (*model.Equipment, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	equipment, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	serial := spec.normalizedSerial()
	if serial != nil {
		taken, err := r.serialTaken(ctx, *serial, id)
		if err != nil {
			return nil, fmt.Errorf("check serial uniqueness: %w", err)
		}
		if taken {
			return nil, &model.DuplicateSerialError{Serial: *serial}
		}
	}

	equipment.Category = spec.Category
	equipment.Brand = spec.Brand
	equipment.Model = spec.Model
	equipment.SerialNumber = serial
	equipment.InventoryNumber = spec.InventoryNumber
	equipment.State = spec.State
	equipment.Site = spec.Site
	equipment.Active = spec.State == model.StateActive
	equipment.Notes = spec.Notes
	if spec.RegisteredOn != nil {
		equipment.RegisteredOn = *spec.RegisteredOn
	}

	if err := r.db.WithContext(ctx).Save(equipment).Error; err != nil {
		return nil, fmt.Errorf("update equipment %d: %w", id, err)
	}
	return equipment, nil
}

// Delete removes the equipment row, clearing the assignee pointer first
// so no dangling reference survives. Deleting an unknown id (including
// a second delete) reports NotFound.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	equipment, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if equipment.AssigneeKey != nil {
		if err := r.SetAssignee(ctx, id, nil, nil); err != nil {
			return fmt.Errorf("clear assignee before delete: %w", err)
		}
	}

	if err := r.db.WithContext(ctx).Delete(&model.Equipment{}, id).Error; err != nil {
		return fmt.Errorf("delete equipment %d: %w", id, err)
	}
	return nil
}

// FindByID returns the equipment with the given id or NotFound.
func (r *Registry) FindByID(ctx context.Context, id int64) (*model.Equipment, error) {
	var equipment model.Equipment
	err := r.db.WithContext(ctx).First(&equipment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &model.NotFoundError{Entity: "equipment", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("find equipment %d: %w", id, err)
	}
	return &equipment, nil
}

// ListPage is one stable page of equipment results.
type ListPage struct {
	Items      []model.Equipment `json:"items"`
	TotalCount int64             `json:"total_count"`
	PageIndex  int               `json:"page"`
	PageSize   int               `json:"page_size"`
}

// List returns one page of all equipment ordered by registration date
// descending.
func (r *Registry) List(ctx context.Context, pageIndex int) (*ListPage, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&model.Equipment{}), pageIndex)
}

// ListByAssignee returns all equipment currently assigned to the user
// with the given business key.
func (r *Registry) ListByAssignee(ctx context.Context, userKey string) ([]model.Equipment, error) {
	var items []model.Equipment
	err := r.db.WithContext(ctx).
		Where("assignee_key = ?", userKey).
		Order("registered_on DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list equipment for user %s: %w", userKey, err)
	}
	return items, nil
}

// Search matches the term case-insensitively across brand, model,
// serial number, inventory number and the assignee's name and business
// key, optionally narrowed to one category.
func (r *Registry) Search(ctx context.Context, term string, category *model.Category, pageIndex int) (*ListPage, error) {
	q := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Joins("LEFT JOIN users ON users.legajo = equipment.assignee_key")

	if term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		q = q.Where(
			"LOWER(equipment.brand) LIKE ? OR LOWER(equipment.model) LIKE ? OR "+
				"LOWER(equipment.serial_number) LIKE ? OR LOWER(equipment.inventory_number) LIKE ? OR "+
				"LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.legajo) LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}
	if category != nil {
		q = q.Where("equipment.category = ?", *category)
	}

	return r.page(ctx, q, pageIndex)
}

// ExistsBySerial reports whether any equipment uses the given serial.
func (r *Registry) ExistsBySerial(ctx context.Context, serial string) (bool, error) {
	return r.serialTaken(ctx, serial, 0)
}

// SetAssignee updates the cached assignee pointer and assignment date.
// A nil userKey clears both. The ledger remains the source of truth;
// this only maintains the derived columns.
func (r *Registry) SetAssignee(ctx context.Context, id int64, userKey *string, at *time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"assignee_key": userKey,
			"assigned_on":  at,
		})
	if result.Error != nil {
		return fmt.Errorf("set assignee for equipment %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &model.NotFoundError{Entity: "equipment", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (r *Registry) serialTaken(ctx context.Context, serial string, excludeID int64) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Equipment{}).Where("serial_number = ?", serial)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Registry) page(ctx context.Context, q *gorm.DB, pageIndex int) (*ListPage, error) {
	if pageIndex < 0 {
		pageIndex = 0
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count equipment: %w", err)
	}

	var items []model.Equipment
	if err := q.Order("equipment.registered_on DESC, equipment.id DESC").
		Limit(DefaultPageSize).
		Offset(pageIndex * DefaultPageSize).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}

	return &ListPage{
		Items:      items,
		TotalCount: total,
		PageIndex:  pageIndex,
		PageSize:   DefaultPageSize,
	}, nil
}
