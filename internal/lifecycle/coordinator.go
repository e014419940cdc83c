package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asset-registry-backend/internal/audit"
	"asset-registry-backend/internal/ledger"
	"asset-registry-backend/internal/model"
	"asset-registry-backend/internal/registry"
)

// entityEquipment is the audit target type for all coordinator entries.
const entityEquipment = "Equipment"

// Actor identifies who performs an operation, threaded explicitly into
// every coordinator call. No ambient security context.
type Actor struct {
	Name string
	IP   string
}

// Coordinator orchestrates multi-step equipment operations across the
// registry and the ledger inside one transaction, and writes exactly
// one audit entry per successful operation, after commit.
type Coordinator struct {
	db       *gorm.DB
	registry *registry.Registry
	ledger   *ledger.Ledger
	recorder *audit.Recorder
}

// NewCoordinator wires a coordinator over its collaborators.
func NewCoordinator(db *gorm.DB, reg *registry.Registry, led *ledger.Ledger, rec *audit.Recorder) *Coordinator {
	return &Coordinator{db: db, registry: reg, ledger: led, recorder: rec}
}

// Create persists a new unassigned equipment row and audits it.
func (c *Coordinator) Create(ctx context.Context, actor Actor, spec registry.Spec) (*model.Equipment, error) {
	var created *model.Equipment
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = c.registry.WithTx(tx).Create(ctx, spec)
		if err != nil {
			return fmt.Errorf("create step: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.recorder.Append(ctx, actor.Name, model.VerbCreate, entityEquipment, idString(created.ID),
		"Equipment created: "+created.Description(), actor.IP)
	return created, nil
}

// CreateAndAssign creates a new equipment row and opens its first
// assignment interval atomically. If the assignment step fails (for
// example an unknown user) the equipment row does not persist.
func (c *Coordinator) CreateAndAssign(ctx context.Context, actor Actor, spec registry.Spec, userKey string) (*model.Equipment, error) {
	now := time.Now().UTC()

	var created *model.Equipment
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg := c.registry.WithTx(tx)

		var err error
		created, err = reg.Create(ctx, spec)
		if err != nil {
			return fmt.Errorf("create step: %w", err)
		}
		if _, err := c.ledger.WithTx(tx).OpenInterval(ctx, created.ID, userKey, actor.Name, now); err != nil {
			return fmt.Errorf("open interval step: %w", err)
		}
		if err := reg.SetAssignee(ctx, created.ID, &userKey, &now); err != nil {
			return fmt.Errorf("assignee pointer step: %w", err)
		}
		created.AssigneeKey = &userKey
		created.AssignedOn = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.recorder.Append(ctx, actor.Name, model.VerbCreate, entityEquipment, idString(created.ID),
		"Equipment created: "+created.Description()+", assigned to user "+userKey, actor.IP)
	return created, nil
}

// Update applies the spec to an existing equipment row and audits the
// edit. Assignment state is untouched.
func (c *Coordinator) Update(ctx context.Context, actor Actor, equipmentID int64, spec registry.Spec) (*model.Equipment, error) {
	var updated *model.Equipment
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := c.lockEquipment(ctx, tx, equipmentID); err != nil {
			return fmt.Errorf("lookup step: %w", err)
		}
		var err error
		updated, err = c.registry.WithTx(tx).Update(ctx, equipmentID, spec)
		if err != nil {
			return fmt.Errorf("update step: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.recorder.Append(ctx, actor.Name, model.VerbEdit, entityEquipment, idString(equipmentID),
		"Equipment updated: "+updated.Description(), actor.IP)
	return updated, nil
}

// Assign closes the current assignment interval, if any, and opens a
// new one for the given user. Reassignment therefore always leaves two
// ledger effects behind.
func (c *Coordinator) Assign(ctx context.Context, actor Actor, equipmentID int64, userKey, attribution string) error {
	now := time.Now().UTC()
	if attribution == "" {
		attribution = actor.Name
	}

	var equipment *model.Equipment
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		equipment, err = c.lockEquipment(ctx, tx, equipmentID)
		if err != nil {
			return fmt.Errorf("lookup step: %w", err)
		}

		led := c.ledger.WithTx(tx)
		if _, err := led.CloseOpenInterval(ctx, equipmentID, now); err != nil {
			return fmt.Errorf("close interval step: %w", err)
		}
		if _, err := led.OpenInterval(ctx, equipmentID, userKey, attribution, now); err != nil {
			return fmt.Errorf("open interval step: %w", err)
		}
		if err := c.registry.WithTx(tx).SetAssignee(ctx, equipmentID, &userKey, &now); err != nil {
			return fmt.Errorf("assignee pointer step: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.recorder.Append(ctx, actor.Name, model.VerbAssign, entityEquipment, idString(equipmentID),
		"Equipment assigned to user "+userKey+": "+equipment.Description(), actor.IP)
	return nil
}

// Unassign closes the current interval and clears the cached assignee
// pointer. Equipment with no open interval is a tolerated no-op; the
// audit entry still records the attempt.
func (c *Coordinator) Unassign(ctx context.Context, actor Actor, equipmentID int64) error {
	now := time.Now().UTC()

	var equipment *model.Equipment
	var closed bool
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		equipment, err = c.lockEquipment(ctx, tx, equipmentID)
		if err != nil {
			return fmt.Errorf("lookup step: %w", err)
		}

		closed, err = c.ledger.WithTx(tx).CloseOpenInterval(ctx, equipmentID, now)
		if err != nil {
			return fmt.Errorf("close interval step: %w", err)
		}
		if err := c.registry.WithTx(tx).SetAssignee(ctx, equipmentID, nil, nil); err != nil {
			return fmt.Errorf("assignee pointer step: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	detail := "Equipment unassigned: " + equipment.Description()
	if !closed {
		detail = "Equipment already unassigned: " + equipment.Description()
	}
	c.recorder.Append(ctx, actor.Name, model.VerbUnassign, entityEquipment, idString(equipmentID), detail, actor.IP)
	return nil
}

// Delete removes an equipment row, unassigning it first when a current
// assignee exists. A deletion of assigned equipment audits the
// unassignment before the deletion.
func (c *Coordinator) Delete(ctx context.Context, actor Actor, equipmentID int64) error {
	now := time.Now().UTC()

	var equipment *model.Equipment
	var wasAssigned bool
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		equipment, err = c.lockEquipment(ctx, tx, equipmentID)
		if err != nil {
			return fmt.Errorf("lookup step: %w", err)
		}

		wasAssigned = equipment.Assigned()
		if wasAssigned {
			if _, err := c.ledger.WithTx(tx).CloseOpenInterval(ctx, equipmentID, now); err != nil {
				return fmt.Errorf("close interval step: %w", err)
			}
			if err := c.registry.WithTx(tx).SetAssignee(ctx, equipmentID, nil, nil); err != nil {
				return fmt.Errorf("assignee pointer step: %w", err)
			}
		}
		if err := c.registry.WithTx(tx).Delete(ctx, equipmentID); err != nil {
			return fmt.Errorf("delete step: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if wasAssigned {
		c.recorder.Append(ctx, actor.Name, model.VerbUnassign, entityEquipment, idString(equipmentID),
			"Equipment unassigned before deletion: "+equipment.Description(), actor.IP)
	}
	c.recorder.Append(ctx, actor.Name, model.VerbDelete, entityEquipment, idString(equipmentID),
		"Equipment deleted: "+equipment.Description(), actor.IP)
	return nil
}

// Backfill runs the ledger's initial-record repair for one equipment.
// Exposed here so batch jobs and maintenance endpoints share one path.
func (c *Coordinator) Backfill(ctx context.Context, equipmentID int64) (bool, error) {
	equipment, err := c.registry.FindByID(ctx, equipmentID)
	if err != nil {
		return false, err
	}
	created, err := c.ledger.BackfillInitialRecord(ctx, equipment)
	if err != nil {
		return false, err
	}
	if created {
		logrus.WithField("equipment_id", equipmentID).Info("backfilled initial assignment record")
	}
	return created, nil
}

// lockEquipment fetches the equipment row, holding a row-level lock for
// the rest of the transaction on databases that support it. This
// serializes concurrent close-then-open sequences on one equipment.
func (c *Coordinator) lockEquipment(ctx context.Context, tx *gorm.DB, id int64) (*model.Equipment, error) {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var equipment model.Equipment
	err := q.First(&equipment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &model.NotFoundError{Entity: "equipment", Key: idString(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("lock equipment %d: %w", id, err)
	}
	return &equipment, nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
