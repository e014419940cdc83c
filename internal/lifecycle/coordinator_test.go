package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asset-registry-backend/internal/audit"
	"asset-registry-backend/internal/db"
	"asset-registry-backend/internal/ledger"
	"asset-registry-backend/internal/model"
	"asset-registry-backend/internal/registry"
	"asset-registry-backend/internal/users"
)

type fixture struct {
	db          *gorm.DB
	coordinator *Coordinator
	registry    *registry.Registry
	ledger      *ledger.Ledger
	recorder    *audit.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:lifecycle_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	ctx := context.Background()
	dir := users.NewDirectory(gormDB)
	require.NoError(t, dir.Create(ctx, &model.User{
		Legajo: "12345", FirstName: "María", LastName: "González", Site: model.SiteBuenosAires,
	}))
	require.NoError(t, dir.Create(ctx, &model.User{
		Legajo: "67890", FirstName: "Juan", LastName: "Pérez", Site: model.SiteCordoba,
	}))

	reg := registry.New(gormDB)
	led := ledger.New(gormDB)
	rec := audit.NewRecorder(gormDB)
	return &fixture{
		db:          gormDB,
		coordinator: NewCoordinator(gormDB, reg, led, rec),
		registry:    reg,
		ledger:      led,
		recorder:    rec,
	}
}

var admin = Actor{Name: "admin", IP: "10.0.0.1"}

func notebookSpec(serial string) registry.Spec {
	return registry.Spec{
		Category:     model.CategoryNotebook,
		Brand:        "Dell",
		Model:        "Latitude",
		SerialNumber: &serial,
		State:        model.StateActive,
		Site:         model.SiteBuenosAires,
	}
}

// auditEntries returns all audit entries oldest first.
func (f *fixture) auditEntries(t *testing.T) []model.AuditEntry {
	t.Helper()
	var entries []model.AuditEntry
	require.NoError(t, f.db.Order("id ASC").Find(&entries).Error)
	return entries
}

func (f *fixture) openIntervalCount(t *testing.T, equipmentID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.AssignmentInterval{}).
		Where("equipment_id = ? AND ended_at IS NULL", equipmentID).
		Count(&n).Error)
	return n
}

func TestCreateUnassigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.Create(ctx, admin, notebookSpec("DL123456"))
	require.NoError(t, err)

	exists, err := f.registry.ExistsBySerial(ctx, "DL123456")
	require.NoError(t, err)
	assert.True(t, exists)

	history, err := f.ledger.HistoryFor(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	entries := f.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, model.VerbCreate, entries[0].Verb)
	assert.Equal(t, "admin", entries[0].Actor)
	assert.Equal(t, "Equipment", entries[0].EntityType)
	assert.Contains(t, entries[0].Detail, "DL123456")
}

func TestCreateAndAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.CreateAndAssign(ctx, admin, notebookSpec("DL123456"), "12345")
	require.NoError(t, err)

	require.NotNil(t, created.AssigneeKey)
	assert.Equal(t, "12345", *created.AssigneeKey)
	assert.EqualValues(t, 1, f.openIntervalCount(t, created.ID))

	entries := f.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, model.VerbCreate, entries[0].Verb)
	assert.Contains(t, entries[0].Detail, "12345")

	// The assignment side-effect is independently visible in history.
	history, err := f.ledger.HistoryFor(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Open())
}

func TestCreateAndAssignRollsBackOnUnknownUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coordinator.CreateAndAssign(ctx, admin, notebookSpec("DL123456"), "99999")
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "user", notFound.Entity)

	// The created equipment row did not persist.
	exists, err := f.registry.ExistsBySerial(ctx, "DL123456")
	require.NoError(t, err)
	assert.False(t, exists)

	// No audit entry on a failed operation.
	assert.Empty(t, f.auditEntries(t))
}

func TestReassignmentRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.CreateAndAssign(ctx, admin, notebookSpec("DL123456"), "12345")
	require.NoError(t, err)

	beforeReassign := time.Now().UTC()
	require.NoError(t, f.coordinator.Assign(ctx, admin, created.ID, "67890", ""))

	history, err := f.ledger.HistoryFor(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first: open interval for the new user.
	assert.True(t, history[0].Open())
	assert.Equal(t, "67890", *history[0].UserKey)

	// The previous interval closed at roughly the reassign time.
	require.NotNil(t, history[1].EndedAt)
	assert.Equal(t, "12345", *history[1].UserKey)
	assert.WithinDuration(t, beforeReassign, *history[1].EndedAt, 2*time.Second)

	assert.EqualValues(t, 1, f.openIntervalCount(t, created.ID))

	equipment, err := f.registry.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "67890", *equipment.AssigneeKey)

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, model.VerbCreate, entries[0].Verb)
	assert.Equal(t, model.VerbAssign, entries[1].Verb)
	assert.Contains(t, entries[1].Detail, "67890")
}

func TestUnassignClearsPointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.CreateAndAssign(ctx, admin, notebookSpec("DL123456"), "12345")
	require.NoError(t, err)

	require.NoError(t, f.coordinator.Unassign(ctx, admin, created.ID))

	equipment, err := f.registry.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, equipment.AssigneeKey)
	assert.Nil(t, equipment.AssignedOn)
	assert.EqualValues(t, 0, f.openIntervalCount(t, created.ID))

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, model.VerbUnassign, entries[1].Verb)
}

func TestUnassignWithoutAssignmentIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.Create(ctx, admin, notebookSpec("DL123456"))
	require.NoError(t, err)

	require.NoError(t, f.coordinator.Unassign(ctx, admin, created.ID))

	equipment, err := f.registry.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, equipment.AssigneeKey)

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, model.VerbUnassign, entries[1].Verb)
	assert.Contains(t, entries[1].Detail, "already unassigned")
}

func TestDeleteAssignedEquipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.CreateAndAssign(ctx, admin, notebookSpec("DL123456"), "12345")
	require.NoError(t, err)

	require.NoError(t, f.coordinator.Delete(ctx, admin, created.ID))

	// UNASSIGN first, then DELETE.
	entries := f.auditEntries(t)
	require.Len(t, entries, 3)
	assert.Equal(t, model.VerbCreate, entries[0].Verb)
	assert.Equal(t, model.VerbUnassign, entries[1].Verb)
	assert.Equal(t, model.VerbDelete, entries[2].Verb)

	// No open interval references the deleted equipment.
	assert.EqualValues(t, 0, f.openIntervalCount(t, created.ID))

	_, err = f.registry.FindByID(ctx, created.ID)
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// Second delete reports NotFound.
	err = f.coordinator.Delete(ctx, admin, created.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteUnassignedAuditsOnlyDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.Create(ctx, admin, notebookSpec("DL123456"))
	require.NoError(t, err)

	require.NoError(t, f.coordinator.Delete(ctx, admin, created.ID))

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, model.VerbDelete, entries[1].Verb)
}

func TestUpdateAuditsEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.Create(ctx, admin, notebookSpec("DL123456"))
	require.NoError(t, err)

	spec := notebookSpec("DL123456")
	spec.State = model.StateInRepair
	updated, err := f.coordinator.Update(ctx, admin, created.ID, spec)
	require.NoError(t, err)
	assert.Equal(t, model.StateInRepair, updated.State)
	assert.False(t, updated.Active)

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, model.VerbEdit, entries[1].Verb)
}

func TestDuplicateSerialWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coordinator.Create(ctx, admin, notebookSpec("DL123456"))
	require.NoError(t, err)

	_, err = f.coordinator.Create(ctx, admin, notebookSpec("DL123456"))
	var duplicate *model.DuplicateSerialError
	require.ErrorAs(t, err, &duplicate)

	var rows int64
	require.NoError(t, f.db.Model(&model.Equipment{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	// Only the first create was audited.
	assert.Len(t, f.auditEntries(t), 1)
}

func TestBackfillThroughCoordinator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coordinator.Create(ctx, admin, notebookSpec("DL123456"))
	require.NoError(t, err)

	// Simulate pre-tracking data.
	userKey := "12345"
	now := time.Now().UTC()
	require.NoError(t, f.registry.SetAssignee(ctx, created.ID, &userKey, &now))

	backfilled, err := f.coordinator.Backfill(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, backfilled)

	backfilled, err = f.coordinator.Backfill(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, backfilled)

	history, err := f.ledger.HistoryFor(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
