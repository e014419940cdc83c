package registry

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

	"asset-registry-backend/internal/db"
	"asset-registry-backend/internal/model"
	"asset-registry-backend/internal/users"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:registry_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func strPtr(s string) *string { return &s }

func notebookSpec(serial string) Spec {
	return Spec{
		Category:     model.CategoryNotebook,
		Brand:        "Dell",
		Model:        "Latitude",
		SerialNumber: strPtr(serial),
		State:        model.StateActive,
		Site:         model.SiteBuenosAires,
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	created, err := reg.Create(ctx, notebookSpec("DL123456"))
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.False(t, created.RegisteredOn.IsZero())
	assert.True(t, created.Active, "ACTIVE state derives active=true")
	assert.Nil(t, created.AssigneeKey)

	inactive, err := reg.Create(ctx, Spec{
		Category: model.CategoryMonitor,
		Brand:    "Samsung",
		Model:    "S24",
		State:    model.StateDecommissioned,
		Site:     model.SiteCordoba,
	})
	require.NoError(t, err)
	assert.False(t, inactive.Active, "DECOMMISSIONED implies active=false")
}

func TestCreateRejectsInvalidEnums(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	spec := notebookSpec("X1")
	spec.Category = model.Category("FRIDGE")
	_, err := reg.Create(ctx, spec)
	var invalid *model.InvalidEnumError
	require.ErrorAs(t, err, &invalid)

	spec = notebookSpec("X1")
	spec.Site = model.Site("MORDOR")
	_, err = reg.Create(ctx, spec)
	require.ErrorAs(t, err, &invalid)
}

func TestCreateRejectsDuplicateSerial(t *testing.T) {
	gormDB := newTestDB(t)
	reg := New(gormDB)
	ctx := context.Background()

	_, err := reg.Create(ctx, notebookSpec("DL123456"))
	require.NoError(t, err)

	_, err = reg.Create(ctx, notebookSpec("DL123456"))
	var duplicate *model.DuplicateSerialError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, "DL123456", duplicate.Serial)

	// The failed create wrote nothing.
	var n int64
	require.NoError(t, gormDB.Model(&model.Equipment{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCreateTreatsBlankSerialAsAbsent(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	first, err := reg.Create(ctx, Spec{
		Category: model.CategoryMouse, Brand: "Logitech", Model: "M185",
		SerialNumber: strPtr("  "), State: model.StateActive, Site: model.SitePeru,
	})
	require.NoError(t, err)
	assert.Nil(t, first.SerialNumber)

	// Two serial-less rows may coexist.
	_, err = reg.Create(ctx, Spec{
		Category: model.CategoryMouse, Brand: "Logitech", Model: "M185",
		State: model.StateActive, Site: model.SitePeru,
	})
	require.NoError(t, err)
}

func TestUpdateExcludesOwnSerial(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	created, err := reg.Create(ctx, notebookSpec("DL123456"))
	require.NoError(t, err)
	_, err = reg.Create(ctx, notebookSpec("DL999999"))
	require.NoError(t, err)

	// Keeping its own serial is fine.
	spec := notebookSpec("DL123456")
	spec.Notes = "battery replaced"
	updated, err := reg.Update(ctx, created.ID, spec)
	require.NoError(t, err)
	assert.Equal(t, "battery replaced", updated.Notes)

	// Taking another row's serial is not.
	_, err = reg.Update(ctx, created.ID, notebookSpec("DL999999"))
	var duplicate *model.DuplicateSerialError
	require.ErrorAs(t, err, &duplicate)
}

func TestUpdateDoesNotTouchAssignment(t *testing.T) {
	gormDB := newTestDB(t)
	reg := New(gormDB)
	ctx := context.Background()

	created, err := reg.Create(ctx, notebookSpec("DL123456"))
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, reg.SetAssignee(ctx, created.ID, strPtr("12345"), &now))

	updated, err := reg.Update(ctx, created.ID, notebookSpec("DL123456"))
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeKey)
	assert.Equal(t, "12345", *updated.AssigneeKey)
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	reg := New(newTestDB(t))

	_, err := reg.Update(context.Background(), 4242, notebookSpec("DL123456"))
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "equipment", notFound.Entity)
}

func TestDeleteIsNotFoundOnSecondCall(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	created, err := reg.Create(ctx, notebookSpec("DL123456"))
	require.NoError(t, err)

	require.NoError(t, reg.Delete(ctx, created.ID))

	err = reg.Delete(ctx, created.ID)
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestExistsBySerial(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	_, err := reg.Create(ctx, notebookSpec("DL123456"))
	require.NoError(t, err)

	exists, err := reg.ExistsBySerial(ctx, "DL123456")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = reg.ExistsBySerial(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSearchMatchesAssigneeName(t *testing.T) {
	gormDB := newTestDB(t)
	reg := New(gormDB)
	dir := users.NewDirectory(gormDB)
	ctx := context.Background()

	require.NoError(t, dir.Create(ctx, &model.User{
		Legajo: "12345", FirstName: "María", LastName: "González", Site: model.SiteBuenosAires,
	}))

	created, err := reg.Create(ctx, notebookSpec("DL123456"))
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, reg.SetAssignee(ctx, created.ID, strPtr("12345"), &now))

	_, err = reg.Create(ctx, notebookSpec("HP777"))
	require.NoError(t, err)

	// By assignee last name, case-insensitively.
	page, err := reg.Search(ctx, "gonzález", nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)

	// By serial fragment.
	page, err = reg.Search(ctx, "dl123", nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// Category filter narrows results.
	monitor := model.CategoryMonitor
	page, err = reg.Search(ctx, "", &monitor, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 0, page.TotalCount)
}

func TestSearchPagesAreStable(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultPageSize+5; i++ {
		registeredOn := base.AddDate(0, 0, i)
		_, err := reg.Create(ctx, Spec{
			Category:     model.CategoryCPU,
			Brand:        "Lenovo",
			Model:        fmt.Sprintf("M%02d", i),
			State:        model.StateActive,
			Site:         model.SiteTucuman,
			RegisteredOn: &registeredOn,
		})
		require.NoError(t, err)
	}

	first, err := reg.List(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, DefaultPageSize+5, first.TotalCount)
	require.Len(t, first.Items, DefaultPageSize)
	// Newest registration first.
	assert.Equal(t, fmt.Sprintf("M%02d", DefaultPageSize+4), first.Items[0].Model)

	second, err := reg.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, second.Items, 5)
	assert.Equal(t, "M04", second.Items[0].Model)
}

func TestListByAssignee(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	a, err := reg.Create(ctx, notebookSpec("A1"))
	require.NoError(t, err)
	b, err := reg.Create(ctx, notebookSpec("B1"))
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, reg.SetAssignee(ctx, a.ID, strPtr("12345"), &now))
	require.NoError(t, reg.SetAssignee(ctx, b.ID, strPtr("67890"), &now))

	items, err := reg.ListByAssignee(ctx, "12345")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)
}

func TestStats(t *testing.T) {
	reg := New(newTestDB(t))
	ctx := context.Background()

	_, err := reg.Create(ctx, notebookSpec("S1"))
	require.NoError(t, err)
	second, err := reg.Create(ctx, notebookSpec("S2"))
	require.NoError(t, err)
	_, err = reg.Create(ctx, Spec{
		Category: model.CategoryServer, Brand: "HP", Model: "DL380",
		State: model.StateDecommissioned, Site: model.SiteCordoba,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, reg.SetAssignee(ctx, second.ID, strPtr("12345"), &now))

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Active)
	assert.EqualValues(t, 1, stats.Assigned)
	assert.EqualValues(t, 2, stats.Available)
	assert.EqualValues(t, 1, stats.Decommissioned)
	assert.EqualValues(t, 2, stats.ByState[model.StateActive])
	assert.EqualValues(t, 1, stats.BySite[model.SiteCordoba])
}
