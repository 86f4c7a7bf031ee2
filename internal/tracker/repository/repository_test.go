package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/testutil"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestHarnessListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	released := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Harness.Create(ctx, &entity.Harness{PartNo: "A", AssignedVendors: pq.StringArray{"v1"}}))
	require.NoError(t, repos.Harness.Create(ctx, &entity.Harness{PartNo: "B", AssignedVendors: pq.StringArray{"v1", "v2"}, DrawingsReleaseDate: &released}))
	require.NoError(t, repos.Harness.Create(ctx, &entity.Harness{PartNo: "C"}))

	all, err := repos.Harness.List(ctx, repository.HarnessFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	v1, err := repos.Harness.List(ctx, repository.HarnessFilter{VendorID: "v1"})
	require.NoError(t, err)
	assert.Len(t, v1, 2)

	v2Released, err := repos.Harness.List(ctx, repository.HarnessFilter{VendorID: "v2", ReleasedOnly: true})
	require.NoError(t, err)
	require.Len(t, v2Released, 1)
	assert.Equal(t, "B", v2Released[0].PartNo)

	dev, err := repos.Harness.List(ctx, repository.HarnessFilter{Status: entity.HarnessStatusDevelopment})
	require.NoError(t, err)
	assert.Len(t, dev, 3)

	for _, h := range all {
		assert.Equal(t, entity.VerdictPending, h.DVPStatus)
		assert.NotNil(t, h.AssignedVendors)
		assert.NotNil(t, h.VendorETAHistory)
	}
}

func TestHarnessScopeAndNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	h := &entity.Harness{PartNo: "S", AssignedVendors: pq.StringArray{"v1"}}
	require.NoError(t, repos.Harness.Create(ctx, h))

	onlyV2 := func(tx *gorm.DB) *gorm.DB { return tx.Where("? = ANY(harnesses.assigned_vendors)", "v2") }
	_, err := repos.Harness.FindByID(ctx, h.ID, onlyV2)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	found, err := repos.Harness.FindByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "S", found.PartNo)

	_, err = repos.Harness.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestETAHistoryOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, entity.RoleVendor, "eta@test.com")

	h := &entity.Harness{PartNo: "E"}
	require.NoError(t, repos.Harness.Create(ctx, h))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		eta := base.AddDate(0, 0, i)
		require.NoError(t, repos.Harness.AppendETALog(ctx, &entity.HarnessETALog{
			HarnessID: h.ID,
			ETA:       &eta,
			SetAt:     base.Add(time.Duration(i) * time.Hour),
			SetByID:   user.ID,
		}))
	}

	found, err := repos.Harness.FindByID(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, found.VendorETAHistory, 3)
	assert.True(t, found.VendorETAHistory[0].SetAt.Before(found.VendorETAHistory[2].SetAt))
	require.NotNil(t, found.VendorETAHistory[0].SetBy)
	assert.Equal(t, user.ID, found.VendorETAHistory[0].SetBy.ID)
}

func TestUserEmailCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	require.NoError(t, repos.User.Create(ctx, &entity.User{
		Name: "Mixed", Email: "Mixed@Case.com", PasswordHash: "x", Role: entity.RoleDVP,
	}))
	u, err := repos.User.FindByEmail(ctx, "MIXED@case.COM")
	require.NoError(t, err)
	assert.Equal(t, "mixed@case.com", u.Email)

	err = repos.User.Create(ctx, &entity.User{
		Name: "Again", Email: "MIXED@case.com", PasswordHash: "x", Role: entity.RoleTNV,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	n, err := repos.User.CountByRole(ctx, entity.RoleDVP)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestVehicleDetailDeleteMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	assert.ErrorIs(t, repos.VehicleDetail.Delete(context.Background(), "missing"), repository.ErrNotFound)
}
