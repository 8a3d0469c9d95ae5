package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpasta/internal/app"
	"reviewpasta/internal/domain"
)

func seedLegacy(t *testing.T, repo *fakeRepo, names ...string) {
	t.Helper()
	for i, n := range names {
		_, err := repo.Add(context.Background(), domain.NewBusiness{
			Name: n, Slug: app.Slugify(n), PlaceID: "p-" + n,
			OwnerID:   ptr("someone"),
			CreatedAt: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
}

func TestMigration_Run(t *testing.T) {
	ctx := context.Background()
	legacy, hosted := newFakeRepo(), newFakeRepo()
	seedLegacy(t, legacy, "Acme", "Nordic Brew", "Corner Shop")
	seedLegacy(t, hosted, "Acme") // already migrated by hand

	marker := filepath.Join(t.TempDir(), "state", ".migrated")
	svc := app.NewMigrationService(legacy, hosted, marker, 2)

	should, err := svc.ShouldRun(ctx)
	require.NoError(t, err)
	assert.True(t, should)

	report, err := svc.Run(ctx)
	require.NoError(t, err)
	want := app.MigrationReport{Success: true, MigratedCount: 2, Skipped: 1, Errors: []string{}}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}

	nb, err := hosted.GetBySlug(ctx, "nordic-brew")
	require.NoError(t, err)
	assert.Nil(t, nb.OwnerID, "legacy rows have no owner")
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), nb.CreatedAt)

	_, err = os.Stat(marker)
	require.NoError(t, err)

	// second run is a no-op
	should, err = svc.ShouldRun(ctx)
	require.NoError(t, err)
	assert.False(t, should)
	report, err = svc.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.MigratedCount)

	require.NoError(t, svc.Reset())
	should, err = svc.ShouldRun(ctx)
	require.NoError(t, err)
	assert.True(t, should)
}

func TestMigration_CollectsErrors(t *testing.T) {
	ctx := context.Background()
	legacy, hosted := newFakeRepo(), newFakeRepo()
	seedLegacy(t, legacy, "Acme", "Nordic Brew")
	hosted.addErr = errors.New("connection reset")

	marker := filepath.Join(t.TempDir(), ".migrated")
	report, err := app.NewMigrationService(legacy, hosted, marker, 4).Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Zero(t, report.MigratedCount)
	assert.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0], "connection reset")

	_, err = os.Stat(marker)
	assert.NoError(t, err, "marker written even when some rows failed")
}

func TestMigration_EmptySource(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".migrated")
	svc := app.NewMigrationService(newFakeRepo(), newFakeRepo(), marker, 1)

	should, err := svc.ShouldRun(context.Background())
	require.NoError(t, err)
	assert.False(t, should)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Success)
}
