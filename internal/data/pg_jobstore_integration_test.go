package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
	"github.com/target/repeater/internal/testutil"
)

func TestPostgresJobStore_SaveLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.SetupTestDB(t)
	clock := NewFixedTimeProvider(testutil.TestTime())
	store := NewPostgresJobStore(PostgresJobStoreOptions{DB: db, Clock: clock})
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	now := testutil.TestTime()
	records := []model.JobRecord{
		testutil.NewJobRecord("Hosts").WithFlatten(true).WithLastRun(now.Add(-2 * time.Hour)).Build(),
		testutil.NewJobRecord("Software").WithSource(model.SourceReport, "Installed Software").
			WithBucket("inventory").WithFormat(model.FormatJSON).WithOverwrite(false).Build(),
		testutil.NewJobRecord("Processes").WithSource(model.SourceQuestion, "Running Processes").
			WithDestination(model.DestinationLogIngestion).Build(),
	}
	jobs := make([]*model.JobSpec, 0, len(records))
	for _, rec := range records {
		spec, err := model.ParseJobRecord(rec, now)
		require.NoError(t, err)
		jobs = append(jobs, spec)
	}

	require.NoError(t, store.Save(ctx, jobs))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i := range records {
		assert.Equal(t, records[i], loaded[i].Dump(), "record %d", i)
	}

	loaded[2].MarkRun(now)
	require.NoError(t, store.Save(ctx, loaded[1:]))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	assert.Equal(t, "Software", reloaded[0].Name)
	require.NotNil(t, reloaded[1].LastRun)
	assert.Equal(t, now.Truncate(time.Second), *reloaded[1].LastRun)
}

func TestPostgresJobStore_RejectsDuplicateNames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.SetupTestDB(t)
	now := testutil.TestTime()
	store := NewPostgresJobStore(PostgresJobStoreOptions{DB: db, Clock: NewFixedTimeProvider(now)})
	ctx := context.Background()

	original := []*model.JobSpec{testutil.NewJobRecord("Hosts").Spec(t, now)}
	require.NoError(t, store.Save(ctx, original))

	err := store.Save(ctx, []*model.JobSpec{
		testutil.NewJobRecord("Hosts").Spec(t, now),
		testutil.NewJobRecord("Hosts").WithLocation("other.csv").Spec(t, now),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigInvalid(err))
	assert.Contains(t, err.Error(), "duplicate job record")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, original[0].Dump(), loaded[0].Dump())
}
