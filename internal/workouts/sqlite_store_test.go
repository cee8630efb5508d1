package workouts_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fitlog/internal/db"
	"github.com/2beens/fitlog/internal/workouts"
)

func newSqliteStore(t *testing.T) *workouts.SqliteStore {
	t.Helper()
	ctx := context.Background()

	sqliteDB, err := db.OpenSqlite(ctx, db.OpenSqliteParams{
		Path: filepath.Join(t.TempDir(), "fitness.db"),
	})
	require.NoError(t, err)

	store := workouts.NewSqliteStore(sqliteDB)
	require.NoError(t, store.Initialize(ctx))
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func insertWorkouts(t *testing.T, store workouts.Store, toAdd ...workouts.Workout) []int64 {
	t.Helper()
	ctx := context.Background()

	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Release()

	var ids []int64
	for _, w := range toAdd {
		id, err := session.Insert(ctx, w)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func listAll(t *testing.T, store workouts.Store) []workouts.Workout {
	t.Helper()
	ctx := context.Background()

	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Release()

	list, err := session.ListAll(ctx)
	require.NoError(t, err)
	return list
}

func TestSqliteStore_InitializeIsIdempotent(t *testing.T) {
	store := newSqliteStore(t)
	insertWorkouts(t, store, workouts.Workout{Date: day(2024, time.January, 1), ActivityType: "yoga", DurationMinutes: 20, CaloriesBurned: 80})

	require.NoError(t, store.Initialize(context.Background()))
	assert.Len(t, listAll(t, store), 1)
}

func TestSqliteStore_InsertAndListAll(t *testing.T) {
	store := newSqliteStore(t)
	assert.Empty(t, listAll(t, store))

	ids := insertWorkouts(t, store,
		workouts.Workout{Date: day(2024, time.January, 1), ActivityType: "A", DurationMinutes: 10, CaloriesBurned: 30},
		workouts.Workout{Date: day(2024, time.January, 2), ActivityType: "B", DurationMinutes: 20, CaloriesBurned: 60},
		workouts.Workout{Date: day(2024, time.January, 1), ActivityType: "C", DurationMinutes: 5, CaloriesBurned: 20},
	)
	require.Len(t, ids, 3)
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	list := listAll(t, store)
	require.Len(t, list, 3)
	assert.Equal(t, "B", list[0].ActivityType)
	assert.Equal(t, "C", list[1].ActivityType)
	assert.Equal(t, "A", list[2].ActivityType)

	assert.Equal(t, ids[1], list[0].ID)
	assert.Equal(t, day(2024, time.January, 2), list[0].Date)
	assert.Equal(t, int64(20), list[0].DurationMinutes)
	assert.Equal(t, int64(60), list[0].CaloriesBurned)
}

func TestSqliteStore_AggregateByDateRange(t *testing.T) {
	store := newSqliteStore(t)
	insertWorkouts(t, store,
		workouts.Workout{Date: day(2024, time.January, 1), ActivityType: "run", DurationMinutes: 10, CaloriesBurned: 30},
		workouts.Workout{Date: day(2024, time.January, 1), ActivityType: "walk", DurationMinutes: 5, CaloriesBurned: 20},
		workouts.Workout{Date: day(2024, time.January, 3), ActivityType: "swim", DurationMinutes: 40, CaloriesBurned: 300},
		workouts.Workout{Date: day(2024, time.February, 1), ActivityType: "run", DurationMinutes: 30, CaloriesBurned: 250},
	)

	ctx := context.Background()
	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Release()

	aggregate, err := session.AggregateByDateRange(ctx, day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, aggregate.Days, 2)
	assert.Equal(t, workouts.DaySummary{Date: day(2024, time.January, 1), Calories: 50, Duration: 15}, aggregate.Days[0])
	assert.Equal(t, workouts.DaySummary{Date: day(2024, time.January, 3), Calories: 300, Duration: 40}, aggregate.Days[1])
	require.NotNil(t, aggregate.Totals.Calories)
	require.NotNil(t, aggregate.Totals.Duration)
	assert.Equal(t, int64(350), *aggregate.Totals.Calories)
	assert.Equal(t, int64(55), *aggregate.Totals.Duration)

	// both ends inclusive
	aggregate, err = session.AggregateByDateRange(ctx, day(2024, time.January, 1), day(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, aggregate.Days, 1)
	assert.Equal(t, int64(50), *aggregate.Totals.Calories)
	assert.Equal(t, int64(15), *aggregate.Totals.Duration)

	aggregate, err = session.AggregateByDateRange(ctx, workouts.MinDate, workouts.MaxDate)
	require.NoError(t, err)
	assert.Len(t, aggregate.Days, 3)
	assert.Equal(t, int64(600), *aggregate.Totals.Calories)
}

func TestSqliteStore_AggregateEmptyRange(t *testing.T) {
	store := newSqliteStore(t)
	insertWorkouts(t, store,
		workouts.Workout{Date: day(2024, time.January, 1), ActivityType: "run", DurationMinutes: 10, CaloriesBurned: 30},
	)

	ctx := context.Background()
	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Release()

	aggregate, err := session.AggregateByDateRange(ctx, day(2023, time.March, 1), day(2023, time.March, 31))
	require.NoError(t, err)
	assert.Empty(t, aggregate.Days)
	assert.Nil(t, aggregate.Totals.Calories)
	assert.Nil(t, aggregate.Totals.Duration)
}

func TestSqliteStore_ConcurrentInserts(t *testing.T) {
	store := newSqliteStore(t)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			session, err := store.Acquire(ctx)
			if !assert.NoError(t, err) {
				return
			}
			defer session.Release()
			_, err = session.Insert(ctx, workouts.Workout{
				Date:            day(2024, time.May, 5),
				ActivityType:    "rowing",
				DurationMinutes: 15,
				CaloriesBurned:  120,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list := listAll(t, store)
	require.Len(t, list, writers)
	seen := map[int64]bool{}
	for _, w := range list {
		assert.False(t, seen[w.ID], "duplicate id %d", w.ID)
		seen[w.ID] = true
	}
}

func TestSqliteStore_AcquireAfterClose(t *testing.T) {
	ctx := context.Background()
	sqliteDB, err := db.OpenSqlite(ctx, db.OpenSqliteParams{
		Path: filepath.Join(t.TempDir(), "fitness.db"),
	})
	require.NoError(t, err)

	store := workouts.NewSqliteStore(sqliteDB)
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Close())

	session, err := store.Acquire(ctx)
	require.Error(t, err)
	assert.Nil(t, session)

	var persistenceErr *workouts.PersistenceError
	require.True(t, errors.As(err, &persistenceErr))
	assert.Equal(t, "acquire", persistenceErr.Op)
}
