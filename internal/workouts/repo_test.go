//go:build integration_test || all_tests

package workouts

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/2beens/workout-tracker/internal/db"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoSetup(t *testing.T) (*Repo, int, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postres host: %s", host)

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         "5432",
		DBName:         "workout_tracker",
		TracingEnabled: false,
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = dbPool.Exec(ctx, `DELETE FROM users WHERE username = 'workouts-repo-test'`)
	require.NoError(t, err)

	// the owning test user, workout sets cascade on its deletion
	var userID int
	err = dbPool.QueryRow(
		ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		"workouts-repo-test", gofakeit.Email(), "fake-hash",
	).Scan(&userID)
	require.NoError(t, err)

	return NewRepo(dbPool), userID, func() {
		_, err := dbPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		assert.NoError(t, err)
		dbPool.Close()
	}
}

func date(t *testing.T, value string) Date {
	t.Helper()
	d, err := ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestRepo_BasicCRUD(t *testing.T) {
	repo, userID, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()

	addedSet, err := repo.Add(ctx, Set{
		UserID:      userID,
		Exercise:    "Bench Press",
		Weight:      82.5,
		Reps:        8,
		WorkoutDate: date(t, "2024-05-20"),
	})
	require.NoError(t, err)
	require.NotNil(t, addedSet)
	assert.NotZero(t, addedSet.ID)
	assert.False(t, addedSet.CreatedAt.IsZero())
	assert.Equal(t, 660.0, addedSet.Volume)

	gotSet, err := repo.Get(ctx, userID, addedSet.ID)
	require.NoError(t, err)
	assert.Equal(t, addedSet.ID, gotSet.ID)
	assert.Equal(t, "Bench Press", gotSet.Exercise)
	assert.Equal(t, "2024-05-20", gotSet.WorkoutDate.String())
	assert.Equal(t, 660.0, gotSet.Volume)

	// not visible to another user
	_, err = repo.Get(ctx, userID+1, addedSet.ID)
	assert.ErrorIs(t, err, ErrSetNotFound)

	gotSet.Weight = 85
	require.NoError(t, repo.Update(ctx, gotSet))
	updatedSet, err := repo.Get(ctx, userID, addedSet.ID)
	require.NoError(t, err)
	assert.Equal(t, 85.0, updatedSet.Weight)
	assert.Equal(t, 680.0, updatedSet.Volume)

	assert.ErrorIs(t, repo.Delete(ctx, userID+1, addedSet.ID), ErrSetNotFound)
	require.NoError(t, repo.Delete(ctx, userID, addedSet.ID))
	_, err = repo.Get(ctx, userID, addedSet.ID)
	assert.ErrorIs(t, err, ErrSetNotFound)
}

func TestRepo_ListAndFilters(t *testing.T) {
	repo, userID, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()
	for _, set := range []Set{
		{UserID: userID, Exercise: "Bench Press", Weight: 80, Reps: 8, WorkoutDate: date(t, "2024-05-20")},
		{UserID: userID, Exercise: "Bench Press", Weight: 85, Reps: 5, WorkoutDate: date(t, "2024-05-27")},
		{UserID: userID, Exercise: "Squat", Weight: 100, Reps: 5, WorkoutDate: date(t, "2024-05-27")},
		{UserID: userID, Exercise: "Deadlift", Weight: 120, Reps: 3, WorkoutDate: date(t, "2024-06-03")},
	} {
		_, err := repo.Add(ctx, set)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, userID, ListFilters{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	// newest workout date first
	assert.Equal(t, "Deadlift", all[0].Exercise)

	exactDate := date(t, "2024-05-27")
	byDate, err := repo.List(ctx, userID, ListFilters{Date: &exactDate})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	from := date(t, "2024-05-21")
	to := date(t, "2024-06-03")
	byRange, err := repo.List(ctx, userID, ListFilters{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, byRange, 3)

	// case-insensitive substring match
	byExercise, err := repo.List(ctx, userID, ListFilters{Exercise: "bench"})
	require.NoError(t, err)
	assert.Len(t, byExercise, 2)

	otherUser, err := repo.List(ctx, userID+1, ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, otherUser)
}

func TestRepo_Aggregations(t *testing.T) {
	repo, userID, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()
	day := date(t, "2024-05-20")
	for _, set := range []Set{
		{UserID: userID, Exercise: "Bench Press", Weight: 135, Reps: 10, WorkoutDate: day},
		{UserID: userID, Exercise: "Bench Press", Weight: 145, Reps: 5, WorkoutDate: day},
		{UserID: userID, Exercise: "Squat", Weight: 100, Reps: 5, WorkoutDate: date(t, "2024-05-27")},
	} {
		_, err := repo.Add(ctx, set)
		require.NoError(t, err)
	}

	exercises, err := repo.DistinctExercises(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bench Press", "Squat"}, exercises)

	entries, err := repo.ProgressByDate(ctx, userID, "Bench Press")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-05-20", entries[0].Date.String())
	assert.Equal(t, 145.0, entries[0].MaxWeight)
	assert.Equal(t, 140.0, entries[0].AvgWeight)
	assert.Equal(t, 2075.0, entries[0].TotalVolume)
	assert.Equal(t, 2, entries[0].Sets)

	// exact label match only
	entries, err = repo.ProgressByDate(ctx, userID, "Bench")
	require.NoError(t, err)
	assert.Empty(t, entries)

	stats, err := repo.SummaryStats(ctx, userID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSets)
	assert.Equal(t, 2575.0, stats.TotalVolume)
	assert.Equal(t, 2, stats.WorkoutDays)
	assert.Equal(t, 2, stats.Exercises)

	to := date(t, "2024-05-20")
	stats, err = repo.SummaryStats(ctx, userID, nil, &to)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSets)
	assert.Equal(t, 2075.0, stats.TotalVolume)

	// nothing in range, zeros and no error
	from := date(t, "2030-01-01")
	stats, err = repo.SummaryStats(ctx, userID, &from, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSets)
	assert.Zero(t, stats.TotalVolume)
	assert.Zero(t, stats.WorkoutDays)
	assert.Zero(t, stats.Exercises)
}
