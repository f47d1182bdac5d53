package workouts_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/workout-tracker/internal/workouts"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestStatsHandler(t *testing.T) (*workouts.StatsHandler, *MockworkoutsRepo) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repoMock := NewMockworkoutsRepo(ctrl)
	return workouts.NewStatsHandler(workouts.NewAnalyzer(repoMock)), repoMock
}

func TestStatsHandler_ListExercises(t *testing.T) {
	h, repoMock := newTestStatsHandler(t)

	repoMock.EXPECT().
		DistinctExercises(gomock.Any(), testUserID).
		Return([]string{"Bench Press", "Deadlift", "Squat"}, nil)

	req := authedRequest(t, "GET", "/analytics/exercises", nil)
	rec := httptest.NewRecorder()

	h.HandleListExercises(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Bench Press", "Deadlift", "Squat"}, resp["exercises"])
}

func TestStatsHandler_ListExercises_empty(t *testing.T) {
	h, repoMock := newTestStatsHandler(t)

	repoMock.EXPECT().
		DistinctExercises(gomock.Any(), testUserID).
		Return(nil, nil)

	req := authedRequest(t, "GET", "/analytics/exercises", nil)
	rec := httptest.NewRecorder()

	h.HandleListExercises(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exercises":[]}`, rec.Body.String())
}

func TestStatsHandler_Progress(t *testing.T) {
	h, repoMock := newTestStatsHandler(t)

	day := mustDate(t, "2024-05-20")
	repoMock.EXPECT().
		ProgressByDate(gomock.Any(), testUserID, "Bench Press").
		Return([]workouts.ProgressEntry{
			{
				Date:        day,
				MaxWeight:   145,
				AvgWeight:   140,
				TotalVolume: 2075,
				Sets:        2,
			},
		}, nil)

	req := mux.SetURLVars(
		authedRequest(t, "GET", "/analytics/progress/Bench%20Press", nil),
		map[string]string{"exercise": "Bench Press"},
	)
	rec := httptest.NewRecorder()

	h.HandleProgress(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp workouts.ExerciseProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bench Press", resp.Exercise)
	require.Len(t, resp.ProgressData, 1)
	assert.Equal(t, 145.0, resp.ProgressData[0].MaxWeight)
	assert.Equal(t, 140.0, resp.ProgressData[0].AvgWeight)
	assert.Equal(t, 2075.0, resp.ProgressData[0].TotalVolume)
	assert.Equal(t, 2, resp.ProgressData[0].Sets)
	assert.Equal(t, 1, resp.TotalWorkouts)
	assert.Equal(t, 2, resp.TotalSets)
}

func TestStatsHandler_Summary(t *testing.T) {
	h, repoMock := newTestStatsHandler(t)

	from := mustDate(t, "2024-05-01")
	repoMock.EXPECT().
		SummaryStats(gomock.Any(), testUserID, &from, nil).
		Return(&workouts.SummaryStats{
			TotalSets:   12,
			TotalVolume: 8400,
			WorkoutDays: 4,
			Exercises:   3,
		}, nil)

	req := authedRequest(t, "GET", "/analytics/summary?date_from=2024-05-01", nil)
	rec := httptest.NewRecorder()

	h.HandleSummary(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp workouts.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.TotalSets)
	assert.Equal(t, 8400.0, resp.TotalVolume)
	require.NotNil(t, resp.DateRange.From)
	assert.Equal(t, "2024-05-01", resp.DateRange.From.String())
	assert.Nil(t, resp.DateRange.To)
}

func TestStatsHandler_Summary_noMatches(t *testing.T) {
	h, repoMock := newTestStatsHandler(t)

	repoMock.EXPECT().
		SummaryStats(gomock.Any(), testUserID, nil, nil).
		Return(&workouts.SummaryStats{}, nil)

	req := authedRequest(t, "GET", "/analytics/summary", nil)
	rec := httptest.NewRecorder()

	h.HandleSummary(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp workouts.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.TotalSets)
	assert.Zero(t, resp.TotalVolume)
	assert.Zero(t, resp.WorkoutDays)
	assert.Zero(t, resp.Exercises)
}

func TestStatsHandler_Summary_invalidDate(t *testing.T) {
	h, _ := newTestStatsHandler(t)

	req := authedRequest(t, "GET", "/analytics/summary?date_to=lastweek", nil)
	rec := httptest.NewRecorder()

	h.HandleSummary(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid date_to parameter")
}
