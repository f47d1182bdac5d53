package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/2beens/workout-tracker/internal/auth"
	"github.com/2beens/workout-tracker/internal/telemetry/metrics"
	"github.com/2beens/workout-tracker/internal/telemetry/tracing"
	"github.com/2beens/workout-tracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Add(ctx context.Context, set Set) (*Set, error)
	Get(ctx context.Context, userID, id int) (*Set, error)
	List(ctx context.Context, userID int, filters ListFilters) ([]Set, error)
	Update(ctx context.Context, set *Set) error
	Delete(ctx context.Context, userID, id int) error
	DistinctExercises(ctx context.Context, userID int) ([]string, error)
	ProgressByDate(ctx context.Context, userID int, exercise string) ([]ProgressEntry, error)
	SummaryStats(ctx context.Context, userID int, from, to *Date) (*SummaryStats, error)
}

type CreateSetRequest struct {
	Exercise    string  `json:"exercise"`
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	WorkoutDate Date    `json:"workout_date"`
}

type UpdateSetRequest struct {
	Exercise    *string  `json:"exercise"`
	Weight      *float64 `json:"weight"`
	Reps        *int     `json:"reps"`
	WorkoutDate *Date    `json:"workout_date"`
}

type DuplicateSetRequest struct {
	WorkoutDate *Date `json:"workout_date"`
}

type SetResponse struct {
	Message    string `json:"message,omitempty"`
	WorkoutSet Set    `json:"workout_set"`
}

type ListResponse struct {
	WorkoutSets []Set `json:"workout_sets"`
	Total       int   `json:"total"`
}

type Handler struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid content type", http.StatusBadRequest)
		return
	}

	var createReq CreateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		log.Tracef("add workout set, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	set := Set{
		UserID:      userID,
		Exercise:    createReq.Exercise,
		Weight:      createReq.Weight,
		Reps:        createReq.Reps,
		WorkoutDate: createReq.WorkoutDate,
	}
	if errMsg := validateSet(&set); errMsg != "" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, errMsg, http.StatusBadRequest)
		return
	}

	addedSet, err := handler.repo.Add(ctx, set)
	if err != nil {
		log.Errorf("failed to add workout set [%s] for user [%d]: %s", set.Exercise, userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to add workout set", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutSets.Inc()
	log.Debugf("new workout set added: %d [%s]", addedSet.ID, addedSet.Exercise)

	handler.writeSetResponse(w, SetResponse{
		Message:    "Workout set created successfully",
		WorkoutSet: *addedSet,
	}, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	id, ok := workoutSetID(w, r)
	if !ok {
		return
	}

	set, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteJSONError(w, pkg.ErrTypeNotFound, "Workout set not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout set [%d]: %s", id, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to get workout set", http.StatusInternalServerError)
		return
	}

	handler.writeSetResponse(w, SetResponse{WorkoutSet: *set}, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	parseDateParam := func(param string) (*Date, bool) {
		value := r.URL.Query().Get(param)
		if value == "" {
			return nil, true
		}
		date, err := ParseDate(value)
		if err != nil {
			pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid "+param+" parameter", http.StatusBadRequest)
			return nil, false
		}
		return &date, true
	}

	filters := ListFilters{
		Exercise: r.URL.Query().Get("exercise"),
	}
	if filters.Date, ok = parseDateParam("date"); !ok {
		return
	}
	if filters.From, ok = parseDateParam("date_from"); !ok {
		return
	}
	if filters.To, ok = parseDateParam("date_to"); !ok {
		return
	}

	sets, err := handler.repo.List(ctx, userID, filters)
	if err != nil {
		log.Errorf("failed to list workout sets for user [%d]: %s", userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to list workout sets", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int("sets.count", len(sets)))

	if sets == nil {
		sets = []Set{}
	}
	respBytes, err := json.Marshal(ListResponse{
		WorkoutSets: sets,
		Total:       len(sets),
	})
	if err != nil {
		log.Errorf("failed to marshal workout sets: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to list workout sets", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	id, ok := workoutSetID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid content type", http.StatusBadRequest)
		return
	}

	var updateReq UpdateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update workout set, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	set, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteJSONError(w, pkg.ErrTypeNotFound, "Workout set not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout set [%d] for update: %s", id, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to update workout set", http.StatusInternalServerError)
		return
	}

	// apply only the supplied fields
	if updateReq.Exercise != nil {
		set.Exercise = *updateReq.Exercise
	}
	if updateReq.Weight != nil {
		set.Weight = *updateReq.Weight
	}
	if updateReq.Reps != nil {
		set.Reps = *updateReq.Reps
	}
	if updateReq.WorkoutDate != nil {
		set.WorkoutDate = *updateReq.WorkoutDate
	}
	if errMsg := validateSet(set); errMsg != "" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, errMsg, http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, set); err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteJSONError(w, pkg.ErrTypeNotFound, "Workout set not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update workout set [%d]: %s", id, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to update workout set", http.StatusInternalServerError)
		return
	}

	set.ComputeVolume()
	handler.writeSetResponse(w, SetResponse{
		Message:    "Workout set updated successfully",
		WorkoutSet: *set,
	}, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	id, ok := workoutSetID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteJSONError(w, pkg.ErrTypeNotFound, "Workout set not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete workout set [%d]: %s", id, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to delete workout set", http.StatusInternalServerError)
		return
	}

	log.Debugf("workout set deleted: %d", id)
	pkg.WriteJSONResponseOK(w, `{"message":"Workout set deleted successfully"}`)
}

func (handler *Handler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.duplicate")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	id, ok := workoutSetID(w, r)
	if !ok {
		return
	}

	// the body is optional, an absent date means "same date as the source"
	var duplicateReq DuplicateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&duplicateReq); err != nil && !errors.Is(err, io.EOF) {
		log.Tracef("duplicate workout set, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	sourceSet, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteJSONError(w, pkg.ErrTypeNotFound, "Workout set not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout set [%d] for duplication: %s", id, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to duplicate workout set", http.StatusInternalServerError)
		return
	}

	workoutDate := sourceSet.WorkoutDate
	if duplicateReq.WorkoutDate != nil {
		workoutDate = *duplicateReq.WorkoutDate
	}

	duplicatedSet, err := handler.repo.Add(ctx, Set{
		UserID:      userID,
		Exercise:    sourceSet.Exercise,
		Weight:      sourceSet.Weight,
		Reps:        sourceSet.Reps,
		WorkoutDate: workoutDate,
	})
	if err != nil {
		log.Errorf("failed to duplicate workout set [%d]: %s", id, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to duplicate workout set", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutSets.Inc()
	log.Debugf("workout set %d duplicated into %d", id, duplicatedSet.ID)

	handler.writeSetResponse(w, SetResponse{
		Message:    "Workout set duplicated successfully",
		WorkoutSet: *duplicatedSet,
	}, http.StatusCreated)
}

func (handler *Handler) writeSetResponse(w http.ResponseWriter, resp SetResponse, statusCode int) {
	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal workout set [%d]: %s", resp.WorkoutSet.ID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "unexpected error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, statusCode)
}

func validateSet(set *Set) string {
	switch {
	case set.Exercise == "":
		return "exercise must not be empty"
	case set.Weight < 0:
		return "weight must not be negative"
	case set.Reps <= 0:
		return "reps must be positive"
	case set.WorkoutDate.IsZero():
		return "workout date required"
	default:
		return ""
	}
}

func workoutSetID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid workout set id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
