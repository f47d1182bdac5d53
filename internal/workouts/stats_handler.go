package workouts

import (
	"encoding/json"
	"net/http"

	"github.com/2beens/workout-tracker/internal/auth"
	"github.com/2beens/workout-tracker/internal/telemetry/tracing"
	"github.com/2beens/workout-tracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type StatsHandler struct {
	analyzer *Analyzer
}

func NewStatsHandler(analyzer *Analyzer) *StatsHandler {
	return &StatsHandler{
		analyzer: analyzer,
	}
}

// HandleListExercises returns the distinct exercise labels ever logged
// by the requesting user.
func (handler *StatsHandler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.stats.exercises")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	exercises, err := handler.analyzer.ListExercises(ctx, userID)
	if err != nil {
		log.Errorf("failed to list exercises for user [%d]: %s", userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	if exercises == nil {
		exercises = []string{}
	}
	respBytes, err := json.Marshal(map[string][]string{
		"exercises": exercises,
	})
	if err != nil {
		log.Errorf("failed to marshal exercises: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

// HandleProgress returns per-date aggregates for a single exercise.
func (handler *StatsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.stats.progress")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	exercise := mux.Vars(r)["exercise"]
	if exercise == "" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "exercise must not be empty", http.StatusBadRequest)
		return
	}

	progress, err := handler.analyzer.ExerciseProgress(ctx, userID, exercise)
	if err != nil {
		log.Errorf("failed to get progress for [%s], user [%d]: %s", exercise, userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to get exercise progress", http.StatusInternalServerError)
		return
	}

	if progress.ProgressData == nil {
		progress.ProgressData = []ProgressEntry{}
	}
	respBytes, err := json.Marshal(progress)
	if err != nil {
		log.Errorf("failed to marshal progress for [%s]: %s", exercise, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to get exercise progress", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

// HandleSummary returns the totals over an optional inclusive date range.
func (handler *StatsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.stats.summary")
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

	from, ok := parseDateParam("date_from")
	if !ok {
		return
	}
	to, ok := parseDateParam("date_to")
	if !ok {
		return
	}

	summary, err := handler.analyzer.Summary(ctx, userID, from, to)
	if err != nil {
		log.Errorf("failed to get workout summary for user [%d]: %s", userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to get workout summary", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("failed to marshal workout summary: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to get workout summary", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}
