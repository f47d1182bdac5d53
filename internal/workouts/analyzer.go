package workouts

import (
	"context"

	"github.com/2beens/workout-tracker/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// Analyzer computes the read-side analytics over workout sets.
// All aggregation is recomputed per request, nothing is cached.
type Analyzer struct {
	repo workoutsRepo
}

func NewAnalyzer(repo workoutsRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
	}
}

// ListExercises returns the distinct exercise labels ever logged
// by the user, ordered lexicographically.
func (a *Analyzer) ListExercises(ctx context.Context, userID int) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.workouts.listExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return a.repo.DistinctExercises(ctx, userID)
}

// ExerciseProgress returns the per-date aggregates for one exercise
// (exact label match), plus the workout-day and set totals.
func (a *Analyzer) ExerciseProgress(ctx context.Context, userID int, exercise string) (_ *ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.workouts.exerciseProgress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", exercise))

	entries, err := a.repo.ProgressByDate(ctx, userID, exercise)
	if err != nil {
		return nil, err
	}

	totalSets := 0
	for _, entry := range entries {
		totalSets += entry.Sets
	}

	return &ExerciseProgress{
		Exercise:      exercise,
		ProgressData:  entries,
		TotalWorkouts: len(entries),
		TotalSets:     totalSets,
	}, nil
}

// Summary returns the totals over an optional inclusive date range,
// echoing the requested range back.
func (a *Analyzer) Summary(ctx context.Context, userID int, from, to *Date) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.workouts.summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	stats, err := a.repo.SummaryStats(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	return &Summary{
		SummaryStats: *stats,
		DateRange: DateRange{
			From: from,
			To:   to,
		},
	}, nil
}
