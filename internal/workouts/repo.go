package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/workout-tracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSetNotFound = errors.New("workout set not found")

// ListFilters narrow down a workout sets listing. Zero values mean
// "no filtering" for the given field.
type ListFilters struct {
	Date     *Date
	From     *Date
	To       *Date
	Exercise string
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, set Set) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO workout_sets
				(user_id, exercise, weight, reps, workout_date)
				VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at;`,
		set.UserID, set.Exercise, set.Weight, set.Reps, set.WorkoutDate.Time,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	if err := rows.Scan(&set.ID, &set.CreatedAt); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("set.id", set.ID))

	set.ComputeVolume()
	return &set, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, exercise, weight, reps, workout_date, created_at
			FROM workout_sets
			WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sets, err := r.rows2sets(rows)
	if err != nil {
		return nil, err
	}

	if len(sets) != 1 {
		return nil, ErrSetNotFound
	}

	return &sets[0], nil
}

// List returns all workout sets of a user matching the given filters,
// newest workout date first.
func (r *Repo) List(ctx context.Context, userID int, filters ListFilters) (_ []Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", filters.Exercise))
	if filters.Date != nil {
		span.SetAttributes(attribute.String("date", filters.Date.String()))
	}
	if filters.From != nil {
		span.SetAttributes(attribute.String("from", filters.From.String()))
	}
	if filters.To != nil {
		span.SetAttributes(attribute.String("to", filters.To.String()))
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, exercise, weight, reps, workout_date, created_at
			FROM workout_sets
				WHERE user_id = $1
				AND ($2::date IS NULL OR workout_date = $2)
				AND ($3::date IS NULL OR workout_date >= $3)
				AND ($4::date IS NULL OR workout_date <= $4)
				AND ($5::text = '' OR exercise ILIKE '%' || $5 || '%')
			ORDER BY workout_date DESC, created_at DESC;`,
		userID,
		dateArg(filters.Date), dateArg(filters.From), dateArg(filters.To),
		filters.Exercise,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	sets, err := r.rows2sets(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2sets: %w", err)
	}
	return sets, nil
}

func (r *Repo) Update(ctx context.Context, set *Set) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", set.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_sets SET exercise = $1, weight = $2, reps = $3, workout_date = $4 WHERE id = $5 AND user_id = $6;`,
		set.Exercise, set.Weight, set.Reps, set.WorkoutDate.Time, set.ID, set.UserID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_sets WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}
	return nil
}

// DistinctExercises returns all exercise labels ever logged by the user,
// ordered lexicographically.
func (r *Repo) DistinctExercises(ctx context.Context, userID int) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.distinctExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT exercise FROM workout_sets WHERE user_id = $1 ORDER BY exercise;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var exercises []string
	for rows.Next() {
		var exercise string
		if err := rows.Scan(&exercise); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercises = append(exercises, exercise)
	}

	return exercises, nil
}

// ProgressByDate aggregates the user's sets of one exercise per workout
// date, oldest date first.
func (r *Repo) ProgressByDate(ctx context.Context, userID int, exercise string) (_ []ProgressEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.progressByDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", exercise))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				workout_date,
				MAX(weight) AS max_weight,
				AVG(weight) AS avg_weight,
				SUM(weight * reps) AS total_volume,
				COUNT(id) AS sets
			FROM workout_sets
			WHERE user_id = $1 AND exercise = $2
			GROUP BY workout_date
			ORDER BY workout_date;`,
		userID, exercise,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var entries []ProgressEntry
	for rows.Next() {
		var (
			entry       ProgressEntry
			workoutDate time.Time
		)
		if err := rows.Scan(
			&workoutDate, &entry.MaxWeight, &entry.AvgWeight, &entry.TotalVolume, &entry.Sets,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entry.Date = Date{workoutDate}
		entries = append(entries, entry)
	}

	return entries, nil
}

// SummaryStats aggregates the user's sets over an optional inclusive
// date range. Zeros are returned when nothing matches.
func (r *Repo) SummaryStats(ctx context.Context, userID int, from, to *Date) (_ *SummaryStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.summaryStats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	if from != nil {
		span.SetAttributes(attribute.String("from", from.String()))
	}
	if to != nil {
		span.SetAttributes(attribute.String("to", to.String()))
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				COUNT(id) AS total_sets,
				COALESCE(SUM(weight * reps), 0) AS total_volume,
				COUNT(DISTINCT workout_date) AS workout_days,
				COUNT(DISTINCT exercise) AS exercises
			FROM workout_sets
				WHERE user_id = $1
				AND ($2::date IS NULL OR workout_date >= $2)
				AND ($3::date IS NULL OR workout_date <= $3);`,
		userID, dateArg(from), dateArg(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var stats SummaryStats
	if err := rows.Scan(
		&stats.TotalSets, &stats.TotalVolume, &stats.WorkoutDays, &stats.Exercises,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &stats, nil
}

func (r *Repo) rows2sets(rows pgx.Rows) ([]Set, error) {
	var sets []Set
	for rows.Next() {
		var (
			set         Set
			workoutDate time.Time
		)
		if err := rows.Scan(
			&set.ID, &set.UserID, &set.Exercise, &set.Weight, &set.Reps, &workoutDate, &set.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		set.WorkoutDate = Date{workoutDate}
		set.ComputeVolume()
		sets = append(sets, set)
	}
	return sets, nil
}

func dateArg(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}
