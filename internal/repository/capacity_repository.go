package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/club-api/pkg/calendar"
)

// ErrCapacityReached is returned when a conditional increment finds the pool full.
var ErrCapacityReached = errors.New("capacity reached")

// CapacityRepository maintains registered counts with conditional updates so
// concurrent enrollments never push a pool past its capacity.
type CapacityRepository struct {
	db *sqlx.DB
}

// NewCapacityRepository builds repository.
func NewCapacityRepository(db *sqlx.DB) *CapacityRepository {
	return &CapacityRepository{db: db}
}

func (r *CapacityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// IncrementRegistered adds one seat to the course counter. When enforce is
// true the update only applies while the course is below its capacity.
func (r *CapacityRepository) IncrementRegistered(ctx context.Context, exec sqlx.ExtContext, courseID string, enforce bool) (int, error) {
	query := `UPDATE courses SET registered_count = registered_count + 1
WHERE id = $1 AND active = TRUE`
	if enforce {
		query += ` AND (capacity = 0 OR registered_count < capacity)`
	}
	query += ` RETURNING registered_count`

	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCapacityReached
		}
		return 0, fmt.Errorf("increment registered count: %w", err)
	}
	return count, nil
}

// DecrementRegistered releases one seat, never going below zero.
func (r *CapacityRepository) DecrementRegistered(ctx context.Context, exec sqlx.ExtContext, courseID string) error {
	const query = `UPDATE courses SET registered_count = GREATEST(registered_count - 1, 0) WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("decrement registered count: %w", err)
	}
	return nil
}

// IncrementWeekday adds one seat to the per-weekday pool of a flexible course.
// The guard reads the course capacity in the same statement; zero means unlimited.
func (r *CapacityRepository) IncrementWeekday(ctx context.Context, exec sqlx.ExtContext, courseID string, weekday calendar.Weekday) (int, error) {
	const query = `INSERT INTO course_weekday_counts (course_id, weekday, registered_count)
SELECT c.id, $2::smallint, 1 FROM courses c WHERE c.id = $1 AND c.active = TRUE
ON CONFLICT (course_id, weekday) DO UPDATE
SET registered_count = course_weekday_counts.registered_count + 1
WHERE (SELECT capacity FROM courses WHERE id = $1) = 0
   OR course_weekday_counts.registered_count < (SELECT capacity FROM courses WHERE id = $1)
RETURNING registered_count`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, courseID, weekday); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCapacityReached
		}
		return 0, fmt.Errorf("increment weekday count: %w", err)
	}
	return count, nil
}

// DecrementWeekday releases one seat of a weekday pool.
func (r *CapacityRepository) DecrementWeekday(ctx context.Context, exec sqlx.ExtContext, courseID string, weekday calendar.Weekday) error {
	const query = `UPDATE course_weekday_counts SET registered_count = GREATEST(registered_count - 1, 0)
WHERE course_id = $1 AND weekday = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, courseID, weekday); err != nil {
		return fmt.Errorf("decrement weekday count: %w", err)
	}
	return nil
}

// WeekdayCount returns the seats taken on a weekday; absent pools count as zero.
func (r *CapacityRepository) WeekdayCount(ctx context.Context, courseID string, weekday calendar.Weekday) (int, error) {
	const query = `SELECT registered_count FROM course_weekday_counts WHERE course_id = $1 AND weekday = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID, weekday); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("weekday count: %w", err)
	}
	return count, nil
}

// ResetCounts zeroes the course counter and drops every weekday pool.
func (r *CapacityRepository) ResetCounts(ctx context.Context, exec sqlx.ExtContext, courseID string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `UPDATE courses SET registered_count = 0 WHERE id = $1`, courseID); err != nil {
		return fmt.Errorf("reset registered count: %w", err)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM course_weekday_counts WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("reset weekday counts: %w", err)
	}
	return nil
}
