package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/pkg/calendar"
)

// CourseSlotRepository manages the links between a course and its generated
// reservations.
type CourseSlotRepository struct {
	db *sqlx.DB
}

// NewCourseSlotRepository builds repository.
func NewCourseSlotRepository(db *sqlx.DB) *CourseSlotRepository {
	return &CourseSlotRepository{db: db}
}

func (r *CourseSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts one slot link.
func (r *CourseSlotRepository) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.CourseSlot) error {
	if slot.ReservationID == "" {
		return fmt.Errorf("course slot without reservation")
	}
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO course_slots (id, course_id, weekday, start_at, end_at, resource_id, resource_name, reservation_id, created_at)
VALUES (:id, :course_id, :weekday, :start_at, :end_at, :resource_id, :resource_name, :reservation_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("insert course slot: %w", err)
	}
	return nil
}

// ListByCourse returns slot links ordered chronologically.
func (r *CourseSlotRepository) ListByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.CourseSlot, error) {
	const query = `SELECT id, course_id, weekday, start_at, end_at, resource_id, resource_name, reservation_id, created_at
FROM course_slots WHERE course_id = $1 ORDER BY start_at ASC`
	var slots []models.CourseSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, courseID); err != nil {
		return nil, fmt.Errorf("list course slots: %w", err)
	}
	return slots, nil
}

// ListWeekdays returns the distinct weekdays a course is scheduled on.
func (r *CourseSlotRepository) ListWeekdays(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]calendar.Weekday, error) {
	const query = `SELECT DISTINCT weekday FROM course_slots WHERE course_id = $1 ORDER BY weekday ASC`
	var weekdays []calendar.Weekday
	if err := sqlx.SelectContext(ctx, r.exec(exec), &weekdays, query, courseID); err != nil {
		return nil, fmt.Errorf("list course weekdays: %w", err)
	}
	return weekdays, nil
}

// DeleteByCourse removes every slot link of a course.
func (r *CourseSlotRepository) DeleteByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM course_slots WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, fmt.Errorf("delete course slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("course slot rows affected: %w", err)
	}
	return affected, nil
}
