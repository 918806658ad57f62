package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/club-api/internal/models"
)

// CourseRepository persists courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const courseColumns = `id, name, description, start_date, end_date, capacity, registered_count, kind, allow_outsiders, active, created_at, updated_at`

// Create inserts a course with a zero registered count.
func (r *CourseRepository) Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course payload is nil")
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	course.RegisteredCount = 0
	course.Active = true

	const query = `
INSERT INTO courses (id, name, description, start_date, end_date, capacity, registered_count, kind, allow_outsiders, active, created_at, updated_at)
VALUES (:id, :name, :description, :start_date, :end_date, :capacity, :registered_count, :kind, :allow_outsiders, :active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, course); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// Replace overwrites the descriptor of an existing course, re-activating it
// with a zero registered count.
func (r *CourseRepository) Replace(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	course.RegisteredCount = 0
	course.Active = true

	const query = `
UPDATE courses SET name = :name, description = :description, start_date = :start_date, end_date = :end_date,
    capacity = :capacity, registered_count = :registered_count, kind = :kind, allow_outsiders = :allow_outsiders,
    active = :active, updated_at = :updated_at
WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, course)
	if err != nil {
		return fmt.Errorf("replace course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads a course regardless of its active flag.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// LockActive loads an active course under a row lock. Missing or inactive
// courses yield sql.ErrNoRows.
func (r *CourseRepository) LockActive(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 AND active = TRUE FOR UPDATE`
	var course models.Course
	if err := sqlx.GetContext(ctx, r.exec(exec), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Deactivate marks the course inactive and clears its registered count.
func (r *CourseRepository) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE courses SET active = FALSE, registered_count = 0, updated_at = $2 WHERE id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
