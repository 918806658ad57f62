package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/club-api/internal/models"
)

// ErrDuplicateRegistration is returned when the member already holds an
// active registration in the course.
var ErrDuplicateRegistration = errors.New("member already registered in course")

// EnrollmentRepository handles registrations and their enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const enrollmentColumns = `id, registration_id, course_id, weekday, status, created_at, cancelled_at`

// CreateRegistration inserts an active registration wrapper.
func (r *EnrollmentRepository) CreateRegistration(ctx context.Context, exec sqlx.ExtContext, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = time.Now().UTC()
	}
	registration.Status = models.EnrollmentStatusActive
	const query = `
INSERT INTO registrations (id, course_id, member_id, member_email, member_name, status, created_at)
VALUES (:id, :course_id, :member_id, :member_email, :member_name, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, registration); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert registration: %w", ErrDuplicateRegistration)
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// CreateEnrollment inserts an active enrollment.
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	enrollment.Status = models.EnrollmentStatusActive
	const query = `
INSERT INTO enrollments (id, registration_id, course_id, weekday, status, created_at)
VALUES (:id, :registration_id, :course_id, :weekday, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// ExistsActiveForMember reports whether the member already holds an active
// registration in the course.
func (r *EnrollmentRepository) ExistsActiveForMember(ctx context.Context, exec sqlx.ExtContext, courseID, memberID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM registrations WHERE course_id = $1 AND member_id = $2 AND status = $3)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, courseID, memberID, models.EnrollmentStatusActive); err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

// LockByID loads an active enrollment under a row lock.
func (r *EnrollmentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 AND status = $2 FOR UPDATE`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, r.exec(exec), &enrollment, query, id, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByCourse returns every active enrollment of a course together
// with the contact details of the enrolled member.
func (r *EnrollmentRepository) ListActiveByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.ActiveEnrollment, error) {
	const query = `SELECT e.id, e.registration_id, g.member_email, g.member_name
FROM enrollments e
JOIN registrations g ON g.id = e.registration_id
WHERE e.course_id = $1 AND e.status = $2
ORDER BY e.created_at ASC`
	var enrollments []models.ActiveEnrollment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &enrollments, query, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// CancelEnrollments marks the given enrollments cancelled.
func (r *EnrollmentRepository) CancelEnrollments(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `UPDATE enrollments SET status = $2, cancelled_at = $3 WHERE id = ANY($1) AND status = $4`
	return r.execAffected(ctx, exec, query, pq.Array(ids), models.EnrollmentStatusCancelled, time.Now().UTC(), models.EnrollmentStatusActive)
}

// CancelRegistrations marks the given registration wrappers cancelled.
func (r *EnrollmentRepository) CancelRegistrations(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `UPDATE registrations SET status = $2, cancelled_at = $3 WHERE id = ANY($1) AND status = $4`
	return r.execAffected(ctx, exec, query, pq.Array(ids), models.EnrollmentStatusCancelled, time.Now().UTC(), models.EnrollmentStatusActive)
}

// CountActiveInRegistration counts the active enrollments left in a registration.
func (r *EnrollmentRepository) CountActiveInRegistration(ctx context.Context, exec sqlx.ExtContext, registrationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE registration_id = $1 AND status = $2`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, registrationID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

func (r *EnrollmentRepository) execAffected(ctx context.Context, exec sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update enrollments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("enrollment rows affected: %w", err)
	}
	return affected, nil
}

