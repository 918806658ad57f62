package models

import (
	"fmt"
	"time"

	"github.com/noah-isme/club-api/pkg/calendar"
)

// EnrollmentStatus represents the lifecycle of an enrollment or registration.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Registration wraps the enrollments a member holds in one course.
type Registration struct {
	ID          string           `db:"id" json:"id"`
	CourseID    string           `db:"course_id" json:"course_id"`
	MemberID    string           `db:"member_id" json:"member_id"`
	MemberEmail string           `db:"member_email" json:"member_email"`
	MemberName  string           `db:"member_name" json:"member_name"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	CancelledAt *time.Time       `db:"cancelled_at" json:"cancelled_at,omitempty"`
	Enrollments []Enrollment     `db:"-" json:"enrollments,omitempty"`
}

// Enrollment is one seat in a course; flexible courses carry the chosen weekday.
type Enrollment struct {
	ID             string            `db:"id" json:"id"`
	RegistrationID string            `db:"registration_id" json:"registration_id"`
	CourseID       string            `db:"course_id" json:"course_id"`
	Weekday        *calendar.Weekday `db:"weekday" json:"weekday,omitempty"`
	Status         EnrollmentStatus  `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	CancelledAt    *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// ActiveEnrollment is the projection used when tearing a course down.
type ActiveEnrollment struct {
	ID             string `db:"id" json:"id"`
	RegistrationID string `db:"registration_id" json:"registration_id"`
	MemberEmail    string `db:"member_email" json:"member_email"`
	MemberName     string `db:"member_name" json:"member_name"`
}

// Recipient is a member to be told about a schedule change.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CapacityError reports which pool rejected an enrollment.
type CapacityError struct {
	CourseID string            `json:"course_id"`
	Weekday  *calendar.Weekday `json:"weekday,omitempty"`
	Capacity int               `json:"capacity"`
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Weekday != nil {
		return fmt.Sprintf("course %s is full on %s (capacity %d)", e.CourseID, e.Weekday, e.Capacity)
	}
	return fmt.Sprintf("course %s is full (capacity %d)", e.CourseID, e.Capacity)
}
