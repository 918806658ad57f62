package models

import (
	"time"

	"github.com/noah-isme/club-api/pkg/calendar"
)

// CourseKind distinguishes how capacity is pooled across enrollees.
type CourseKind string

const (
	// CourseKindFixed shares one capacity pool; everyone attends the same days.
	CourseKindFixed CourseKind = "FIXED"
	// CourseKindFlexible lets enrollees pick weekdays; capacity applies per weekday.
	CourseKindFlexible CourseKind = "FLEXIBLE"
)

// Valid reports whether the kind is known.
func (k CourseKind) Valid() bool {
	return k == CourseKindFixed || k == CourseKindFlexible
}

// Course is a scheduled activity occupying a resource on weekly slots.
type Course struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Description     string     `db:"description" json:"description"`
	StartDate       time.Time  `db:"start_date" json:"start_date"`
	EndDate         time.Time  `db:"end_date" json:"end_date"`
	Capacity        int        `db:"capacity" json:"capacity"`
	RegisteredCount int        `db:"registered_count" json:"registered_count"`
	Kind            CourseKind `db:"kind" json:"kind"`
	AllowOutsiders  bool       `db:"allow_outsiders" json:"allow_outsiders"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Unlimited reports whether the course has no capacity limit.
func (c Course) Unlimited() bool {
	return c.Capacity == 0
}

// PricingTier prices a course by the number of days per week attended.
type PricingTier struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	DaysPerWeek int       `db:"days_per_week" json:"days_per_week"`
	MemberPrice float64   `db:"member_price" json:"member_price"`
	GuestPrice  float64   `db:"guest_price" json:"guest_price"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseDetail bundles a course with its active pricing tiers.
type CourseDetail struct {
	Course
	PricingTiers []PricingTier `json:"pricing_tiers"`
}

// WeeklySlot is one recurring slot of a course schedule. It is input only;
// each generated occurrence is persisted as a CourseSlot.
type WeeklySlot struct {
	Weekday      calendar.Weekday
	From         calendar.Clock
	To           calendar.Clock
	ResourceName string
}

// CourseSlot links one generated occurrence of a course to its reservation.
type CourseSlot struct {
	ID            string           `db:"id" json:"id"`
	CourseID      string           `db:"course_id" json:"course_id"`
	Weekday       calendar.Weekday `db:"weekday" json:"weekday"`
	StartAt       time.Time        `db:"start_at" json:"start_at"`
	EndAt         time.Time        `db:"end_at" json:"end_at"`
	ResourceID    string           `db:"resource_id" json:"resource_id"`
	ResourceName  string           `db:"resource_name" json:"resource_name"`
	ReservationID string           `db:"reservation_id" json:"reservation_id"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// Window returns the occurrence interval.
func (s CourseSlot) Window() calendar.Window {
	return calendar.Window{Start: s.StartAt, End: s.EndAt}
}
