package dto

import "github.com/noah-isme/club-api/internal/models"

// ScheduleRequest describes a course together with its weekly slots and
// pricing tiers. It is the payload for both creating and replacing a schedule.
type ScheduleRequest struct {
	Name           string               `json:"name" validate:"required,max=200"`
	Description    string               `json:"description" validate:"max=2000"`
	StartDate      string               `json:"start_date" validate:"required"`
	EndDate        string               `json:"end_date" validate:"required"`
	Capacity       int                  `json:"capacity" validate:"min=0"`
	Kind           models.CourseKind    `json:"kind" validate:"required,oneof=FIXED FLEXIBLE"`
	AllowOutsiders bool                 `json:"allow_outsiders"`
	Slots          []WeeklySlotRequest  `json:"slots" validate:"required,min=1,dive"`
	PricingTiers   []PricingTierRequest `json:"pricing_tiers" validate:"omitempty,dive"`
}

// WeeklySlotRequest is one recurring weekly slot on a named resource.
type WeeklySlotRequest struct {
	Weekday   string `json:"weekday" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Resource  string `json:"resource" validate:"required"`
}

// PricingTierRequest prices the course for a number of days per week.
type PricingTierRequest struct {
	DaysPerWeek int     `json:"days_per_week" validate:"min=1,max=7"`
	MemberPrice float64 `json:"member_price" validate:"min=0"`
	GuestPrice  float64 `json:"guest_price" validate:"min=0"`
}

// ScheduleExportFormat selects the export renderer.
type ScheduleExportFormat string

const (
	ScheduleExportCSV ScheduleExportFormat = "csv"
	ScheduleExportPDF ScheduleExportFormat = "pdf"
)

// ScheduleExport is a rendered course schedule.
type ScheduleExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
