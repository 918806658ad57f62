package dto

// EnrollRequest registers a member into a course. Weekdays are required for
// flexible courses and ignored for fixed ones.
type EnrollRequest struct {
	MemberID    string   `json:"member_id" validate:"required"`
	MemberEmail string   `json:"member_email" validate:"required,email"`
	MemberName  string   `json:"member_name" validate:"max=200"`
	Weekdays    []string `json:"weekdays" validate:"omitempty,max=7,dive,required"`
}

// AvailabilityResponse reports whether a course can take another enrollee.
type AvailabilityResponse struct {
	CourseID  string  `json:"course_id"`
	Weekday   *string `json:"weekday,omitempty"`
	CanEnroll bool    `json:"can_enroll"`
}
