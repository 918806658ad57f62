package dto

// BookResourceRequest books a resource for a single window on behalf of a member.
type BookResourceRequest struct {
	Resource       string `json:"resource" validate:"required"`
	Date           string `json:"date" validate:"required"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	MemberID       string `json:"member_id" validate:"required"`
	Capacity       *int   `json:"capacity" validate:"omitempty,min=0"`
	AllowOutsiders *bool  `json:"allow_outsiders"`
}
