package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/pkg/calendar"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
	"github.com/noah-isme/club-api/pkg/response"
)

type enrollmentService interface {
	CanEnroll(ctx context.Context, courseID string, weekday *calendar.Weekday) (bool, error)
	Enroll(ctx context.Context, courseID string, req dto.EnrollRequest) (*models.Registration, error)
	CancelEnrollment(ctx context.Context, enrollmentID string) error
}

// EnrollmentHandler manages course enrollments.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Availability godoc
// @Summary Check whether a course can take another enrollee
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Param weekday query string false "Weekday, required for flexible courses"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/availability [get]
func (h *EnrollmentHandler) Availability(c *gin.Context) {
	courseID := c.Param("id")
	var weekday *calendar.Weekday
	if raw := strings.TrimSpace(c.Query("weekday")); raw != "" {
		parsed, err := calendar.ParseWeekday(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weekday"))
			return
		}
		weekday = &parsed
	}
	ok, err := h.service.CanEnroll(c.Request.Context(), courseID, weekday)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := dto.AvailabilityResponse{CourseID: courseID, CanEnroll: ok}
	if weekday != nil {
		name := weekday.String()
		out.Weekday = &name
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Enroll godoc
// @Summary Enroll a member into a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	registration, err := h.service.Enroll(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// Cancel godoc
// @Summary Cancel an enrollment
// @Tags Enrollments
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	if err := h.service.CancelEnrollment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
