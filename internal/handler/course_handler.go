package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/internal/middleware"
	"github.com/noah-isme/club-api/internal/models"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
	"github.com/noah-isme/club-api/pkg/response"
)

type courseScheduleService interface {
	CreateSchedule(ctx context.Context, req dto.ScheduleRequest) (string, error)
	UpdateSchedule(ctx context.Context, courseID string, req dto.ScheduleRequest) (string, error)
	DeleteSchedule(ctx context.Context, courseID string) error
	GetCourse(ctx context.Context, courseID string) (*models.CourseDetail, error)
	Schedule(ctx context.Context, courseID string) ([]models.CourseSlot, bool, error)
	ExportSchedule(ctx context.Context, courseID string, format dto.ScheduleExportFormat) (*dto.ScheduleExport, error)
}

// CourseHandler exposes course schedule endpoints.
type CourseHandler struct {
	service courseScheduleService
}

// NewCourseHandler builds a new handler.
func NewCourseHandler(service courseScheduleService) *CourseHandler {
	return &CourseHandler{service: service}
}

// Create godoc
// @Summary Create a course and commit its recurring schedule
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleRequest true "Course schedule"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	id, err := h.service.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// Update godoc
// @Summary Replace the schedule of an active course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ScheduleRequest true "Course schedule"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	id, err := h.service.UpdateSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id}, nil)
}

// Delete godoc
// @Summary Delete a course, freeing its reservations and cancelling enrollments
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get a course with its pricing tiers
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, err := h.service.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Schedule godoc
// @Summary List the generated occurrences of a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedule [get]
func (h *CourseHandler) Schedule(c *gin.Context) {
	start := time.Now()
	slots, cacheHit, err := h.service.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "occurrences", len(slots))
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, slots, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download the course schedule
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /courses/{id}/schedule/export [get]
func (h *CourseHandler) Export(c *gin.Context) {
	format := dto.ScheduleExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.ScheduleExportCSV))))
	out, err := h.service.ExportSchedule(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, out.Filename, out.ContentType, out.Body)
}
