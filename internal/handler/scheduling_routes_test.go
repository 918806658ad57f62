package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/internal/middleware"
	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/pkg/calendar"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
)

type courseServiceMock struct {
	createID   string
	createErr  error
	updateErr  error
	deleteErr  error
	lastReq    dto.ScheduleRequest
	lastID     string
	lastFormat dto.ScheduleExportFormat
	cacheHit   bool
}

func (m *courseServiceMock) CreateSchedule(ctx context.Context, req dto.ScheduleRequest) (string, error) {
	m.lastReq = req
	return m.createID, m.createErr
}

func (m *courseServiceMock) UpdateSchedule(ctx context.Context, courseID string, req dto.ScheduleRequest) (string, error) {
	m.lastID = courseID
	m.lastReq = req
	return courseID, m.updateErr
}

func (m *courseServiceMock) DeleteSchedule(ctx context.Context, courseID string) error {
	m.lastID = courseID
	return m.deleteErr
}

func (m *courseServiceMock) GetCourse(ctx context.Context, courseID string) (*models.CourseDetail, error) {
	return &models.CourseDetail{Course: models.Course{ID: courseID, Name: "Evening Tennis"}}, nil
}

func (m *courseServiceMock) Schedule(ctx context.Context, courseID string) ([]models.CourseSlot, bool, error) {
	return []models.CourseSlot{{ID: "s1", CourseID: courseID, Weekday: calendar.Monday}}, m.cacheHit, nil
}

func (m *courseServiceMock) ExportSchedule(ctx context.Context, courseID string, format dto.ScheduleExportFormat) (*dto.ScheduleExport, error) {
	m.lastFormat = format
	return &dto.ScheduleExport{Filename: "course-" + courseID + "-schedule.csv", ContentType: "text/csv", Body: []byte("#,Date\n")}, nil
}

type enrollmentServiceMock struct {
	canEnroll   bool
	lastWeekday *calendar.Weekday
	enrollErr   error
	cancelErr   error
}

func (m *enrollmentServiceMock) CanEnroll(ctx context.Context, courseID string, weekday *calendar.Weekday) (bool, error) {
	m.lastWeekday = weekday
	return m.canEnroll, nil
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, courseID string, req dto.EnrollRequest) (*models.Registration, error) {
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return &models.Registration{ID: "g1", CourseID: courseID, MemberID: req.MemberID}, nil
}

func (m *enrollmentServiceMock) CancelEnrollment(ctx context.Context, enrollmentID string) error {
	return m.cancelErr
}

type reservationServiceMock struct {
	bookErr    error
	releaseErr error
}

func (m *reservationServiceMock) Book(ctx context.Context, req dto.BookResourceRequest) (*models.Reservation, error) {
	if m.bookErr != nil {
		return nil, m.bookErr
	}
	return &models.Reservation{ID: "rsv-1", OwnerID: req.MemberID, OwnerKind: models.ReservationOwnerMember}, nil
}

func (m *reservationServiceMock) Release(ctx context.Context, reservationID string) error {
	return m.releaseErr
}

func buildSchedulingRouter(courses *courseServiceMock, enrollments *enrollmentServiceMock, reservations *reservationServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	Register(router.Group("/api/v1"), Handlers{
		Courses:      NewCourseHandler(courses),
		Enrollments:  NewEnrollmentHandler(enrollments),
		Reservations: NewReservationHandler(reservations),
	})
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCourseRoutesCreate(t *testing.T) {
	courses := &courseServiceMock{createID: "course-1"}
	router := buildSchedulingRouter(courses, &enrollmentServiceMock{}, &reservationServiceMock{})

	resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/courses", `{"name":"Evening Tennis","start_date":"2025-01-01","end_date":"2025-01-31","kind":"FIXED","slots":[{"weekday":"MONDAY","start_time":"18:00","end_time":"19:00","resource":"Court 1"}]}`))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.JSONEq(t, `{"id":"course-1"}`, string(decode(t, resp).Data))
	require.Len(t, courses.lastReq.Slots, 1)
	assert.Equal(t, "Court 1", courses.lastReq.Slots[0].Resource)

	resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/courses", `{"name":`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCourseRoutesConflictCarriesDetails(t *testing.T) {
	details := &models.ScheduleConflictError{Resource: "Court 1", Day: "2025-01-13"}
	conflict := appErrors.WithDetails(appErrors.Wrap(details, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, details.Error()), details)
	router := buildSchedulingRouter(&courseServiceMock{createErr: conflict}, &enrollmentServiceMock{}, &reservationServiceMock{})

	resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/courses", `{"name":"x"}`))
	require.Equal(t, http.StatusConflict, resp.Code)
	env := decode(t, resp)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Contains(t, env.Error.Message, "Court 1")
	assert.Contains(t, string(env.Error.Details), `"day":"2025-01-13"`)
}

func TestCourseRoutesUpdateDeleteAndRead(t *testing.T) {
	courses := &courseServiceMock{cacheHit: true}
	router := buildSchedulingRouter(courses, &enrollmentServiceMock{}, &reservationServiceMock{})

	resp := performRequest(router, jsonRequest(http.MethodPut, "/api/v1/courses/course-1", `{"name":"Renamed"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "course-1", courses.lastID)
	assert.Equal(t, "Renamed", courses.lastReq.Name)

	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/courses/course-2", ""))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "course-2", courses.lastID)

	courses.deleteErr = appErrors.Clone(appErrors.ErrNotFound, "course not found or already inactive")
	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/courses/course-2", ""))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/courses/course-1", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"Evening Tennis"`)

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/courses/course-1/schedule", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"weekday":"MONDAY"`)
	assert.Contains(t, resp.Body.String(), `"occurrences":1`)
	assert.Contains(t, resp.Body.String(), `"cache_hit":true`)
}

func TestCourseRoutesExport(t *testing.T) {
	courses := &courseServiceMock{}
	router := buildSchedulingRouter(courses, &enrollmentServiceMock{}, &reservationServiceMock{})

	resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/courses/course-1/schedule/export?format=CSV", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, dto.ScheduleExportCSV, courses.lastFormat)
	assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="course-course-1-schedule.csv"`, resp.Header().Get("Content-Disposition"))
	assert.Equal(t, "#,Date\n", resp.Body.String())
}

func TestEnrollmentRoutes(t *testing.T) {
	enrollments := &enrollmentServiceMock{canEnroll: true}
	router := buildSchedulingRouter(&courseServiceMock{}, enrollments, &reservationServiceMock{})

	resp := performRequest(router, jsonRequest(http.MethodGet, "/api/v1/courses/course-1/availability?weekday=wed", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, enrollments.lastWeekday)
	assert.Equal(t, calendar.Wednesday, *enrollments.lastWeekday)
	assert.JSONEq(t, `{"course_id":"course-1","weekday":"WEDNESDAY","can_enroll":true}`, string(decode(t, resp).Data))

	resp = performRequest(router, jsonRequest(http.MethodGet, "/api/v1/courses/course-1/availability?weekday=someday", ""))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/courses/course-1/enrollments", `{"member_id":"m1","member_email":"m1@club.test"}`))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"member_id":"m1"`)

	enrollments.enrollErr = appErrors.Clone(appErrors.ErrCapacityExceeded, "course course-1 is full (capacity 2)")
	resp = performRequest(router, jsonRequest(http.MethodPost, "/api/v1/courses/course-1/enrollments", `{"member_id":"m2","member_email":"m2@club.test"}`))
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "CAPACITY_EXCEEDED", decode(t, resp).Error.Code)

	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/enrollments/e1", ""))
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestReservationRoutes(t *testing.T) {
	reservations := &reservationServiceMock{}
	router := buildSchedulingRouter(&courseServiceMock{}, &enrollmentServiceMock{}, reservations)

	resp := performRequest(router, jsonRequest(http.MethodPost, "/api/v1/reservations", `{"resource":"Court 1","date":"2025-01-13","start_time":"18:30","end_time":"19:30","member_id":"m1"}`))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"owner_kind":"MEMBER"`)

	reservations.releaseErr = appErrors.Clone(appErrors.ErrPreconditionFailed, "course reservations are released by editing or deleting the course")
	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/reservations/rsv-1", ""))
	assert.Equal(t, http.StatusPreconditionFailed, resp.Code)

	reservations.releaseErr = errors.New("boom")
	resp = performRequest(router, jsonRequest(http.MethodDelete, "/api/v1/reservations/rsv-1", ""))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
