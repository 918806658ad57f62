package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/internal/repository"
	"github.com/noah-isme/club-api/pkg/calendar"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
)

type enrollmentRepository interface {
	CreateRegistration(ctx context.Context, exec sqlx.ExtContext, registration *models.Registration) error
	CreateEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	ExistsActiveForMember(ctx context.Context, exec sqlx.ExtContext, courseID, memberID string) (bool, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	CancelEnrollments(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error)
	CancelRegistrations(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error)
	CountActiveInRegistration(ctx context.Context, exec sqlx.ExtContext, registrationID string) (int, error)
}

type capacityRepository interface {
	IncrementRegistered(ctx context.Context, exec sqlx.ExtContext, courseID string, enforce bool) (int, error)
	DecrementRegistered(ctx context.Context, exec sqlx.ExtContext, courseID string) error
	IncrementWeekday(ctx context.Context, exec sqlx.ExtContext, courseID string, weekday calendar.Weekday) (int, error)
	DecrementWeekday(ctx context.Context, exec sqlx.ExtContext, courseID string, weekday calendar.Weekday) error
	WeekdayCount(ctx context.Context, courseID string, weekday calendar.Weekday) (int, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	LockActive(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error)
}

type weekdayLister interface {
	ListWeekdays(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]calendar.Weekday, error)
}

// EnrollmentService is the capacity ledger. Seats are taken with conditional
// updates inside the enrollment transaction, so concurrent attempts can never
// overbook a pool.
type EnrollmentService struct {
	tx        txRunner
	repo      enrollmentRepository
	capacity  capacityRepository
	courses   courseReader
	weekdays  weekdayLister
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(tx txRunner, repo enrollmentRepository, capacity capacityRepository, courses courseReader, weekdays weekdayLister, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		tx:        tx,
		repo:      repo,
		capacity:  capacity,
		courses:   courses,
		weekdays:  weekdays,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// CanEnroll reports whether one more member fits. Fixed courses ignore the
// weekday; flexible courses require one and check that weekday's pool.
func (s *EnrollmentService) CanEnroll(ctx context.Context, courseID string, weekday *calendar.Weekday) (bool, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return false, err
	}
	if !course.Active {
		return false, nil
	}

	if course.Kind != models.CourseKindFlexible {
		return course.Unlimited() || course.RegisteredCount+1 <= course.Capacity, nil
	}

	if weekday == nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "weekday is required for flexible courses")
	}
	scheduled, err := s.scheduledWeekdays(ctx, nil, courseID)
	if err != nil {
		return false, err
	}
	if _, ok := scheduled[*weekday]; !ok {
		return false, nil
	}
	if course.Unlimited() {
		return true, nil
	}
	count, err := s.capacity.WeekdayCount(ctx, courseID, *weekday)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read weekday count")
	}
	return count+1 <= course.Capacity, nil
}

// Enroll registers a member. Fixed courses take one seat from the shared
// pool; flexible courses take one seat per selected weekday. Either every
// seat is taken or none is. The course row is locked for the whole
// transaction, so a concurrent schedule edit cannot change its capacity or
// weekdays underneath the increments.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID string, req dto.EnrollRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	registration := &models.Registration{
		CourseID:    courseID,
		MemberID:    req.MemberID,
		MemberEmail: req.MemberEmail,
		MemberName:  req.MemberName,
	}
	started := time.Now()
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		course, err := s.courses.LockActive(ctx, exec, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found or inactive")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock course")
		}

		var weekdays []calendar.Weekday
		if course.Kind == models.CourseKindFlexible {
			weekdays, err = s.selectedWeekdays(ctx, exec, courseID, req.Weekdays)
			if err != nil {
				return err
			}
		}

		exists, err := s.repo.ExistsActiveForMember(ctx, exec, courseID, req.MemberID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
		}
		if exists {
			return duplicateMemberError()
		}
		if err := s.repo.CreateRegistration(ctx, exec, registration); err != nil {
			if errors.Is(err, repository.ErrDuplicateRegistration) {
				return duplicateMemberError()
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
		}

		if course.Kind != models.CourseKindFlexible {
			if _, err := s.capacity.IncrementRegistered(ctx, exec, courseID, true); err != nil {
				return s.capacityError(course, nil, err)
			}
			return s.addEnrollment(ctx, exec, registration, nil)
		}

		for _, day := range weekdays {
			day := day
			if _, err := s.capacity.IncrementWeekday(ctx, exec, courseID, day); err != nil {
				return s.capacityError(course, &day, err)
			}
			if _, err := s.capacity.IncrementRegistered(ctx, exec, courseID, false); err != nil {
				if errors.Is(err, repository.ErrCapacityReached) {
					return appErrors.Clone(appErrors.ErrNotFound, "course not found or inactive")
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registered count")
			}
			if err := s.addEnrollment(ctx, exec, registration, &day); err != nil {
				return err
			}
		}
		return nil
	})
	s.metrics.ObserveDBQuery("enroll", time.Since(started))
	if err != nil {
		return nil, err
	}

	s.logger.Info("member enrolled",
		zap.String("course_id", courseID),
		zap.String("registration_id", registration.ID),
		zap.Int("enrollments", len(registration.Enrollments)),
	)
	return registration, nil
}

// CancelEnrollment cancels one enrollment and frees its seat. The parent
// registration is cancelled once it holds no active enrollment.
func (s *EnrollmentService) CancelEnrollment(ctx context.Context, enrollmentID string) error {
	return s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		enrollment, err := s.repo.LockByID(ctx, exec, enrollmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found or already cancelled")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		if _, err := s.repo.CancelEnrollments(ctx, exec, []string{enrollment.ID}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
		}
		if err := s.capacity.DecrementRegistered(ctx, exec, enrollment.CourseID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
		}
		if enrollment.Weekday != nil {
			if err := s.capacity.DecrementWeekday(ctx, exec, enrollment.CourseID, *enrollment.Weekday); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release weekday seat")
			}
		}
		remaining, err := s.repo.CountActiveInRegistration(ctx, exec, enrollment.RegistrationID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
		}
		if remaining == 0 {
			if _, err := s.repo.CancelRegistrations(ctx, exec, []string{enrollment.RegistrationID}); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel registration")
			}
		}
		return nil
	})
}

func (s *EnrollmentService) addEnrollment(ctx context.Context, exec sqlx.ExtContext, registration *models.Registration, weekday *calendar.Weekday) error {
	enrollment := models.Enrollment{
		RegistrationID: registration.ID,
		CourseID:       registration.CourseID,
		Weekday:        weekday,
	}
	if err := s.repo.CreateEnrollment(ctx, exec, &enrollment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	registration.Enrollments = append(registration.Enrollments, enrollment)
	return nil
}

func (s *EnrollmentService) capacityError(course *models.Course, weekday *calendar.Weekday, err error) error {
	if !errors.Is(err, repository.ErrCapacityReached) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registered count")
	}
	s.metrics.RecordEnrollmentRejection(string(course.Kind))
	details := &models.CapacityError{CourseID: course.ID, Weekday: weekday, Capacity: course.Capacity}
	s.logger.Info("enrollment rejected", zap.String("course_id", course.ID), zap.String("reason", details.Error()))
	appErr := appErrors.Wrap(details, appErrors.ErrCapacityExceeded.Code, appErrors.ErrCapacityExceeded.Status, details.Error())
	return appErrors.WithDetails(appErr, details)
}

func (s *EnrollmentService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func duplicateMemberError() error {
	return appErrors.Clone(appErrors.ErrConflict, "member already enrolled in course")
}

func (s *EnrollmentService) scheduledWeekdays(ctx context.Context, exec sqlx.ExtContext, courseID string) (map[calendar.Weekday]struct{}, error) {
	days, err := s.weekdays.ListWeekdays(ctx, exec, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course weekdays")
	}
	set := make(map[calendar.Weekday]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set, nil
}

// selectedWeekdays parses and de-duplicates the requested weekdays and checks
// each is one the course meets on.
func (s *EnrollmentService) selectedWeekdays(ctx context.Context, exec sqlx.ExtContext, courseID string, raw []string) ([]calendar.Weekday, error) {
	if len(raw) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "flexible courses require at least one weekday")
	}
	scheduled, err := s.scheduledWeekdays(ctx, exec, courseID)
	if err != nil {
		return nil, err
	}
	seen := make(map[calendar.Weekday]struct{}, len(raw))
	out := make([]calendar.Weekday, 0, len(raw))
	for _, value := range raw {
		day, err := calendar.ParseWeekday(value)
		if err != nil {
			return nil, validationError("invalid weekday", err)
		}
		if _, ok := scheduled[day]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course is not scheduled on %s", day))
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	// Fixed order keeps concurrent enrollments taking weekday rows in the same sequence.
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
