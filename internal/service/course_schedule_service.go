package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/pkg/calendar"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type courseRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
	Replace(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	LockActive(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error)
	Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type pricingTierRepository interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, tiers []models.PricingTier) error
	DeactivateByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) error
	ListActiveByCourse(ctx context.Context, courseID string) ([]models.PricingTier, error)
}

type reservationRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, reservation *models.Reservation) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Reservation, error)
	Cancel(ctx context.Context, exec sqlx.ExtContext, id string) error
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error)
}

type courseSlotRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, slot *models.CourseSlot) error
	ListByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.CourseSlot, error)
	DeleteByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error)
}

type courseEnrollmentRepository interface {
	ListActiveByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.ActiveEnrollment, error)
	CancelEnrollments(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error)
	CancelRegistrations(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error)
}

type capacityResetter interface {
	ResetCounts(ctx context.Context, exec sqlx.ExtContext, courseID string) error
}

type resourceResolver interface {
	Lookup(ctx context.Context, name string) (*models.Resource, error)
	Lock(ctx context.Context, exec sqlx.ExtContext, resource *models.Resource) error
}

type courseNotifier interface {
	NotifyCourseCancelled(ctx context.Context, course *models.Course, recipients []models.Recipient, reason CancellationReason)
}

// ScheduleStores groups the repositories the schedule coordinator writes through.
type ScheduleStores struct {
	Courses      courseRepository
	Tiers        pricingTierRepository
	Reservations reservationRepository
	Slots        courseSlotRepository
	Enrollments  courseEnrollmentRepository
	Capacity     capacityResetter
}

// CourseScheduleService commits and tears down course schedules. Every
// commit and every teardown runs in a single transaction.
type CourseScheduleService struct {
	tx        txRunner
	stores    ScheduleStores
	resources resourceResolver
	detector  *ConflictDetector
	notifier  courseNotifier
	cache     *CacheService
	cacheTTL  time.Duration
	metrics   *MetricsService
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// CourseScheduleOptions carries the optional collaborators.
type CourseScheduleOptions struct {
	Notifier  courseNotifier
	Cache     *CacheService
	CacheTTL  time.Duration
	Metrics   *MetricsService
	CSV       csvRenderer
	PDF       pdfRenderer
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewCourseScheduleService wires the coordinator.
func NewCourseScheduleService(tx txRunner, stores ScheduleStores, resources resourceResolver, detector *ConflictDetector, opts CourseScheduleOptions) *CourseScheduleService {
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	csv, pdf := defaultRenderers(opts.CSV, opts.PDF)
	return &CourseScheduleService{
		tx:        tx,
		stores:    stores,
		resources: resources,
		detector:  detector,
		notifier:  opts.Notifier,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		metrics:   opts.Metrics,
		csv:       csv,
		pdf:       pdf,
		validator: opts.Validator,
		logger:    opts.Logger,
	}
}

// plannedSlot is one weekly slot resolved against its resource and expanded
// into concrete occurrences.
type plannedSlot struct {
	slot     models.WeeklySlot
	resource *models.Resource
	windows  []calendar.Window
}

type schedulePlan struct {
	course models.Course
	tiers  []models.PricingTier
	slots  []plannedSlot
}

func (p schedulePlan) occurrences() int {
	total := 0
	for _, s := range p.slots {
		total += len(s.windows)
	}
	return total
}

// CreateSchedule validates the request and commits course, tiers and every
// generated reservation atomically. It returns the new course id.
func (s *CourseScheduleService) CreateSchedule(ctx context.Context, req dto.ScheduleRequest) (string, error) {
	plan, err := s.prepare(ctx, req)
	if err != nil {
		s.metrics.RecordScheduleOperation("create", outcomeOf(err))
		return "", err
	}

	course := plan.course
	started := time.Now()
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.stores.Courses.Create(ctx, exec, &course); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
		}
		return s.commit(ctx, exec, &course, plan)
	})
	s.metrics.ObserveDBQuery("schedule_create", time.Since(started))
	if err != nil {
		s.metrics.RecordScheduleOperation("create", outcomeOf(err))
		s.logger.Warn("course schedule rejected", zap.String("course", course.Name), zap.Error(err))
		return "", err
	}

	s.metrics.RecordScheduleOperation("create", outcomeSuccess)
	s.metrics.AddReservations(plan.occurrences())
	s.cache.Invalidate(ctx, scheduleCacheKey(course.ID))
	s.logger.Info("course schedule committed",
		zap.String("course_id", course.ID),
		zap.Int("slots", len(plan.slots)),
		zap.Int("occurrences", plan.occurrences()),
	)
	return course.ID, nil
}

// UpdateSchedule replaces the schedule of an active course. The old schedule
// is torn down in one transaction and the new one committed in a second,
// reusing the course id. If the second transaction fails the course is left
// inactive with no schedule.
func (s *CourseScheduleService) UpdateSchedule(ctx context.Context, courseID string, req dto.ScheduleRequest) (string, error) {
	plan, err := s.prepare(ctx, req)
	if err != nil {
		s.metrics.RecordScheduleOperation("update", outcomeOf(err))
		return "", err
	}

	var (
		previous   *models.Course
		recipients []models.Recipient
	)
	started := time.Now()
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		var err error
		previous, recipients, err = s.teardown(ctx, exec, courseID)
		if err != nil {
			return err
		}
		return s.deactivate(ctx, exec, courseID)
	})
	if err != nil {
		s.metrics.ObserveDBQuery("schedule_update", time.Since(started))
		s.metrics.RecordScheduleOperation("update", outcomeOf(err))
		return "", err
	}
	s.cache.Invalidate(ctx, scheduleCacheKey(courseID))
	s.notify(ctx, previous, recipients, ReasonScheduleChanged)

	course := plan.course
	course.ID = courseID
	course.CreatedAt = previous.CreatedAt
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.stores.Courses.Replace(ctx, exec, &course); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
		}
		return s.commit(ctx, exec, &course, plan)
	})
	s.metrics.ObserveDBQuery("schedule_update", time.Since(started))
	if err != nil {
		s.metrics.RecordScheduleOperation("update", outcomeOf(err))
		s.logger.Error("course left unscheduled after failed edit",
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return "", err
	}

	s.metrics.RecordScheduleOperation("update", outcomeSuccess)
	s.metrics.AddReservations(plan.occurrences())
	s.cache.Invalidate(ctx, scheduleCacheKey(courseID))
	s.logger.Info("course schedule replaced",
		zap.String("course_id", courseID),
		zap.Int("cancelled_enrollees", len(recipients)),
		zap.Int("occurrences", plan.occurrences()),
	)
	return courseID, nil
}

// DeleteSchedule frees every reservation of an active course, cancels its
// enrollments and deactivates it. Inactive or unknown courses yield NotFound.
func (s *CourseScheduleService) DeleteSchedule(ctx context.Context, courseID string) error {
	var (
		course     *models.Course
		recipients []models.Recipient
	)
	started := time.Now()
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		var err error
		course, recipients, err = s.teardown(ctx, exec, courseID)
		if err != nil {
			return err
		}
		return s.deactivate(ctx, exec, courseID)
	})
	s.metrics.ObserveDBQuery("schedule_delete", time.Since(started))
	if err != nil {
		s.metrics.RecordScheduleOperation("delete", outcomeOf(err))
		return err
	}

	s.metrics.RecordScheduleOperation("delete", outcomeSuccess)
	s.cache.Invalidate(ctx, scheduleCacheKey(courseID))
	s.logger.Info("course schedule torn down",
		zap.String("course_id", courseID),
		zap.Int("cancelled_enrollees", len(recipients)),
	)
	s.notify(ctx, course, recipients, ReasonCourseDeleted)
	return nil
}

// GetCourse returns a course with its active pricing tiers.
func (s *CourseScheduleService) GetCourse(ctx context.Context, courseID string) (*models.CourseDetail, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	tiers, err := s.stores.Tiers.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing tiers")
	}
	return &models.CourseDetail{Course: *course, PricingTiers: tiers}, nil
}

// ListSchedule returns the generated occurrences of a course in chronological order.
func (s *CourseScheduleService) ListSchedule(ctx context.Context, courseID string) ([]models.CourseSlot, error) {
	slots, _, err := s.Schedule(ctx, courseID)
	return slots, err
}

// Schedule is ListSchedule that also reports whether the cache answered.
func (s *CourseScheduleService) Schedule(ctx context.Context, courseID string) ([]models.CourseSlot, bool, error) {
	key := scheduleCacheKey(courseID)
	var cached []models.CourseSlot
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return nil, false, err
	}
	slots, err := s.stores.Slots.ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course schedule")
	}
	if slots == nil {
		slots = []models.CourseSlot{}
	}
	s.cache.Set(ctx, key, slots, s.cacheTTL)
	return slots, false, nil
}

func (s *CourseScheduleService) findCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.stores.Courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// prepare runs every check that can be made before writing: payload shape,
// date range, clocks, resource names and occurrence expansion.
func (s *CourseScheduleService) prepare(ctx context.Context, req dto.ScheduleRequest) (schedulePlan, error) {
	var plan schedulePlan
	if err := s.validator.Struct(req); err != nil {
		return plan, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		return plan, validationError("invalid start_date", err)
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		return plan, validationError("invalid end_date", err)
	}
	if end.Before(start) {
		return plan, appErrors.Clone(appErrors.ErrValidation, "start_date must not be after end_date")
	}
	if !req.Kind.Valid() {
		return plan, appErrors.Clone(appErrors.ErrValidation, "kind must be FIXED or FLEXIBLE")
	}
	if req.Capacity < 0 {
		return plan, appErrors.Clone(appErrors.ErrValidation, "capacity must not be negative")
	}

	plan.course = models.Course{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		StartDate:      start,
		EndDate:        end,
		Capacity:       req.Capacity,
		Kind:           req.Kind,
		AllowOutsiders: req.AllowOutsiders,
	}

	seenDays := make(map[int]struct{}, len(req.PricingTiers))
	for _, tier := range req.PricingTiers {
		if tier.DaysPerWeek < 1 || tier.MemberPrice < 0 || tier.GuestPrice < 0 {
			return plan, appErrors.Clone(appErrors.ErrValidation, "pricing tiers need at least one day and non-negative prices")
		}
		if _, dup := seenDays[tier.DaysPerWeek]; dup {
			return plan, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate pricing tier for %d days per week", tier.DaysPerWeek))
		}
		seenDays[tier.DaysPerWeek] = struct{}{}
		plan.tiers = append(plan.tiers, models.PricingTier{
			DaysPerWeek: tier.DaysPerWeek,
			MemberPrice: tier.MemberPrice,
			GuestPrice:  tier.GuestPrice,
		})
	}

	if len(req.Slots) == 0 {
		return plan, appErrors.Clone(appErrors.ErrValidation, "at least one weekly slot is required")
	}
	resolved := make(map[string]*models.Resource)
	for i, raw := range req.Slots {
		slot, err := parseWeeklySlot(raw)
		if err != nil {
			return plan, validationError(fmt.Sprintf("slot %d", i+1), err)
		}
		resource, ok := resolved[slot.ResourceName]
		if !ok {
			resource, err = s.resources.Lookup(ctx, slot.ResourceName)
			if err != nil {
				if appErrors.HasCode(err, appErrors.ErrNotFound.Code) || appErrors.HasCode(err, appErrors.ErrValidation.Code) {
					return plan, validationError(fmt.Sprintf("slot %d: unknown resource %q", i+1, slot.ResourceName), err)
				}
				return plan, err
			}
			resolved[slot.ResourceName] = resource
		}
		windows := calendar.Expand(start, end, slot.Weekday, slot.From, slot.To)
		if len(windows) == 0 {
			return plan, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("slot %d: no %s between %s and %s", i+1, slot.Weekday, req.StartDate, req.EndDate))
		}
		plan.slots = append(plan.slots, plannedSlot{slot: slot, resource: resource, windows: windows})
	}
	return plan, nil
}

func parseWeeklySlot(raw dto.WeeklySlotRequest) (models.WeeklySlot, error) {
	var slot models.WeeklySlot
	weekday, err := calendar.ParseWeekday(raw.Weekday)
	if err != nil {
		return slot, err
	}
	from, err := calendar.ParseClock(raw.StartTime)
	if err != nil {
		return slot, err
	}
	to, err := calendar.ParseClock(raw.EndTime)
	if err != nil {
		return slot, err
	}
	if !from.Before(to) {
		return slot, fmt.Errorf("start_time %s must be before end_time %s", from, to)
	}
	return models.WeeklySlot{
		Weekday:      weekday,
		From:         from,
		To:           to,
		ResourceName: strings.TrimSpace(raw.Resource),
	}, nil
}

// commit writes tiers, reservations, ledger entries and slot links for a
// course row already present in the transaction. The first conflict aborts.
func (s *CourseScheduleService) commit(ctx context.Context, exec sqlx.ExtContext, course *models.Course, plan schedulePlan) error {
	if len(plan.tiers) > 0 {
		tiers := make([]models.PricingTier, len(plan.tiers))
		copy(tiers, plan.tiers)
		for i := range tiers {
			tiers[i].CourseID = course.ID
		}
		if err := s.stores.Tiers.CreateBatch(ctx, exec, tiers); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pricing tiers")
		}
	}

	if err := s.lockResources(ctx, exec, plan.slots); err != nil {
		return err
	}

	for _, planned := range plan.slots {
		for _, window := range planned.windows {
			if err := s.detector.Ensure(ctx, exec, planned.resource, window); err != nil {
				return err
			}
			reservation := &models.Reservation{
				ResourceID:     planned.resource.ID,
				OwnerKind:      models.ReservationOwnerCourse,
				OwnerID:        course.ID,
				Capacity:       course.Capacity,
				AllowOutsiders: course.AllowOutsiders,
				StartAt:        window.Start,
				EndAt:          window.End,
			}
			if err := s.stores.Reservations.Create(ctx, exec, reservation); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reservation")
			}
			if err := s.detector.Record(ctx, exec, planned.resource, reservation.ID, window); err != nil {
				return err
			}
			link := &models.CourseSlot{
				CourseID:      course.ID,
				Weekday:       planned.slot.Weekday,
				StartAt:       window.Start,
				EndAt:         window.End,
				ResourceID:    planned.resource.ID,
				ResourceName:  planned.resource.Name,
				ReservationID: reservation.ID,
			}
			if err := s.stores.Slots.Create(ctx, exec, link); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link course slot")
			}
		}
	}
	return nil
}

// lockResources locks each distinct resource once, in id order, so two
// schedules touching the same resources cannot deadlock.
func (s *CourseScheduleService) lockResources(ctx context.Context, exec sqlx.ExtContext, slots []plannedSlot) error {
	byID := make(map[string]*models.Resource)
	for _, planned := range slots {
		byID[planned.resource.ID] = planned.resource
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := s.resources.Lock(ctx, exec, byID[id]); err != nil {
			return err
		}
	}
	return nil
}

// teardown removes the generated schedule of an active course and cancels
// its enrollments. It returns the course and the members to notify.
func (s *CourseScheduleService) teardown(ctx context.Context, exec sqlx.ExtContext, courseID string) (*models.Course, []models.Recipient, error) {
	course, err := s.stores.Courses.LockActive(ctx, exec, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course not found or already inactive")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	slots, err := s.stores.Slots.ListByCourse(ctx, exec, courseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course slots")
	}

	reservationIDs := make([]string, 0, len(slots))
	for _, slot := range slots {
		removed, err := s.detector.Remove(ctx, exec, slot.ResourceID, slot.Window())
		if err != nil {
			return nil, nil, err
		}
		if removed == 0 {
			s.logger.Warn("no ledger entry for course slot",
				zap.String("course_id", courseID),
				zap.String("resource", slot.ResourceName),
				zap.String("window", slot.Window().String()),
			)
		}
		reservationIDs = append(reservationIDs, slot.ReservationID)
	}
	if _, err := s.stores.Reservations.DeleteByIDs(ctx, exec, reservationIDs); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reservations")
	}
	if _, err := s.stores.Slots.DeleteByCourse(ctx, exec, courseID); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course slots")
	}

	active, err := s.stores.Enrollments.ListActiveByCourse(ctx, exec, courseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	enrollmentIDs := make([]string, 0, len(active))
	registrationIDs := make([]string, 0, len(active))
	recipients := make([]models.Recipient, 0, len(active))
	seenRegistration := make(map[string]struct{}, len(active))
	seenEmail := make(map[string]struct{}, len(active))
	for _, e := range active {
		enrollmentIDs = append(enrollmentIDs, e.ID)
		if _, ok := seenRegistration[e.RegistrationID]; !ok {
			seenRegistration[e.RegistrationID] = struct{}{}
			registrationIDs = append(registrationIDs, e.RegistrationID)
		}
		email := strings.ToLower(strings.TrimSpace(e.MemberEmail))
		if email == "" {
			continue
		}
		if _, ok := seenEmail[email]; !ok {
			seenEmail[email] = struct{}{}
			recipients = append(recipients, models.Recipient{Email: e.MemberEmail, Name: e.MemberName})
		}
	}
	if _, err := s.stores.Enrollments.CancelEnrollments(ctx, exec, enrollmentIDs); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollments")
	}
	if _, err := s.stores.Enrollments.CancelRegistrations(ctx, exec, registrationIDs); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel registrations")
	}
	if err := s.stores.Capacity.ResetCounts(ctx, exec, courseID); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset registered counts")
	}
	return course, recipients, nil
}

func (s *CourseScheduleService) deactivate(ctx context.Context, exec sqlx.ExtContext, courseID string) error {
	if err := s.stores.Tiers.DeactivateByCourse(ctx, exec, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate pricing tiers")
	}
	if err := s.stores.Courses.Deactivate(ctx, exec, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	return nil
}

func (s *CourseScheduleService) notify(ctx context.Context, course *models.Course, recipients []models.Recipient, reason CancellationReason) {
	if s.notifier == nil || course == nil || len(recipients) == 0 {
		return
	}
	s.notifier.NotifyCourseCancelled(ctx, course, recipients, reason)
}

func validationError(message string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case appErrors.HasCode(err, appErrors.ErrConflict.Code):
		return outcomeConflict
	case appErrors.HasCode(err, appErrors.ErrValidation.Code):
		return outcomeInvalid
	case appErrors.HasCode(err, appErrors.ErrNotFound.Code):
		return outcomeNotFound
	default:
		return outcomeError
	}
}
