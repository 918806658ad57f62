package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/pkg/calendar"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
)

// ReservationService books a resource for a single window on behalf of a
// member. These bookings share the ledger with course schedules.
type ReservationService struct {
	tx           txRunner
	reservations reservationRepository
	resources    resourceResolver
	detector     *ConflictDetector
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewReservationService constructs the service.
func NewReservationService(tx txRunner, reservations reservationRepository, resources resourceResolver, detector *ConflictDetector, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		tx:           tx,
		reservations: reservations,
		resources:    resources,
		detector:     detector,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Book reserves the resource if the window is free.
func (s *ReservationService) Book(ctx context.Context, req dto.BookResourceRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}
	day, err := calendar.ParseDate(req.Date)
	if err != nil {
		return nil, validationError("invalid date", err)
	}
	from, err := calendar.ParseClock(req.StartTime)
	if err != nil {
		return nil, validationError("invalid start_time", err)
	}
	to, err := calendar.ParseClock(req.EndTime)
	if err != nil {
		return nil, validationError("invalid end_time", err)
	}
	window := calendar.Window{Start: from.On(day), End: to.On(day)}
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	resource, err := s.resources.Lookup(ctx, req.Resource)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return nil, validationError("unknown resource", err)
		}
		return nil, err
	}

	reservation := &models.Reservation{
		ResourceID:     resource.ID,
		OwnerKind:      models.ReservationOwnerMember,
		OwnerID:        req.MemberID,
		Capacity:       resource.DefaultCapacity,
		AllowOutsiders: resource.AllowOutsiders,
		StartAt:        window.Start,
		EndAt:          window.End,
	}
	if req.Capacity != nil {
		reservation.Capacity = *req.Capacity
	}
	if req.AllowOutsiders != nil {
		reservation.AllowOutsiders = *req.AllowOutsiders
	}

	started := time.Now()
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.resources.Lock(ctx, exec, resource); err != nil {
			return err
		}
		if err := s.detector.Ensure(ctx, exec, resource, window); err != nil {
			return err
		}
		if err := s.reservations.Create(ctx, exec, reservation); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reservation")
		}
		return s.detector.Record(ctx, exec, resource, reservation.ID, window)
	})
	s.metrics.ObserveDBQuery("reservation_book", time.Since(started))
	if err != nil {
		return nil, err
	}
	s.metrics.AddReservations(1)
	s.logger.Info("resource booked",
		zap.String("reservation_id", reservation.ID),
		zap.String("resource", resource.Name),
		zap.String("window", window.String()),
	)
	return reservation, nil
}

// Release cancels a member reservation and frees its ledger entry. Course
// reservations are released only through their course.
func (s *ReservationService) Release(ctx context.Context, reservationID string) error {
	return s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		reservation, err := s.reservations.FindByID(ctx, exec, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
		}
		if reservation.OwnerKind != models.ReservationOwnerMember {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "course reservations are released by editing or deleting the course")
		}
		if reservation.Status != models.ReservationStatusActive {
			return appErrors.Clone(appErrors.ErrNotFound, "reservation already released")
		}
		if _, err := s.detector.Release(ctx, exec, reservation.ID); err != nil {
			return err
		}
		if err := s.reservations.Cancel(ctx, exec, reservation.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel reservation")
		}
		return nil
	})
}
