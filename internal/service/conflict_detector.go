package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/internal/repository"
	"github.com/noah-isme/club-api/pkg/calendar"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
)

type ledgerRepository interface {
	FindOverlapping(ctx context.Context, exec sqlx.ExtContext, resourceID string, day, start, end time.Time) ([]models.LedgerEntry, error)
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.LedgerEntry) error
	DeleteMatching(ctx context.Context, exec sqlx.ExtContext, resourceID string, start, end time.Time) (int64, error)
	ReleaseByReservation(ctx context.Context, exec sqlx.ExtContext, reservationID string) (int64, error)
}

// ConflictDetector is the only writer of the booking ledger. It checks
// candidate windows for overlaps and records or removes occupancy.
type ConflictDetector struct {
	ledger  ledgerRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewConflictDetector constructs the detector.
func NewConflictDetector(ledger ledgerRepository, metrics *MetricsService, logger *zap.Logger) *ConflictDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{ledger: ledger, metrics: metrics, logger: logger}
}

// Detect returns the in-use ledger entries of resource overlapping window.
// Touching endpoints do not overlap.
func (d *ConflictDetector) Detect(ctx context.Context, exec sqlx.ExtContext, resource *models.Resource, window calendar.Window) ([]models.LedgerEntry, error) {
	entries, err := d.ledger.FindOverlapping(ctx, exec, resource.ID, window.Day(), window.Start, window.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query resource bookings")
	}
	return entries, nil
}

// Ensure fails with a conflict error when window collides with an existing booking.
func (d *ConflictDetector) Ensure(ctx context.Context, exec sqlx.ExtContext, resource *models.Resource, window calendar.Window) error {
	entries, err := d.Detect(ctx, exec, resource, window)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return d.conflict(resource, window, entries)
}

// Record writes an in-use ledger entry held by reservationID. Callers run
// Ensure first; a store-level overlap rejection still surfaces as a conflict.
func (d *ConflictDetector) Record(ctx context.Context, exec sqlx.ExtContext, resource *models.Resource, reservationID string, window calendar.Window) error {
	entry := &models.LedgerEntry{
		ResourceID:    resource.ID,
		ReservationID: &reservationID,
		Day:           window.Day(),
		StartAt:       window.Start,
		EndAt:         window.End,
	}
	if err := d.ledger.Create(ctx, exec, entry); err != nil {
		if errors.Is(err, repository.ErrLedgerOverlap) {
			return d.conflict(resource, window, nil)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record resource booking")
	}
	return nil
}

// Remove deletes the in-use entry of resource matching window exactly.
func (d *ConflictDetector) Remove(ctx context.Context, exec sqlx.ExtContext, resourceID string, window calendar.Window) (int64, error) {
	removed, err := d.ledger.DeleteMatching(ctx, exec, resourceID, window.Start, window.End)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove resource booking")
	}
	return removed, nil
}

// Release frees every entry held by a reservation.
func (d *ConflictDetector) Release(ctx context.Context, exec sqlx.ExtContext, reservationID string) (int64, error) {
	released, err := d.ledger.ReleaseByReservation(ctx, exec, reservationID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release resource booking")
	}
	return released, nil
}

func (d *ConflictDetector) conflict(resource *models.Resource, window calendar.Window, entries []models.LedgerEntry) error {
	day := window.Day().Format(calendar.DateLayout)
	details := &models.ScheduleConflictError{
		Resource:  resource.Name,
		Day:       day,
		Window:    window,
		Conflicts: make([]models.BookingConflict, 0, len(entries)),
	}
	for _, entry := range entries {
		c := models.BookingConflict{
			Resource:       resource.Name,
			Day:            day,
			RequestedStart: window.Start,
			RequestedEnd:   window.End,
			ConflictStart:  entry.StartAt,
			ConflictEnd:    entry.EndAt,
			LedgerEntryID:  entry.ID,
		}
		if entry.ReservationID != nil {
			c.ReservationID = *entry.ReservationID
		}
		details.Conflicts = append(details.Conflicts, c)
	}

	d.metrics.RecordConflict(resource.Name)
	d.logger.Info("booking conflict",
		zap.String("resource", resource.Name),
		zap.String("day", day),
		zap.String("window", window.String()),
		zap.Int("conflicts", len(entries)),
	)

	appErr := appErrors.Wrap(details, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, details.Error())
	return appErrors.WithDetails(appErr, details)
}
