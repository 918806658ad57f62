package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/club-api/internal/models"
)

// ErrLedgerOverlap is returned when the store rejects a ledger entry that
// overlaps an in-use booking of the same resource.
var ErrLedgerOverlap = errors.New("resource booking overlaps an existing booking")

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

// BookingLedgerRepository manages resource_bookings, the authoritative
// occupancy ledger used for conflict detection.
type BookingLedgerRepository struct {
	db *sqlx.DB
}

// NewBookingLedgerRepository constructs the repository.
func NewBookingLedgerRepository(db *sqlx.DB) *BookingLedgerRepository {
	return &BookingLedgerRepository{db: db}
}

func (r *BookingLedgerRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindOverlapping returns in-use entries of the resource on the given day
// whose window strictly overlaps [start, end). Rows are locked when the call
// runs inside a transaction.
func (r *BookingLedgerRepository) FindOverlapping(ctx context.Context, exec sqlx.ExtContext, resourceID string, day, start, end time.Time) ([]models.LedgerEntry, error) {
	query := `SELECT id, resource_id, reservation_id, day, start_at, end_at, in_use, created_at
FROM resource_bookings
WHERE resource_id = $1 AND day = $2 AND in_use = TRUE AND start_at < $4 AND end_at > $3
ORDER BY start_at ASC`
	if exec != nil {
		query += ` FOR UPDATE`
	}
	var entries []models.LedgerEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, resourceID, day, start, end); err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return entries, nil
}

// Create inserts an in-use ledger entry. Store-level overlap rejections are
// reported as ErrLedgerOverlap.
func (r *BookingLedgerRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.InUse = true
	const query = `
INSERT INTO resource_bookings (id, resource_id, reservation_id, day, start_at, end_at, in_use, created_at)
VALUES (:id, :resource_id, :reservation_id, :day, :start_at, :end_at, :in_use, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		if isOverlapViolation(err) {
			return fmt.Errorf("insert resource booking: %w", ErrLedgerOverlap)
		}
		return fmt.Errorf("insert resource booking: %w", err)
	}
	return nil
}

// DeleteMatching removes the in-use entry of a resource matched by its exact
// window. Course teardown locates entries by value, not by foreign key.
func (r *BookingLedgerRepository) DeleteMatching(ctx context.Context, exec sqlx.ExtContext, resourceID string, start, end time.Time) (int64, error) {
	const query = `DELETE FROM resource_bookings WHERE resource_id = $1 AND start_at = $2 AND end_at = $3 AND in_use = TRUE`
	result, err := r.exec(exec).ExecContext(ctx, query, resourceID, start, end)
	if err != nil {
		return 0, fmt.Errorf("delete resource booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resource booking rows affected: %w", err)
	}
	return affected, nil
}

// ReleaseByReservation frees the entries held by a reservation.
func (r *BookingLedgerRepository) ReleaseByReservation(ctx context.Context, exec sqlx.ExtContext, reservationID string) (int64, error) {
	const query = `UPDATE resource_bookings SET in_use = FALSE WHERE reservation_id = $1 AND in_use = TRUE`
	result, err := r.exec(exec).ExecContext(ctx, query, reservationID)
	if err != nil {
		return 0, fmt.Errorf("release resource booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resource booking rows affected: %w", err)
	}
	return affected, nil
}

func isOverlapViolation(err error) bool {
	return hasPQCode(err, pqExclusionViolation, pqUniqueViolation)
}

func isUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

func hasPQCode(err error, codes ...pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	for _, code := range codes {
		if pqErr.Code == code {
			return true
		}
	}
	return false
}
