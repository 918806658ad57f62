package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/club-api/internal/models"
)

// ReservationRepository persists concrete resource reservations.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const reservationColumns = `id, resource_id, owner_kind, owner_id, capacity, allow_outsiders, start_at, end_at, status, created_at`

// Create inserts an active reservation.
func (r *ReservationRepository) Create(ctx context.Context, exec sqlx.ExtContext, reservation *models.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now().UTC()
	}
	if reservation.Status == "" {
		reservation.Status = models.ReservationStatusActive
	}
	const query = `
INSERT INTO reservations (id, resource_id, owner_kind, owner_id, capacity, allow_outsiders, start_at, end_at, status, created_at)
VALUES (:id, :resource_id, :owner_kind, :owner_id, :capacity, :allow_outsiders, :start_at, :end_at, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, reservation); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// FindByID loads a reservation, locking it when running inside a transaction.
func (r *ReservationRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if exec != nil {
		query += ` FOR UPDATE`
	}
	var reservation models.Reservation
	if err := sqlx.GetContext(ctx, r.exec(exec), &reservation, query, id); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Cancel marks an active reservation cancelled.
func (r *ReservationRepository) Cancel(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE reservations SET status = $2 WHERE id = $1 AND status = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, id, models.ReservationStatusCancelled, models.ReservationStatusActive)
	if err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reservation rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDs removes reservations generated for a course schedule.
func (r *ReservationRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM reservations WHERE id = ANY($1)`
	result, err := r.exec(exec).ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete reservations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reservation rows affected: %w", err)
	}
	return affected, nil
}
