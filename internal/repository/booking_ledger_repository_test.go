package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func ledgerWindow() (time.Time, time.Time, time.Time) {
	day := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	return day, day.Add(18 * time.Hour), day.Add(19 * time.Hour)
}

func TestBookingLedgerFindOverlappingUsesStrictBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingLedgerRepository(db)
	day, start, end := ledgerWindow()

	rows := sqlmock.NewRows([]string{"id", "resource_id", "reservation_id", "day", "start_at", "end_at", "in_use", "created_at"}).
		AddRow("l1", "r1", "rsv-1", day, start.Add(30*time.Minute), end.Add(30*time.Minute), true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE resource_id = $1 AND day = $2 AND in_use = TRUE AND start_at < $4 AND end_at > $3")).
		WithArgs("r1", day, start, end).
		WillReturnRows(rows)

	entries, err := repo.FindOverlapping(context.Background(), nil, "r1", day, start, end)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ReservationID)
	assert.Equal(t, "rsv-1", *entries[0].ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingLedgerFindOverlappingLocksInsideTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingLedgerRepository(db)
	day, start, end := ledgerWindow()

	mock.ExpectBegin()
	mock.ExpectQuery("ORDER BY start_at ASC FOR UPDATE").
		WithArgs("r1", day, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	entries, err := repo.FindOverlapping(context.Background(), tx, "r1", day, start, end)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingLedgerCreateMapsExclusionViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingLedgerRepository(db)
	day, start, end := ledgerWindow()
	reservationID := "rsv-1"

	mock.ExpectExec("INSERT INTO resource_bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	entry := &models.LedgerEntry{ResourceID: "r1", ReservationID: &reservationID, Day: day, StartAt: start, EndAt: end}
	require.NoError(t, repo.Create(context.Background(), nil, entry))
	assert.NotEmpty(t, entry.ID)
	assert.True(t, entry.InUse)

	mock.ExpectExec("INSERT INTO resource_bookings").
		WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})
	err := repo.Create(context.Background(), nil, &models.LedgerEntry{ResourceID: "r1", Day: day, StartAt: start, EndAt: end})
	assert.True(t, errors.Is(err, ErrLedgerOverlap))

	mock.ExpectExec("INSERT INTO resource_bookings").
		WillReturnError(errors.New("connection reset"))
	err = repo.Create(context.Background(), nil, &models.LedgerEntry{ResourceID: "r1", Day: day, StartAt: start, EndAt: end})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLedgerOverlap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingLedgerDeleteAndRelease(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingLedgerRepository(db)
	_, start, end := ledgerWindow()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resource_bookings WHERE resource_id = $1 AND start_at = $2 AND end_at = $3 AND in_use = TRUE")).
		WithArgs("r1", start, end).
		WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := repo.DeleteMatching(context.Background(), nil, "r1", start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resource_bookings SET in_use = FALSE WHERE reservation_id = $1")).
		WithArgs("rsv-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	released, err := repo.ReleaseByReservation(context.Background(), nil, "rsv-1")
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}
