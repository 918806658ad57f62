package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/pkg/calendar"
)

var courseColumnList = []string{"id", "name", "description", "start_date", "end_date", "capacity", "registered_count", "kind", "allow_outsiders", "active", "created_at", "updated_at"}

func TestCourseRepositoryCreateResetsCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Name: "Evening Tennis", Kind: models.CourseKindFixed, Capacity: 2, RegisteredCount: 9}
	require.NoError(t, repo.Create(context.Background(), nil, course))
	assert.NotEmpty(t, course.ID)
	assert.True(t, course.Active)
	assert.Zero(t, course.RegisteredCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryReplaceMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET name").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Replace(context.Background(), nil, &models.Course{ID: "c1", Name: "x"})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryLockActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1 AND active = TRUE FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(courseColumnList).
			AddRow("c1", "Evening Tennis", "", now, now, 2, 1, "FIXED", false, true, now, now))
	course, err := repo.LockActive(context.Background(), nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.CourseKindFixed, course.Kind)
	assert.Equal(t, 1, course.RegisteredCount)

	mock.ExpectQuery("FOR UPDATE").WithArgs("c2").WillReturnError(sql.ErrNoRows)
	_, err = repo.LockActive(context.Background(), nil, "c2")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET active = FALSE, registered_count = 0")).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Deactivate(context.Background(), nil, "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseSlotRepository(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseSlotRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, nil, &models.CourseSlot{CourseID: "c1"})
	require.Error(t, err)

	mock.ExpectExec("INSERT INTO course_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(ctx, nil, &models.CourseSlot{CourseID: "c1", Weekday: calendar.Monday, ReservationID: "rsv-1"}))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT weekday FROM course_slots WHERE course_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"weekday"}).AddRow(int64(1)).AddRow(int64(3)))
	days, err := repo.ListWeekdays(ctx, nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, []calendar.Weekday{calendar.Monday, calendar.Wednesday}, days)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_slots WHERE course_id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	removed, err := repo.DeleteByCourse(ctx, nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricingTierRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPricingTierRepository(db)

	mock.ExpectExec("INSERT INTO course_pricing_tiers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO course_pricing_tiers").WillReturnResult(sqlmock.NewResult(1, 1))
	tiers := []models.PricingTier{{CourseID: "c1", DaysPerWeek: 1}, {CourseID: "c1", DaysPerWeek: 2}}
	require.NoError(t, repo.CreateBatch(context.Background(), nil, tiers))
	for _, tier := range tiers {
		assert.NotEmpty(t, tier.ID)
		assert.True(t, tier.Active)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
