package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/club-api/internal/models"
)

// PricingTierRepository manages course pricing tiers.
type PricingTierRepository struct {
	db *sqlx.DB
}

// NewPricingTierRepository builds repository.
func NewPricingTierRepository(db *sqlx.DB) *PricingTierRepository {
	return &PricingTierRepository{db: db}
}

func (r *PricingTierRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch inserts tiers for a course.
func (r *PricingTierRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, tiers []models.PricingTier) error {
	if len(tiers) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO course_pricing_tiers (id, course_id, days_per_week, member_price, guest_price, active, created_at)
VALUES (:id, :course_id, :days_per_week, :member_price, :guest_price, :active, :created_at)`

	for i := range tiers {
		tier := &tiers[i]
		if tier.CourseID == "" {
			return fmt.Errorf("pricing tier without course id")
		}
		if tier.ID == "" {
			tier.ID = uuid.NewString()
		}
		if tier.CreatedAt.IsZero() {
			tier.CreatedAt = now
		}
		tier.Active = true
		if _, err := sqlx.NamedExecContext(ctx, target, query, tier); err != nil {
			return fmt.Errorf("insert pricing tier: %w", err)
		}
	}
	return nil
}

// DeactivateByCourse retires every active tier of a course.
func (r *PricingTierRepository) DeactivateByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) error {
	const query = `UPDATE course_pricing_tiers SET active = FALSE WHERE course_id = $1 AND active = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("deactivate pricing tiers: %w", err)
	}
	return nil
}

// ListActiveByCourse returns the active tiers ordered by days per week.
func (r *PricingTierRepository) ListActiveByCourse(ctx context.Context, courseID string) ([]models.PricingTier, error) {
	const query = `SELECT id, course_id, days_per_week, member_price, guest_price, active, created_at
FROM course_pricing_tiers WHERE course_id = $1 AND active = TRUE ORDER BY days_per_week ASC`
	var tiers []models.PricingTier
	if err := r.db.SelectContext(ctx, &tiers, query, courseID); err != nil {
		return nil, fmt.Errorf("list pricing tiers: %w", err)
	}
	return tiers, nil
}
