package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/club-api/internal/models"
)

// ResourceRepository reads schedulable resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const resourceColumns = `id, name, default_capacity, allow_outsiders, active, created_at, updated_at`

// FindByName returns the active resource with the given name.
func (r *ResourceRepository) FindByName(ctx context.Context, name string) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE name = $1 AND active = TRUE`
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, name); err != nil {
		return nil, err
	}
	return &resource, nil
}

// FindByID loads a resource by id.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// Lock takes a row lock on the resource so concurrent bookings of the same
// resource serialise their conflict check and insert.
func (r *ResourceRepository) Lock(ctx context.Context, exec sqlx.ExtContext, id string) error {
	var lockedID string
	if err := sqlx.GetContext(ctx, r.exec(exec), &lockedID, `SELECT id FROM resources WHERE id = $1 FOR UPDATE`, id); err != nil {
		return fmt.Errorf("lock resource %s: %w", id, err)
	}
	return nil
}
