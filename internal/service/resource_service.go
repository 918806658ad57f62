package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/club-api/internal/models"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
)

type resourceRepository interface {
	FindByName(ctx context.Context, name string) (*models.Resource, error)
	Lock(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// ResourceService resolves schedulable resources by name.
type ResourceService struct {
	repo   resourceRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewResourceService constructs the service. cache may be nil.
func NewResourceService(repo resourceRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Lookup returns the active resource with the given name.
func (s *ResourceService) Lookup(ctx context.Context, name string) (*models.Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resource name is required")
	}

	key := resourceCacheKey(name)
	var cached models.Resource
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	resource, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource "+name+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	s.cache.Set(ctx, key, resource, s.ttl)
	return resource, nil
}

// Lock takes a row lock on the resource for the rest of the transaction,
// serialising concurrent bookings of the same resource.
func (s *ResourceService) Lock(ctx context.Context, exec sqlx.ExtContext, resource *models.Resource) error {
	if err := s.repo.Lock(ctx, exec, resource.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource "+resource.Name+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock resource")
	}
	return nil
}
