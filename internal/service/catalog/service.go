package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

const snapshotKey = "catalog"

// Provider hands out the current booking catalog.
type Provider interface {
	Snapshot(ctx context.Context) (*model.Catalog, error)
}

type Service struct {
	services  repository.ServiceRepository
	catalog   repository.CatalogRepository
	validator *validator.Validator
	cache     *gocache.Cache
	now       func() time.Time
}

func NewService(services repository.ServiceRepository, catalog repository.CatalogRepository, v *validator.Validator, ttl time.Duration) *Service {
	return &Service{
		services:  services,
		catalog:   catalog,
		validator: v,
		cache:     gocache.New(ttl, 2*ttl),
		now:       time.Now,
	}
}

// Snapshot returns the cached catalog, reloading it from storage once the
// cached copy has expired or been invalidated.
func (s *Service) Snapshot(ctx context.Context) (*model.Catalog, error) {
	if cached, ok := s.cache.Get(snapshotKey); ok {
		return cached.(*model.Catalog), nil
	}

	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(snapshotKey, catalog)
	return catalog, nil
}

// Warm loads the catalog eagerly so the first booking does not pay for it.
func (s *Service) Warm(ctx context.Context) error {
	s.Invalidate()
	_, err := s.Snapshot(ctx)
	return err
}

func (s *Service) Invalidate() {
	s.cache.Delete(snapshotKey)
}

func (s *Service) load(ctx context.Context) (*model.Catalog, error) {
	services, err := s.services.List(ctx, model.ServiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	practitioners, err := s.catalog.ListPractitioners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load practitioners: %w", err)
	}
	locations, err := s.catalog.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}
	slots, err := s.catalog.ListTimeSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load time slots: %w", err)
	}

	log.Debug().
		Int("services", len(services)).
		Int("practitioners", len(practitioners)).
		Int("locations", len(locations)).
		Int("time_slots", len(slots)).
		Msg("catalog loaded")

	return &model.Catalog{
		Services:      services,
		Practitioners: practitioners,
		Locations:     locations,
		TimeSlots:     slots,
	}, nil
}

func (s *Service) ListServices(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	services, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return services, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	service, err := s.services.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return service, nil
}

func (s *Service) CreateService(ctx context.Context, req *model.ServiceRequest) (*model.Service, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	service := &model.Service{
		Base: model.Base{ID: uuid.New(), CreatedAt: s.now()},
	}
	apply(service, req)

	if err := s.services.Create(ctx, service); err != nil {
		return nil, mapError(err)
	}
	s.Invalidate()
	log.Info().Str("service_id", service.ID.String()).Str("name", service.Name).Msg("service created")
	return service, nil
}

func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, req *model.ServiceRequest) (*model.Service, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	service, err := s.services.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	apply(service, req)
	service.Touch(s.now())

	if err := s.services.Update(ctx, service); err != nil {
		return nil, mapError(err)
	}
	s.Invalidate()
	return service, nil
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.services.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	s.Invalidate()
	log.Info().Str("service_id", id.String()).Msg("service deleted")
	return nil
}

func (s *Service) ToggleFeatured(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	service, err := s.services.ToggleFeatured(ctx, id, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	s.Invalidate()
	return service, nil
}

func (s *Service) CountServices(ctx context.Context) (int, error) {
	return s.services.Count(ctx)
}

func apply(service *model.Service, req *model.ServiceRequest) {
	service.Name = req.Name
	service.Slug = req.Slug
	if service.Slug == "" {
		service.Slug = model.Slugify(req.Name)
	}
	service.Description = req.Description
	service.Price = req.Price
	service.Duration = req.Duration
	service.Category = req.Category
	service.Featured = req.Featured
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("service", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("a service with this name or slug already exists", err)
	default:
		return apperrors.Internal(err)
	}
}
