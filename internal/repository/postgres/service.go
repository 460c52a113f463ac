package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

type serviceRepository struct {
	BaseRepository
}

func NewServiceRepository(base BaseRepository) repository.ServiceRepository {
	return &serviceRepository{base}
}

const serviceColumns = `id, name, slug, description, price, duration, category, featured, created_at, updated_at`

func (r *serviceRepository) Create(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (id, name, slug, description, price, duration, category, featured, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		service.ID,
		service.Name,
		service.Slug,
		service.Description,
		service.Price,
		service.Duration,
		service.Category,
		service.Featured,
		service.CreatedAt,
	)
	if err != nil {
		return wrap("create service", err)
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	var service model.Service
	if err := r.db.GetContext(ctx, &service, query, id); err != nil {
		return nil, wrap("get service", err)
	}
	return &service, nil
}

func (r *serviceRepository) Update(ctx context.Context, service *model.Service) error {
	query := `
		UPDATE services
		SET name = $1, slug = $2, description = $3, price = $4, duration = $5,
			category = $6, featured = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		service.Name,
		service.Slug,
		service.Description,
		service.Price,
		service.Duration,
		service.Category,
		service.Featured,
		service.UpdatedAt,
		service.ID,
	)
	if err != nil {
		return wrap("update service", err)
	}
	return expectOne(result)
}

func (r *serviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return wrap("delete service", err)
	}
	return expectOne(result)
}

func (r *serviceRepository) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE 1=1`
	args := []interface{}{}

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", len(args)+1)
		args = append(args, filter.Category)
	}
	if filter.FeaturedOnly {
		query += " AND featured = TRUE"
	}

	query += " ORDER BY created_at DESC"

	services := []*model.Service{}
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, wrap("list services", err)
	}
	return services, nil
}

func (r *serviceRepository) ToggleFeatured(ctx context.Context, id uuid.UUID, at time.Time) (*model.Service, error) {
	query := `
		UPDATE services SET featured = NOT featured, updated_at = $1
		WHERE id = $2
		RETURNING ` + serviceColumns

	var service model.Service
	if err := r.db.GetContext(ctx, &service, query, at, id); err != nil {
		return nil, wrap("toggle service featured", err)
	}
	return &service, nil
}

func (r *serviceRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM services`); err != nil {
		return 0, wrap("count services", err)
	}
	return n, nil
}
