package postgres

import (
	"context"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

func (r *catalogRepository) ListPractitioners(ctx context.Context) ([]*model.Practitioner, error) {
	query := `
		SELECT id, name, specialization, experience, active
		FROM practitioners
		WHERE active
		ORDER BY position, name
	`
	practitioners := []*model.Practitioner{}
	if err := r.db.SelectContext(ctx, &practitioners, query); err != nil {
		return nil, wrap("list practitioners", err)
	}
	return practitioners, nil
}

func (r *catalogRepository) ListLocations(ctx context.Context) ([]*model.Location, error) {
	query := `
		SELECT id, name, address, active
		FROM locations
		WHERE active
		ORDER BY position, name
	`
	locations := []*model.Location{}
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, wrap("list locations", err)
	}
	return locations, nil
}

func (r *catalogRepository) ListTimeSlots(ctx context.Context) ([]*model.TimeSlot, error) {
	query := `
		SELECT label, position, active
		FROM time_slots
		WHERE active
		ORDER BY position
	`
	slots := []*model.TimeSlot{}
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, wrap("list time slots", err)
	}
	return slots, nil
}
