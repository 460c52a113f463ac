package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

type memServices struct {
	rows  map[uuid.UUID]*model.Service
	lists int
}

func newMemServices(services ...*model.Service) *memServices {
	m := &memServices{rows: map[uuid.UUID]*model.Service{}}
	for _, s := range services {
		m.rows[s.ID] = s
	}
	return m
}

func (m *memServices) Create(_ context.Context, s *model.Service) error {
	for _, existing := range m.rows {
		if existing.Slug == s.Slug {
			return repository.ErrDuplicate
		}
	}
	m.rows[s.ID] = s
	return nil
}

func (m *memServices) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memServices) Update(_ context.Context, s *model.Service) error {
	if _, ok := m.rows[s.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rows[s.ID] = s
	return nil
}

func (m *memServices) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memServices) List(_ context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	m.lists++
	out := []*model.Service{}
	for _, s := range m.rows {
		if filter.FeaturedOnly && !s.Featured {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memServices) ToggleFeatured(_ context.Context, id uuid.UUID, at time.Time) (*model.Service, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Featured = !s.Featured
	s.Touch(at)
	return s, nil
}

func (m *memServices) Count(context.Context) (int, error) { return len(m.rows), nil }

type staticCatalog struct{}

func (staticCatalog) ListPractitioners(context.Context) ([]*model.Practitioner, error) {
	return []*model.Practitioner{{ID: "dr-nair", Name: "Dr. Priya Nair"}}, nil
}

func (staticCatalog) ListLocations(context.Context) ([]*model.Location, error) {
	return []*model.Location{{ID: "mumbai", Name: "Mumbai Branch"}}, nil
}

func (staticCatalog) ListTimeSlots(context.Context) ([]*model.TimeSlot, error) {
	return []*model.TimeSlot{{Label: "10:00 AM", Position: 3}}, nil
}

func newTestService(services *memServices) *Service {
	return NewService(services, staticCatalog{}, validator.New(validator.Rules{}), time.Minute)
}

func abhyanga() *model.Service {
	return &model.Service{Base: model.Base{ID: uuid.New()}, Name: "Abhyanga Massage", Slug: "abhyanga"}
}

func TestSnapshot_CachesUntilInvalidated(t *testing.T) {
	repo := newMemServices(abhyanga())
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists)

	_, ok := first.FindPractitioner("dr-nair")
	assert.True(t, ok)

	svc.Invalidate()
	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lists)
}

func TestCreateService_DefaultsSlugAndRefreshesCatalog(t *testing.T) {
	repo := newMemServices()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	created, err := svc.CreateService(ctx, &model.ServiceRequest{
		Name:        "Shirodhara Treatment",
		Description: "Warm oil therapy",
		Price:       "₹4,000",
		Duration:    "60 mins",
		Category:    "therapy",
	})
	require.NoError(t, err)
	assert.Equal(t, "shirodhara-treatment", created.Slug)
	assert.False(t, created.CreatedAt.IsZero())

	catalog, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	_, ok := catalog.FindService("Shirodhara Treatment")
	assert.True(t, ok)
}

func TestCreateService_Validation(t *testing.T) {
	svc := newTestService(newMemServices())
	_, err := svc.CreateService(context.Background(), &model.ServiceRequest{Name: "X"})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "price")
}

func TestCreateService_DuplicateIsConflict(t *testing.T) {
	svc := newTestService(newMemServices(abhyanga()))
	_, err := svc.CreateService(context.Background(), &model.ServiceRequest{
		Name: "Abhyanga", Slug: "abhyanga", Description: "d", Price: "p", Duration: "d", Category: "c",
	})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.StatusCode())
}

func TestToggleFeatured(t *testing.T) {
	s := abhyanga()
	svc := newTestService(newMemServices(s))

	toggled, err := svc.ToggleFeatured(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Featured)
	assert.NotNil(t, toggled.UpdatedAt)

	_, err = svc.ToggleFeatured(context.Background(), uuid.New())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode())
}

func TestDeleteService(t *testing.T) {
	s := abhyanga()
	repo := newMemServices(s)
	svc := newTestService(repo)

	require.NoError(t, svc.DeleteService(context.Background(), s.ID))
	assert.Empty(t, repo.rows)
}
