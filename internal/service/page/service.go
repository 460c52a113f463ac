package page

import (
	"context"
	"errors"
	"time"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

type Service struct {
	repo      repository.PageRepository
	validator *validator.Validator
	now       func() time.Time
}

func NewService(repo repository.PageRepository, v *validator.Validator) *Service {
	return &Service{repo: repo, validator: v, now: time.Now}
}

// Get returns the stored page, or the scaffold for a known page that has
// never been saved.
func (s *Service) Get(ctx context.Context, slug string) (*model.Page, error) {
	page, err := s.repo.Get(ctx, slug)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	known, ok := model.FindKnownPage(slug)
	if !ok {
		return nil, apperrors.NotFound("page", err)
	}
	return model.DefaultPage(known), nil
}

// List returns every known page followed by any other stored pages.
func (s *Service) List(ctx context.Context) ([]*model.Page, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	bySlug := make(map[string]*model.Page, len(stored))
	for _, p := range stored {
		bySlug[p.Slug] = p
	}

	pages := make([]*model.Page, 0, len(model.KnownPages)+len(stored))
	for _, known := range model.KnownPages {
		if p, ok := bySlug[known.Slug]; ok {
			pages = append(pages, p)
			delete(bySlug, known.Slug)
			continue
		}
		pages = append(pages, model.DefaultPage(known))
	}
	for _, p := range stored {
		if _, extra := bySlug[p.Slug]; extra {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// Save creates or replaces a page and stamps last_modified.
func (s *Service) Save(ctx context.Context, slug string, req *model.PageRequest) (*model.Page, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if model.Slugify(slug) != slug || slug == "" {
		return nil, apperrors.Validation(map[string]string{"slug": "must contain only lowercase letters, digits and dashes"})
	}

	now := s.now().UTC()
	page := &model.Page{
		Slug:            slug,
		Title:           req.Title,
		Content:         req.Content,
		MetaDescription: req.MetaDescription,
		LastModified:    &now,
	}
	if err := s.repo.Upsert(ctx, page); err != nil {
		return nil, apperrors.Internal(err)
	}
	return page, nil
}
