package blog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

type Service struct {
	repo      repository.BlogRepository
	validator *validator.Validator
	now       func() time.Time
}

func NewService(repo repository.BlogRepository, v *validator.Validator) *Service {
	return &Service{repo: repo, validator: v, now: time.Now}
}

// ListPublished returns published posts, newest first.
func (s *Service) ListPublished(ctx context.Context, category string) ([]*model.BlogPost, error) {
	return s.list(ctx, model.BlogFilter{Category: category, PublishedOnly: true})
}

// ListAll includes drafts.
func (s *Service) ListAll(ctx context.Context) ([]*model.BlogPost, error) {
	return s.list(ctx, model.BlogFilter{})
}

func (s *Service) list(ctx context.Context, filter model.BlogFilter) ([]*model.BlogPost, error) {
	posts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return posts, nil
}

func (s *Service) GetPublished(ctx context.Context, slug string) (*model.BlogPost, error) {
	post, err := s.repo.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, mapError(err)
	}
	return post, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.BlogPost, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return post, nil
}

func (s *Service) Create(ctx context.Context, req *model.BlogPostRequest) (*model.BlogPost, error) {
	post := &model.BlogPost{Base: model.Base{ID: uuid.New(), CreatedAt: s.now().UTC()}}
	if err := s.apply(post, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, mapError(err)
	}
	log.Info().Str("post_id", post.ID.String()).Str("slug", post.Slug).Msg("blog post created")
	return post, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.BlogPostRequest) (*model.BlogPost, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.apply(post, req); err != nil {
		return nil, err
	}
	post.Touch(s.now().UTC())

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, mapError(err)
	}
	return post, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	log.Info().Str("post_id", id.String()).Msg("blog post deleted")
	return nil
}

func (s *Service) TogglePublished(ctx context.Context, id uuid.UUID) (*model.BlogPost, error) {
	post, err := s.repo.TogglePublished(ctx, id, s.now().UTC())
	if err != nil {
		return nil, mapError(err)
	}
	return post, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) apply(post *model.BlogPost, req *model.BlogPostRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	slug := model.Slugify(req.Slug)
	if slug == "" {
		slug = model.Slugify(req.Title)
	}
	if slug == "" {
		return apperrors.Validation(map[string]string{"slug": "could not be derived from the title"})
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = model.DefaultBlogAuthor
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Content = req.Content
	post.Excerpt = strings.TrimSpace(req.Excerpt)
	post.Slug = slug
	post.Author = author
	post.Category = strings.TrimSpace(req.Category)
	post.Tags = model.NormalizeTags(req.Tags)
	post.Published = req.Published
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("blog post", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("a post with this slug already exists", err)
	default:
		return apperrors.Internal(err)
	}
}
