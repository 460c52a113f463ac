package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

type Service struct {
	repo      repository.UserRepository
	validator *validator.Validator
	now       func() time.Time
}

func NewService(repo repository.UserRepository, v *validator.Validator) *Service {
	return &Service{repo: repo, validator: v, now: time.Now}
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, id, req, s.now().UTC())
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func mapError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("user", err)
	}
	return apperrors.Internal(err)
}
