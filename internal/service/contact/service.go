package contact

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	"github.com/ayurcare/clinic-api/internal/service/event"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

type Service struct {
	repo      repository.ContactRepository
	events    event.Publisher
	validator *validator.Validator
	now       func() time.Time
}

func NewService(repo repository.ContactRepository, events event.Publisher, v *validator.Validator) *Service {
	return &Service{repo: repo, events: events, validator: v, now: time.Now}
}

func (s *Service) Submit(ctx context.Context, req *model.ContactRequest) (*model.ContactMessage, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	msg := &model.ContactMessage{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   req.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		log.Error().Err(err).Msg("failed to store contact message")
		return nil, apperrors.Internal(err)
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, model.EventContactMessageReceived, model.ContactEvent{
			MessageID: msg.ID, Name: msg.Name, Email: msg.Email, Subject: msg.Subject,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record contact event")
		}
	}
	return msg, nil
}

func (s *Service) List(ctx context.Context) ([]*model.ContactMessage, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return msgs, nil
}
