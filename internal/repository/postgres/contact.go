package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

type contactRepository struct {
	BaseRepository
}

func NewContactRepository(base BaseRepository) repository.ContactRepository {
	return &contactRepository{base}
}

func (r *contactRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	query := `
		INSERT INTO contact_messages (id, name, email, phone, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.Name,
		msg.Email,
		msg.Phone,
		msg.Subject,
		msg.Message,
		msg.CreatedAt,
	)
	if err != nil {
		return wrap("create contact message", err)
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context) ([]*model.ContactMessage, error) {
	query := `
		SELECT id, name, email, phone, subject, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC
	`
	messages := []*model.ContactMessage{}
	if err := r.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, wrap("list contact messages", err)
	}
	return messages, nil
}
