package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
	pkgrepo "github.com/ayurcare/clinic-api/pkg/repository"
)

// ErrNotFound is returned when a row addressed by key does not exist or,
// for conditional updates, when no row satisfied the condition.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		// Create inserts the record and fills in ID and CreatedAt from the
		// database.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error)
		// UpdateStatus sets status only when the current status is one of
		// allowedFrom. ErrNotFound covers both a missing row and a rejected
		// transition.
		UpdateStatus(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, allowedFrom []model.AppointmentStatus, at time.Time) (*model.StatusChange, error)
		Delete(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		CountByStatus(ctx context.Context) (model.StatusCounts, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest, at time.Time) (*model.User, error)
		UpdateRole(ctx context.Context, id uuid.UUID, role model.Role, at time.Time) error
		UpdatePassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
		TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error)
		ToggleFeatured(ctx context.Context, id uuid.UUID, at time.Time) (*model.Service, error)
		Count(ctx context.Context) (int, error)
	}

	CatalogRepository interface {
		ListPractitioners(ctx context.Context) ([]*model.Practitioner, error)
		ListLocations(ctx context.Context) ([]*model.Location, error)
		ListTimeSlots(ctx context.Context) ([]*model.TimeSlot, error)
	}

	BlogRepository interface {
		Create(ctx context.Context, post *model.BlogPost) error
		Get(ctx context.Context, id uuid.UUID) (*model.BlogPost, error)
		GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error)
		Update(ctx context.Context, post *model.BlogPost) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.BlogFilter) ([]*model.BlogPost, error)
		TogglePublished(ctx context.Context, id uuid.UUID, at time.Time) (*model.BlogPost, error)
		Count(ctx context.Context) (int, error)
	}

	PageRepository interface {
		Get(ctx context.Context, slug string) (*model.Page, error)
		List(ctx context.Context) ([]*model.Page, error)
		Upsert(ctx context.Context, page *model.Page) error
	}

	ContactRepository interface {
		Create(ctx context.Context, msg *model.ContactMessage) error
		List(ctx context.Context) ([]*model.ContactMessage, error)
	}

	OutboxRepository interface {
		pkgrepo.OutboxRepository
		Create(ctx context.Context, event *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
