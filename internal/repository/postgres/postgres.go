package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/ayurcare/clinic-api/internal/repository"
)

// Repositories bundles every store backed by one connection pool.
type Repositories struct {
	Appointments repository.AppointmentRepository
	Users        repository.UserRepository
	Services     repository.ServiceRepository
	Catalog      repository.CatalogRepository
	Blog         repository.BlogRepository
	Pages        repository.PageRepository
	Contact      repository.ContactRepository
	Outbox       repository.OutboxRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	base := NewBaseRepository(db)
	return &Repositories{
		Appointments: NewAppointmentRepository(base),
		Users:        NewUserRepository(base),
		Services:     NewServiceRepository(base),
		Catalog:      NewCatalogRepository(base),
		Blog:         NewBlogRepository(base),
		Pages:        NewPageRepository(base),
		Contact:      NewContactRepository(base),
		Outbox:       NewOutboxRepository(base),
	}
}
