package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

func TestUserRepository_GetByEmailLowercases(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewUserRepository(base)

	id := uuid.New()
	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "full_name", "phone", "password_hash", "role", "created_at", "updated_at", "last_seen",
		}).AddRow(id.String(), "asha@example.com", "Asha", nil, "hash", "user", time.Now(), nil, nil))

	user, err := repo.GetByEmail(context.Background(), "  Asha@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewUserRepository(base)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.User{Email: "a@example.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_TouchLastSeenMissing(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewUserRepository(base)

	mock.ExpectExec("UPDATE users SET last_seen").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.TouchLastSeen(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewUserRepository(base)
	id := uuid.New()
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE users SET password_hash = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("new-hash", at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), id, "new-hash", at))

	mock.ExpectExec("UPDATE users SET password_hash").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdatePassword(context.Background(), uuid.New(), "new-hash", at)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestServiceRepository_ListFeaturedByCategory(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewServiceRepository(base)

	mock.ExpectQuery(`FROM services WHERE 1=1 AND category = \$1 AND featured = TRUE ORDER BY created_at DESC`).
		WithArgs("therapy").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "slug", "description", "price", "duration", "category", "featured", "created_at", "updated_at",
		}).AddRow(uuid.NewString(), "Shirodhara Treatment", "shirodhara", "Oil therapy", "₹4,000", "60 mins", "therapy", true, time.Now(), nil))

	services, err := repo.List(context.Background(), model.ServiceFilter{Category: "therapy", FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "₹4,000", services[0].Price)
}

func TestBlogRepository_GetBySlugPublishedOnly(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewBlogRepository(base)

	mock.ExpectQuery(`FROM blog_posts WHERE slug = \$1 AND published = TRUE`).
		WithArgs("draft-post").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetBySlug(context.Background(), "draft-post", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPageRepository_Upsert(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewPageRepository(base)

	now := time.Now()
	mock.ExpectExec(`INSERT INTO pages .+ ON CONFLICT \(slug\) DO UPDATE`).
		WithArgs("about", "About Us", "<h1>About</h1>", "Who we are", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &model.Page{
		Slug:            "about",
		Title:           "About Us",
		Content:         "<h1>About</h1>",
		MetaDescription: "Who we are",
		LastModified:    &now,
	})
	require.NoError(t, err)
}

func TestOutboxRepository_CreateAndClaim(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewOutboxRepository(base)

	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(sqlmock.AnyArg(), model.EventAppointmentCreated, []byte(`{"a":1}`), "pending", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &model.OutboxEvent{EventType: model.EventAppointmentCreated, Payload: json.RawMessage(`{"a":1}`)}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, model.OutboxStatusPending, event.Status)

	now := time.Now()
	mock.ExpectQuery(`UPDATE outbox_events SET status = 'processing'.+FOR UPDATE SKIP LOCKED`).
		WithArgs(10, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_type", "payload", "status", "error_message", "retry_count", "retry_at", "created_at", "processed_at", "updated_at",
		}).AddRow(event.ID.String(), event.EventType, []byte(`{"a":1}`), "processing", nil, 0, nil, now, nil, now))

	claimed, err := repo.GetPendingEventsWithLock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, model.OutboxStatusProcessing, claimed[0].Status)
	assert.JSONEq(t, `{"a":1}`, string(claimed[0].Payload))
}

func TestOutboxRepository_MarkRetry(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewOutboxRepository(base)

	id := uuid.New()
	at := time.Now().Add(time.Minute)
	mock.ExpectExec(`SET status = 'retry'.+retry_count = retry_count \+ 1`).
		WithArgs("redis down", at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRetry(context.Background(), id, "redis down", at))
}

func TestOutboxRepository_DeleteProcessedBefore(t *testing.T) {
	base, mock := newMockDB(t)
	repo := NewOutboxRepository(base)

	cutoff := time.Now().AddDate(0, 0, -14)
	mock.ExpectExec(`DELETE FROM outbox_events WHERE status = 'processed'`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteProcessedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
