package appointment

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	"github.com/ayurcare/clinic-api/internal/session"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/metrics"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

type memRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.Appointment
	failAll error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[uuid.UUID]*model.Appointment{}}
}

func (r *memRepo) Create(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	a.ID = uuid.New()
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, f model.AppointmentFilter) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := []*model.Appointment{}
	for _, a := range r.rows {
		if f.Status == "" || a.Status == f.Status {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) ListByUser(_ context.Context, uid uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range r.rows {
		if a.UserID != nil && *a.UserID == uid {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, to model.AppointmentStatus, from []model.AppointmentStatus, at time.Time) (*model.StatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	allowed := false
	for _, st := range from {
		if st == a.Status {
			allowed = true
		}
	}
	if !allowed {
		return nil, repository.ErrNotFound
	}
	prev := a.Status
	a.Status = to
	a.UpdatedAt = &at
	return &model.StatusChange{Appointment: *a, PreviousStatus: prev}, nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.rows, id)
	return a, nil
}

func (r *memRepo) CountByStatus(context.Context) (model.StatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	counts := model.StatusCounts{}
	for _, a := range r.rows {
		counts[a.Status]++
	}
	return counts, nil
}

type fixedCatalog struct{}

func (fixedCatalog) Snapshot(context.Context) (*model.Catalog, error) {
	return &model.Catalog{
		Services:      []*model.Service{{Name: "Abhyanga Massage", Slug: "abhyanga"}},
		Practitioners: []*model.Practitioner{{ID: "dr-nair", Name: "Dr. Priya Nair"}},
		Locations:     []*model.Location{{ID: "mumbai", Name: "Mumbai Branch"}},
		TimeSlots:     []*model.TimeSlot{{Label: "10:00 AM"}, {Label: "02:30 PM"}},
	}, nil
}

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type memPublisher struct {
	events []recordedEvent
	err    error
}

func (p *memPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{eventType, payload})
	return nil
}

// Monday 19 October 2026, 10:00 in Kolkata.
var clock = time.Date(2026, 10, 19, 4, 30, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	repo    *memRepo
	events  *memPublisher
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	repo := newMemRepo()
	events := &memPublisher{}
	m := metrics.New("test")
	v := validator.New(validator.Rules{Location: loc, ClosedDay: time.Sunday, Now: func() time.Time { return clock }})
	svc := NewService(repo, fixedCatalog{}, v, events, m, Config{StrictTransitions: strict})
	svc.now = func() time.Time { return clock }
	return &fixture{svc: svc, repo: repo, events: events, metrics: m}
}

func validBooking() *model.BookingRequest {
	return &model.BookingRequest{
		Service:      "abhyanga",
		Practitioner: "Dr. Priya Nair",
		Location:     "mumbai",
		Date:         "2026-10-20",
		TimeSlot:     "10:00 AM",
		FullName:     "Asha Menon",
		Email:        "asha@example.com",
		Phone:        "+91 98765 43210",
		Age:          34,
		Gender:       "female",
		Notes:        "  prefers mornings ",
	}
}

func (f *fixture) seed(t *testing.T, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	conf, err := f.svc.Book(context.Background(), validBooking(), nil)
	require.NoError(t, err)
	f.repo.rows[conf.Appointment.ID].Status = status
	return conf.Appointment
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.StatusCode()
}

func TestBook_CreatesPendingRecordWithCanonicalNames(t *testing.T) {
	f := newFixture(t, true)
	uid := uuid.New()

	conf, err := f.svc.Book(context.Background(), validBooking(), &session.Identity{UserID: uid})
	require.NoError(t, err)

	a := conf.Appointment
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, model.AppointmentStatusPending, a.Status)
	assert.Equal(t, "Abhyanga Massage", a.Service)
	assert.Equal(t, "Dr. Priya Nair", a.Practitioner)
	assert.Equal(t, "Mumbai Branch", a.Location)
	assert.Equal(t, clock, a.CreatedAt)
	require.NotNil(t, a.UserID)
	assert.Equal(t, uid, *a.UserID)
	require.NotNil(t, a.Notes)
	assert.Equal(t, "prefers mornings", *a.Notes)
	assert.Nil(t, a.HealthConcerns)
	assert.NotEmpty(t, conf.Message)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, model.EventAppointmentCreated, f.events.events[0].Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingsCreated))
}

func TestBook_AnonymousHasNoOwner(t *testing.T) {
	f := newFixture(t, true)
	conf, err := f.svc.Book(context.Background(), validBooking(), nil)
	require.NoError(t, err)
	assert.Nil(t, conf.Appointment.UserID)
}

func TestBook_RejectsInvalidFormWithoutStoring(t *testing.T) {
	f := newFixture(t, true)
	req := validBooking()
	req.Date = "2026-10-25" // Sunday
	req.FullName = "A"

	_, err := f.svc.Book(context.Background(), req, nil)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))

	appErr, _ := apperrors.As(err)
	assert.Equal(t, "clinic is closed on Sunday", appErr.Fields["date"])
	assert.Contains(t, appErr.Fields, "full_name")
	assert.Empty(t, f.repo.rows)
	assert.Empty(t, f.events.events)
}

func TestBook_RejectsUnknownCatalogEntries(t *testing.T) {
	f := newFixture(t, true)
	req := validBooking()
	req.Service = "reiki"
	req.TimeSlot = "07:00 AM"

	_, err := f.svc.Book(context.Background(), req, nil)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "is not offered", appErr.Fields["service"])
	assert.Equal(t, "is not an available time slot", appErr.Fields["time_slot"])
	assert.Empty(t, f.repo.rows)
}

func TestBook_StorageFailureIsGeneric500(t *testing.T) {
	f := newFixture(t, true)
	f.repo.failAll = errors.New("connection refused")

	_, err := f.svc.Book(context.Background(), validBooking(), nil)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	assert.Equal(t, "Failed to book appointment. Please try again.", appErr.Message)
	assert.Empty(t, f.events.events)
}

func TestBook_EventFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t, true)
	f.events.err = errors.New("outbox unavailable")

	_, err := f.svc.Book(context.Background(), validBooking(), nil)
	require.NoError(t, err)
	assert.Len(t, f.repo.rows, 1)
}

func TestTransition_LegalMoves(t *testing.T) {
	f := newFixture(t, true)
	a := f.seed(t, model.AppointmentStatusPending)

	change, err := f.svc.Transition(context.Background(), a.ID, model.AppointmentStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, change.PreviousStatus)
	assert.Equal(t, model.AppointmentStatusConfirmed, change.Status)
	require.NotNil(t, change.UpdatedAt)
	assert.Equal(t, clock, *change.UpdatedAt)

	change, err = f.svc.Transition(context.Background(), a.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, change.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AppointmentTransitions.WithLabelValues("pending", "confirmed")))
	assert.Equal(t, model.EventAppointmentStatusChanged, f.events.events[len(f.events.events)-1].Type)
}

func TestTransition_StrictRejectsIllegalMoves(t *testing.T) {
	tests := []struct {
		from model.AppointmentStatus
		to   model.AppointmentStatus
	}{
		{model.AppointmentStatusCompleted, model.AppointmentStatusPending},
		{model.AppointmentStatusCompleted, model.AppointmentStatusCancelled},
		{model.AppointmentStatusCancelled, model.AppointmentStatusConfirmed},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled},
		{model.AppointmentStatusPending, model.AppointmentStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			f := newFixture(t, true)
			a := f.seed(t, tt.from)

			_, err := f.svc.Transition(context.Background(), a.ID, tt.to)
			assert.Equal(t, http.StatusConflict, statusOf(t, err))
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, f.repo.rows[a.ID].Status)
		})
	}
}

func TestTransition_LaxAcceptsAnyKnownStatus(t *testing.T) {
	f := newFixture(t, false)
	a := f.seed(t, model.AppointmentStatusCompleted)

	change, err := f.svc.Transition(context.Background(), a.ID, model.AppointmentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, change.Status)
}

func TestTransition_UnknownStatusAndMissingRecord(t *testing.T) {
	f := newFixture(t, false)
	a := f.seed(t, model.AppointmentStatusPending)

	_, err := f.svc.Transition(context.Background(), a.ID, "archived")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.Transition(context.Background(), uuid.New(), model.AppointmentStatusConfirmed)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestList_OrdersNewestFirstAndFilters(t *testing.T) {
	f := newFixture(t, true)
	older := f.seed(t, model.AppointmentStatusPending)
	f.repo.rows[older.ID].CreatedAt = clock.Add(-time.Hour)
	newer := f.seed(t, model.AppointmentStatusConfirmed)

	all, err := f.svc.List(context.Background(), model.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	pending, err := f.svc.List(context.Background(), model.AppointmentFilter{Status: model.AppointmentStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, older.ID, pending[0].ID)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, true)
	a := f.seed(t, model.AppointmentStatusCancelled)

	require.NoError(t, f.svc.Delete(context.Background(), a.ID))
	assert.Empty(t, f.repo.rows)
	assert.Equal(t, model.EventAppointmentDeleted, f.events.events[len(f.events.events)-1].Type)

	err := f.svc.Delete(context.Background(), a.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestListForUser(t *testing.T) {
	f := newFixture(t, true)
	uid := uuid.New()
	_, err := f.svc.Book(context.Background(), validBooking(), &session.Identity{UserID: uid})
	require.NoError(t, err)
	_, err = f.svc.Book(context.Background(), validBooking(), nil)
	require.NoError(t, err)

	mine, err := f.svc.ListForUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestNextStatuses(t *testing.T) {
	f := newFixture(t, true)
	a := f.seed(t, model.AppointmentStatusPending)

	_, next, err := f.svc.NextStatuses(context.Background(), a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.AppointmentStatus{model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled}, next)

	f.svc.config.StrictTransitions = false
	_, next, err = f.svc.NextStatuses(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, next, 3)
}

func TestSummary(t *testing.T) {
	f := newFixture(t, true)
	f.seed(t, model.AppointmentStatusPending)
	f.seed(t, model.AppointmentStatusPending)
	f.seed(t, model.AppointmentStatusCompleted)

	counts, err := f.svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.AppointmentStatusPending])
	assert.Equal(t, 3, counts.Total())
}

func TestSummary_LogsRepositoryFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	f := newFixture(t, true)
	f.repo.failAll = errors.New("connection refused")

	_, err := f.svc.Summary(context.Background())
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Contains(t, buf.String(), "failed to count appointments by status")
	assert.Contains(t, buf.String(), "connection refused")
}
