package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	"github.com/ayurcare/clinic-api/internal/service/catalog"
	"github.com/ayurcare/clinic-api/internal/service/event"
	"github.com/ayurcare/clinic-api/internal/session"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/metrics"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

const (
	confirmationMessage = "Your appointment request has been received. We will contact you shortly to confirm your booking."
	bookingFailedMessage = "Failed to book appointment. Please try again."
)

// ErrInvalidTransition is returned when the requested status cannot be
// reached from the current one.
var ErrInvalidTransition = errors.New("invalid status transition")

type Config struct {
	// StrictTransitions limits status changes to the lifecycle graph.
	// When false any known status may be set.
	StrictTransitions bool
}

type Service struct {
	repo      repository.AppointmentRepository
	catalog   catalog.Provider
	validator *validator.Validator
	events    event.Publisher
	metrics   *metrics.Metrics
	config    Config
	now       func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	catalog catalog.Provider,
	v *validator.Validator,
	events event.Publisher,
	metrics *metrics.Metrics,
	config Config,
) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		validator: v,
		events:    events,
		metrics:   metrics,
		config:    config,
		now:       time.Now,
	}
}

// Book validates an intake form and records it as a pending appointment.
// identity may be nil for anonymous visitors.
func (s *Service) Book(ctx context.Context, req *model.BookingRequest, identity *session.Identity) (*model.BookingConfirmation, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	cat, err := s.catalog.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load catalog for booking")
		return nil, apperrors.Internal(err)
	}

	fields := map[string]string{}
	service, ok := cat.FindService(req.Service)
	if !ok {
		fields["service"] = "is not offered"
	}
	practitioner, ok := cat.FindPractitioner(req.Practitioner)
	if !ok {
		fields["practitioner"] = "is not available"
	}
	location, ok := cat.FindLocation(req.Location)
	if !ok {
		fields["location"] = "is not a clinic location"
	}
	slot, ok := cat.FindTimeSlot(req.TimeSlot)
	if !ok {
		fields["time_slot"] = "is not an available time slot"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	appt := &model.Appointment{
		PatientName:        strings.TrimSpace(req.FullName),
		Email:              strings.TrimSpace(req.Email),
		Phone:              strings.TrimSpace(req.Phone),
		Service:            service.Name,
		Practitioner:       practitioner.Name,
		Location:           location.Name,
		Date:               req.Date,
		Time:               slot.Label,
		Status:             model.AppointmentStatusPending,
		Age:                req.Age,
		Gender:             req.Gender,
		HealthConcerns:     optional(req.HealthConcerns),
		PreviousTreatments: optional(req.PreviousTreatments),
		Notes:              optional(req.Notes),
		CreatedAt:          s.now().UTC(),
	}
	if identity != nil {
		uid := identity.UserID
		appt.UserID = &uid
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("create_appointment", "error").Inc()
		log.Error().Err(err).Str("email", appt.Email).Msg("failed to create appointment")
		return nil, &apperrors.AppError{Code: apperrors.ErrInternal, Message: bookingFailedMessage, Err: err}
	}
	s.metrics.DatabaseOperations.WithLabelValues("create_appointment", "success").Inc()
	s.metrics.BookingsCreated.Inc()

	s.publish(ctx, model.EventAppointmentCreated, model.NewAppointmentEvent(appt))

	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("service", appt.Service).
		Str("date", appt.Date).
		Msg("appointment booked")

	return &model.BookingConfirmation{Appointment: appt, Message: confirmationMessage}, nil
}

// List returns appointments matching filter, newest first.
func (s *Service) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	appts, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("status", string(filter.Status)).Msg("failed to list appointments")
		return nil, apperrors.Internal(err)
	}
	return appts, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return appt, nil
}

// Transition moves an appointment to status to and refreshes updated_at.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus) (*model.StatusChange, error) {
	if !to.Valid() {
		return nil, apperrors.Validation(map[string]string{
			"status": "must be one of: pending, confirmed, completed, cancelled",
		})
	}

	allowedFrom := model.AppointmentStatuses
	if s.config.StrictTransitions {
		allowedFrom = model.StatusesLeadingTo(to)
	}

	change, err := s.repo.UpdateStatus(ctx, id, to, allowedFrom, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		// Distinguish a missing row from a rejected move.
		current, getErr := s.repo.Get(ctx, id)
		if getErr != nil {
			return nil, mapError(getErr)
		}
		return nil, apperrors.Conflict(
			fmt.Sprintf("invalid status transition from %s to %s", current.Status, to),
			ErrInvalidTransition,
		)
	}
	if err != nil {
		log.Error().Err(err).Str("appointment_id", id.String()).Msg("failed to update appointment status")
		return nil, apperrors.Internal(err)
	}

	s.metrics.AppointmentTransitions.WithLabelValues(string(change.PreviousStatus), string(change.Status)).Inc()

	payload := model.NewAppointmentEvent(&change.Appointment)
	payload.PreviousStatus = change.PreviousStatus
	s.publish(ctx, model.EventAppointmentStatusChanged, payload)

	log.Info().
		Str("appointment_id", id.String()).
		Str("from", string(change.PreviousStatus)).
		Str("to", string(change.Status)).
		Msg("appointment status changed")

	return change, nil
}

// Delete permanently removes an appointment.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return mapError(err)
	}

	s.publish(ctx, model.EventAppointmentDeleted, model.NewAppointmentEvent(deleted))
	log.Info().Str("appointment_id", id.String()).Msg("appointment deleted")
	return nil
}

// ListForUser returns the caller's own appointments.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	appts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list user appointments")
		return nil, apperrors.Internal(err)
	}
	return appts, nil
}

// NextStatuses reports where the appointment may move next.
func (s *Service) NextStatuses(ctx context.Context, id uuid.UUID) (*model.Appointment, []model.AppointmentStatus, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !s.config.StrictTransitions {
		next := make([]model.AppointmentStatus, 0, len(model.AppointmentStatuses)-1)
		for _, st := range model.AppointmentStatuses {
			if st != appt.Status {
				next = append(next, st)
			}
		}
		return appt, next, nil
	}
	return appt, appt.Status.NextStatuses(), nil
}

// Summary counts appointments per status.
func (s *Service) Summary(ctx context.Context) (model.StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count appointments by status")
		return nil, apperrors.Internal(err)
	}
	return counts, nil
}

// publish records an event. Failures are logged; the caller's write has
// already succeeded.
func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to record event")
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func mapError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("appointment", err)
	}
	return apperrors.Internal(err)
}
