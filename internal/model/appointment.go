package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentStatuses lists every status in lifecycle order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
}

// appointmentTransitions is the lifecycle graph. Statuses without an entry are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted},
}

func (s AppointmentStatus) Valid() bool {
	for _, st := range AppointmentStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// NextStatuses returns the statuses reachable in one step.
func (s AppointmentStatus) NextStatuses() []AppointmentStatus {
	next := appointmentTransitions[s]
	out := make([]AppointmentStatus, len(next))
	copy(out, next)
	return out
}

func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, next := range appointmentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// StatusesLeadingTo returns every status from which target is reachable in one step.
func StatusesLeadingTo(target AppointmentStatus) []AppointmentStatus {
	var from []AppointmentStatus
	for _, st := range AppointmentStatuses {
		if st.CanTransitionTo(target) {
			from = append(from, st)
		}
	}
	return from
}

// Appointment is a booking request as stored. Service, practitioner and
// location hold catalog names, not references.
type Appointment struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	PatientName        string            `db:"patient_name" json:"patient_name"`
	Email              string            `db:"email" json:"email"`
	Phone              string            `db:"phone" json:"phone"`
	Service            string            `db:"service" json:"service"`
	Practitioner       string            `db:"practitioner" json:"practitioner"`
	Location           string            `db:"location" json:"location"`
	Date               string            `db:"date" json:"date"`
	Time               string            `db:"time" json:"time"`
	Status             AppointmentStatus `db:"status" json:"status"`
	Age                int               `db:"age" json:"age"`
	Gender             string            `db:"gender" json:"gender"`
	HealthConcerns     *string           `db:"health_concerns" json:"health_concerns,omitempty"`
	PreviousTreatments *string           `db:"previous_treatments" json:"previous_treatments,omitempty"`
	Notes              *string           `db:"notes" json:"notes,omitempty"`
	UserID             *uuid.UUID        `db:"user_id" json:"user_id,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          *time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}

// StatusChange is the result of a status update.
type StatusChange struct {
	Appointment
	PreviousStatus AppointmentStatus `db:"previous_status" json:"previous_status"`
}

// BookingRequest is the intake form. Status, timestamps and ownership are
// never accepted from the client.
type BookingRequest struct {
	Service            string `json:"service" validate:"required"`
	Practitioner       string `json:"practitioner" validate:"required"`
	Location           string `json:"location" validate:"required"`
	Date               string `json:"date" validate:"required,datetime=2006-01-02,notpast,openday"`
	TimeSlot           string `json:"time_slot" validate:"required"`
	FullName           string `json:"full_name" validate:"required,min=2,max=120"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone" validate:"required,phone"`
	Age                int    `json:"age" validate:"required,min=1,max=120"`
	Gender             string `json:"gender" validate:"required,oneof=male female other prefer-not-to-say"`
	HealthConcerns     string `json:"health_concerns" validate:"max=2000"`
	PreviousTreatments string `json:"previous_treatments" validate:"max=2000"`
	Notes              string `json:"notes" validate:"max=2000"`
}

type StatusUpdateRequest struct {
	Status AppointmentStatus `json:"status" validate:"required"`
}

// AppointmentFilter selects appointments for the admin list. An empty
// Status means all statuses.
type AppointmentFilter struct {
	Status AppointmentStatus
}

// ParseStatusFilter accepts "all", "" or a known status.
func ParseStatusFilter(raw string) (AppointmentFilter, bool) {
	if raw == "" || raw == "all" {
		return AppointmentFilter{}, true
	}
	st := AppointmentStatus(raw)
	if !st.Valid() {
		return AppointmentFilter{}, false
	}
	return AppointmentFilter{Status: st}, true
}

// BookingConfirmation is returned after a successful booking.
type BookingConfirmation struct {
	Appointment *Appointment `json:"appointment"`
	Message     string       `json:"message"`
}

// StatusCounts summarises appointments per status.
type StatusCounts map[AppointmentStatus]int

func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
