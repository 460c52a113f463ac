package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusRetry      OutboxStatus = "retry"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types published through the outbox.
const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentDeleted       = "APPOINTMENT_DELETED"
	EventContactMessageReceived   = "CONTACT_MESSAGE_RECEIVED"
	EventPasswordResetRequested   = "PASSWORD_RESET_REQUESTED"
	EventUserSignedUp             = "USER_SIGNED_UP"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Event payloads.

type AppointmentEvent struct {
	AppointmentID  uuid.UUID         `json:"appointment_id"`
	PatientName    string            `json:"patient_name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	Service        string            `json:"service"`
	Practitioner   string            `json:"practitioner"`
	Location       string            `json:"location"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	Status         AppointmentStatus `json:"status"`
	PreviousStatus AppointmentStatus `json:"previous_status,omitempty"`
}

func NewAppointmentEvent(a *Appointment) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID: a.ID,
		PatientName:   a.PatientName,
		Email:         a.Email,
		Phone:         a.Phone,
		Service:       a.Service,
		Practitioner:  a.Practitioner,
		Location:      a.Location,
		Date:          a.Date,
		Time:          a.Time,
		Status:        a.Status,
	}
}

type ContactEvent struct {
	MessageID uuid.UUID `json:"message_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
}

type UserEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	// Set on PASSWORD_RESET_REQUESTED only.
	ResetURL       string     `json:"reset_url,omitempty"`
	ResetExpiresAt *time.Time `json:"reset_expires_at,omitempty"`
}
