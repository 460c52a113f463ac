package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/email"
	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/sms"
	"github.com/ayurcare/clinic-api/pkg/messaging"
	"github.com/ayurcare/clinic-api/pkg/metrics"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"
)

type Config struct {
	ClinicName string
	AdminEmail string
	SMSEnabled bool
}

// Consumer is the subscription side of the broker adapter.
type Consumer interface {
	Consume(ctx context.Context, channel string, handler messaging.MessageHandler) error
}

// Dispatcher turns domain events into patient and staff notifications.
type Dispatcher struct {
	mail    email.Sender
	sms     sms.Sender
	metrics *metrics.Metrics
	cfg     Config
}

func NewDispatcher(mail email.Sender, smsSender sms.Sender, m *metrics.Metrics, cfg Config) *Dispatcher {
	return &Dispatcher{mail: mail, sms: smsSender, metrics: m, cfg: cfg}
}

// Run consumes channel until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, consumer Consumer, channel string) error {
	log.Info().Str("channel", channel).Msg("notification dispatcher started")
	return consumer.Consume(ctx, channel, d.Handle)
}

// Handle routes one event. Unknown event types are ignored.
func (d *Dispatcher) Handle(ctx context.Context, msg messaging.Message) error {
	switch msg.Type {
	case model.EventAppointmentCreated:
		var evt model.AppointmentEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return d.appointmentReceived(ctx, msg.Type, evt)

	case model.EventAppointmentStatusChanged:
		var evt model.AppointmentEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return d.appointmentStatusChanged(ctx, msg.Type, evt)

	case model.EventPasswordResetRequested:
		var evt model.UserEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return d.sendEmail(ctx, msg.Type, passwordResetEmail(d.cfg.ClinicName, evt))

	case model.EventContactMessageReceived:
		if d.cfg.AdminEmail == "" {
			return nil
		}
		var evt model.ContactEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return d.sendEmail(ctx, msg.Type, contactAdminEmail(d.cfg.AdminEmail, evt))
	}
	return nil
}

func (d *Dispatcher) appointmentReceived(ctx context.Context, eventType string, evt model.AppointmentEvent) error {
	mailErr := d.sendEmail(ctx, eventType, receivedEmail(d.cfg.ClinicName, evt))

	if d.cfg.SMSEnabled && evt.Phone != "" {
		body := fmt.Sprintf("%s: we received your request for %s on %s at %s. We will call to confirm.",
			d.cfg.ClinicName, evt.Service, evt.Date, evt.Time)
		if err := d.sendSMS(ctx, eventType, evt.Phone, body); err != nil && mailErr == nil {
			return err
		}
	}
	return mailErr
}

func (d *Dispatcher) appointmentStatusChanged(ctx context.Context, eventType string, evt model.AppointmentEvent) error {
	switch evt.Status {
	case model.AppointmentStatusConfirmed:
		return d.sendEmail(ctx, eventType, confirmedEmail(d.cfg.ClinicName, evt))
	case model.AppointmentStatusCancelled:
		return d.sendEmail(ctx, eventType, cancelledEmail(d.cfg.ClinicName, evt))
	}
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, eventType string, msg email.Message) error {
	if err := d.mail.Send(ctx, msg); err != nil {
		d.record(channelEmail, eventType, err)
		return err
	}
	d.record(channelEmail, eventType, nil)
	return nil
}

func (d *Dispatcher) sendSMS(ctx context.Context, eventType, to, body string) error {
	if err := d.sms.Send(ctx, to, body); err != nil {
		d.record(channelSMS, eventType, err)
		return err
	}
	d.record(channelSMS, eventType, nil)
	return nil
}

func (d *Dispatcher) record(channel, eventType string, err error) {
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Str("event_type", eventType).Msg("notification failed")
	}
	if d.metrics == nil {
		return
	}
	if err != nil {
		d.metrics.NotificationsFailed.WithLabelValues(channel, eventType).Inc()
		return
	}
	d.metrics.NotificationsSent.WithLabelValues(channel, eventType).Inc()
}
