package notification

import (
	"fmt"

	"github.com/ayurcare/clinic-api/internal/email"
	"github.com/ayurcare/clinic-api/internal/model"
)

func visitSummary(evt model.AppointmentEvent) string {
	return fmt.Sprintf("Service: %s\nPractitioner: %s\nLocation: %s\nDate: %s\nTime: %s",
		evt.Service, evt.Practitioner, evt.Location, evt.Date, evt.Time)
}

func receivedEmail(clinic string, evt model.AppointmentEvent) email.Message {
	return email.Message{
		To:      evt.Email,
		Subject: fmt.Sprintf("%s: appointment request received", clinic),
		Text: fmt.Sprintf("Dear %s,\n\nThank you for choosing %s. We have received your appointment request and will contact you shortly to confirm it.\n\n%s\n\nReference: %s\n",
			evt.PatientName, clinic, visitSummary(evt), evt.AppointmentID),
	}
}

func confirmedEmail(clinic string, evt model.AppointmentEvent) email.Message {
	return email.Message{
		To:      evt.Email,
		Subject: fmt.Sprintf("%s: your appointment is confirmed", clinic),
		Text: fmt.Sprintf("Dear %s,\n\nYour appointment has been confirmed.\n\n%s\n\nPlease arrive 10 minutes early.\n",
			evt.PatientName, visitSummary(evt)),
	}
}

func cancelledEmail(clinic string, evt model.AppointmentEvent) email.Message {
	return email.Message{
		To:      evt.Email,
		Subject: fmt.Sprintf("%s: your appointment was cancelled", clinic),
		Text: fmt.Sprintf("Dear %s,\n\nYour appointment for %s on %s at %s has been cancelled. Reply to this email or book again on our website.\n",
			evt.PatientName, evt.Service, evt.Date, evt.Time),
	}
}

func passwordResetEmail(clinic string, evt model.UserEvent) email.Message {
	expiry := "shortly"
	if evt.ResetExpiresAt != nil {
		expiry = "at " + evt.ResetExpiresAt.UTC().Format("15:04 MST on 2 Jan 2006")
	}
	return email.Message{
		To:      evt.Email,
		Subject: fmt.Sprintf("%s: password reset", clinic),
		Text: fmt.Sprintf("Hello %s,\n\nWe received a request to reset your password. Choose a new one here:\n\n%s\n\nThe link works once and expires %s. If you did not ask for this, ignore this email.\n",
			evt.FullName, evt.ResetURL, expiry),
	}
}

func contactAdminEmail(to string, evt model.ContactEvent) email.Message {
	return email.Message{
		To:      to,
		Subject: "New contact message: " + evt.Subject,
		Text:    fmt.Sprintf("%s <%s> sent a message (%s). Open the admin panel to read it.\n", evt.Name, evt.Email, evt.MessageID),
	}
}
