package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPSender_BuildsMessage(t *testing.T) {
	d := &captureDialer{}
	s := &smtpSender{dialer: d, from: "no-reply@ayurcare.example"}

	err := s.Send(context.Background(), Message{
		To:      "asha@example.com",
		Subject: "Appointment received",
		Text:    "We will call you shortly.",
		HTML:    "<p>We will call you shortly.</p>",
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"no-reply@ayurcare.example"}, m.GetHeader("From"))
	assert.Equal(t, []string{"asha@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Appointment received"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "We will call you shortly.")
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPSender_Errors(t *testing.T) {
	d := &captureDialer{err: errors.New("connection refused")}
	s := &smtpSender{dialer: d, from: "x@example.com"}

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Text: "t"})
	assert.ErrorContains(t, err, "connection refused")

	err = s.Send(context.Background(), Message{Subject: "s"})
	assert.ErrorContains(t, err, "missing recipient")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
}

func TestNopSender(t *testing.T) {
	assert.NoError(t, NewNopSender().Send(context.Background(), Message{To: "a@example.com"}))
}
