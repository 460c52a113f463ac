package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// Region is the CLDR code (e.g. "IN") for numbers entered without +.
	Region string
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioSender struct {
	api    messageCreator
	from   string
	region string
}

func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{api: client.Api, from: cfg.FromNumber, region: cfg.Region}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	number, err := NormalizeNumber(to, s.region)
	if err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(number)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sms: send to %s: %w", number, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Debug().Str("sid", sid).Msg("sms queued")
	return nil
}

// NormalizeNumber converts a patient-entered phone number to E.164.
// Numbers without a leading + are read as numbers of region.
func NormalizeNumber(phone, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(phone), strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("sms: invalid phone number %q: %w", phone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("sms: invalid phone number %q", phone)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

type nopSender struct{}

// NewNopSender logs instead of sending. Used when Twilio is not configured.
func NewNopSender() Sender {
	return nopSender{}
}

func (nopSender) Send(_ context.Context, to, _ string) error {
	log.Debug().Str("to", to).Msg("sms delivery disabled, skipping")
	return nil
}
