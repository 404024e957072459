// Package mailer sends transactional email to hospitals through SendGrid.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	templates "github.com/chetak-health/chetak-api/templates/html"
)

const (
	defaultFromName    = "Chetak"
	defaultFromAddress = "no-reply@chetak.health"
)

// Mailer defines the interface for outgoing email
type Mailer interface {
	SendWelcome(ctx context.Context, toEmail, hospitalName string) error
}

// New returns a SendGrid mailer, or a no-op mailer when apiKey is empty
func New(apiKey, from string) Mailer {
	if apiKey == "" {
		zap.S().Info("SENDGRID_API_KEY not set, outgoing email disabled")
		return Noop{}
	}
	if from == "" {
		from = defaultFromAddress
	}
	return &SendGrid{client: sendgrid.NewSendClient(apiKey), from: from}
}

// SendGrid delivers email through the SendGrid v3 API
type SendGrid struct {
	client *sendgrid.Client
	from   string
}

// SendWelcome sends the registration welcome email
func (s *SendGrid) SendWelcome(ctx context.Context, toEmail, hospitalName string) error {
	htmlContent, plainText := templates.RenderWelcomeEmail(hospitalName)
	return s.send(ctx, toEmail, hospitalName, templates.WelcomeSubject, htmlContent, plainText)
}

func (s *SendGrid) send(ctx context.Context, toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail(defaultFromName, s.from)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	return nil
}

// Noop discards every message
type Noop struct{}

// SendWelcome implements the Mailer interface
func (Noop) SendWelcome(ctx context.Context, toEmail, hospitalName string) error {
	return nil
}
