package email

import (
	"context"

	"github.com/flexprice/grants/internal/config"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/resend/resend-go/v2"
)

// Client is the delivery side of the email sink
type Client interface {
	IsEnabled() bool
	GetFromAddress() string
	SendEmail(ctx context.Context, from, to, subject, htmlContent, textContent string) (string, error)
}

// EmailClient represents a resend backed email client
type EmailClient struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	replyTo     string
}

// NewEmailClient creates a new email client. Without an api key the client is disabled.
func NewEmailClient(cfg *config.Configuration) Client {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		return &EmailClient{
			enabled:     false,
			fromAddress: cfg.Email.FromAddress,
		}
	}

	return &EmailClient{
		client:      resend.NewClient(cfg.Email.APIKey),
		enabled:     true,
		fromAddress: cfg.Email.FromAddress,
		replyTo:     cfg.Email.ReplyTo,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *EmailClient) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the default from address
func (c *EmailClient) GetFromAddress() string {
	return c.fromAddress
}

// SendEmail sends a plain text or HTML email
func (c *EmailClient) SendEmail(ctx context.Context, from, to, subject, htmlContent, textContent string) (string, error) {
	if !c.enabled {
		return "", ierr.NewError("email client is disabled").
			WithHint("Set email.enabled and email.api_key to send emails").
			Mark(ierr.ErrInvalidOperation)
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlContent,
		Text:    textContent,
	}

	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to send email").
			WithReportableDetails(map[string]interface{}{
				"subject": subject,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return sent.Id, nil
}
