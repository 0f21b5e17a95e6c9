package email

import (
	"context"
	"errors"
	"testing"

	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/logger"
	"github.com/stretchr/testify/suite"
)

type fakeClient struct {
	enabled bool
	err     error
	sent    []sentEmail
}

type sentEmail struct {
	to, subject, html, text string
}

func (f *fakeClient) IsEnabled() bool        { return f.enabled }
func (f *fakeClient) GetFromAddress() string { return "billing@example.com" }

func (f *fakeClient) SendEmail(_ context.Context, _, to, subject, html, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, html: html, text: text})
	return "msg_1", nil
}

type EmailSuite struct {
	suite.Suite
	ctx    context.Context
	client *fakeClient
	svc    *Email
}

func TestEmail(t *testing.T) {
	suite.Run(t, new(EmailSuite))
}

func (s *EmailSuite) SetupTest() {
	cfg := config.GetDefaultConfig()
	cfg.Email.AdminAddress = "ops@example.com"

	s.ctx = context.Background()
	s.client = &fakeClient{enabled: true}
	s.svc = NewEmail(s.client, cfg, logger.NewNoop())
}

func (s *EmailSuite) TestSendWelcomeEmail() {
	resp, err := s.svc.SendWelcomeEmail(s.ctx, WelcomeEmail{ToAddress: "jane@x.com", PlanName: "gold", DisplayName: "Gold"})
	s.Require().NoError(err)
	s.True(resp.Success)
	s.Equal("msg_1", resp.MessageID)

	s.Require().Len(s.client.sent, 1)
	s.Equal("jane@x.com", s.client.sent[0].to)
	s.Contains(s.client.sent[0].html, "Hi jane,")
	s.Contains(s.client.sent[0].html, "<strong>Gold</strong>")
}

func (s *EmailSuite) TestSendWelcomeEmailInvalidAddress() {
	resp, err := s.svc.SendWelcomeEmail(s.ctx, WelcomeEmail{ToAddress: "not-an-email"})
	s.Error(err)
	s.False(resp.Success)
	s.Empty(s.client.sent)
}

func (s *EmailSuite) TestSendAdminNotification() {
	resp, err := s.svc.SendAdminNotification(s.ctx, AdminNotification{
		Subject: "Addon purchased",
		Body:    "An account bought extra slots",
		Fields:  map[string]string{"slots": "2", "account_id": "acct_1"},
	})
	s.Require().NoError(err)
	s.True(resp.Success)

	s.Require().Len(s.client.sent, 1)
	s.Equal("ops@example.com", s.client.sent[0].to)
	s.Equal("An account bought extra slots\n\naccount_id: acct_1\nslots: 2", s.client.sent[0].text)
}

func (s *EmailSuite) TestDisabledClientIsNotAnError() {
	s.client.enabled = false

	resp, err := s.svc.SendAdminNotification(s.ctx, AdminNotification{Subject: "x", Body: "y"})
	s.NoError(err)
	s.False(resp.Success)
	s.Equal("email client is disabled", resp.Error)
}

func (s *EmailSuite) TestDeliveryFailure() {
	s.client.err = errors.New("rate limited")

	resp, err := s.svc.SendAdminNotification(s.ctx, AdminNotification{Subject: "x", Body: "y"})
	s.Error(err)
	s.False(resp.Success)
	s.Equal("rate limited", resp.Error)
}

func (s *EmailSuite) TestExtractNameFromEmail() {
	s.Equal("john.doe", ExtractNameFromEmail("john.doe@example.com"))
	s.Equal("there", ExtractNameFromEmail("@example.com"))
}
