package email

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/validator"
)

//go:embed templates/*.html
var templates embed.FS

const welcomeTemplate = "templates/welcome.html"

// Email renders and sends the service's emails
type Email struct {
	client       Client
	adminAddress string
	logger       *logger.Logger
}

// NewEmail creates a new email service
func NewEmail(client Client, cfg *config.Configuration, logger *logger.Logger) *Email {
	return &Email{
		client:       client,
		adminAddress: cfg.Email.AdminAddress,
		logger:       logger,
	}
}

// SendWelcomeEmail sends the templated welcome email
func (s *Email) SendWelcomeEmail(ctx context.Context, req WelcomeEmail) (*SendEmailResponse, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return &SendEmailResponse{Error: err.Error()}, err
	}

	planName := req.DisplayName
	if planName == "" {
		planName = req.PlanName
	}

	htmlContent, err := s.readTemplate(welcomeTemplate)
	if err != nil {
		return &SendEmailResponse{Error: err.Error()}, err
	}
	htmlContent = replacePlaceholders(htmlContent, map[string]interface{}{
		"user_name": ExtractNameFromEmail(req.ToAddress),
		"plan_name": planName,
	})

	return s.send(ctx, req.ToAddress, "Welcome aboard", htmlContent, "")
}

// SendAdminNotification sends a plain text notification to the operators address
func (s *Email) SendAdminNotification(ctx context.Context, req AdminNotification) (*SendEmailResponse, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return &SendEmailResponse{Error: err.Error()}, err
	}
	if s.adminAddress == "" {
		s.logger.Warnw("no admin address configured, skipping admin notification",
			"subject", req.Subject,
		)
		return &SendEmailResponse{Error: "no admin address configured"}, nil
	}

	return s.send(ctx, s.adminAddress, req.Subject, "", formatAdminBody(req))
}

func (s *Email) send(ctx context.Context, to, subject, htmlContent, textContent string) (*SendEmailResponse, error) {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", to,
			"subject", subject,
		)
		return &SendEmailResponse{
			Success: false,
			Error:   "email client is disabled",
		}, nil
	}

	messageID, err := s.client.SendEmail(ctx, s.client.GetFromAddress(), to, subject, htmlContent, textContent)
	if err != nil {
		s.logger.Errorw("failed to send email",
			"error", err,
			"to", to,
			"subject", subject,
		)
		return &SendEmailResponse{
			Success: false,
			Error:   err.Error(),
		}, err
	}

	s.logger.Infow("email sent successfully",
		"message_id", messageID,
		"to", to,
		"subject", subject,
	)

	return &SendEmailResponse{
		MessageID: messageID,
		Success:   true,
	}, nil
}

func (s *Email) readTemplate(templatePath string) (string, error) {
	content, err := templates.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	return string(content), nil
}

// replacePlaceholders replaces placeholders in the template with actual data
func replacePlaceholders(template string, data map[string]interface{}) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, fmt.Sprintf("%v", value))
	}
	return result
}

func formatAdminBody(req AdminNotification) string {
	var b strings.Builder
	b.WriteString(req.Body)

	keys := make([]string, 0, len(req.Fields))
	for k := range req.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		b.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, req.Fields[k])
	}
	return b.String()
}

// ExtractNameFromEmail extracts the name part from an email address
// e.g., "john.doe@example.com" -> "john.doe"
func ExtractNameFromEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "there"
}
