package email

// SendEmailResponse is the outcome of one delivery attempt: ok with the provider
// message id, or not ok with the error text
type SendEmailResponse struct {
	MessageID string
	Success   bool
	Error     string
}

// WelcomeEmail is sent once per account after its first paid entitlement
type WelcomeEmail struct {
	ToAddress   string `json:"to_address" validate:"required,email"`
	PlanName    string `json:"plan_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// AdminNotification tells operators about a billing change that needs no action
// from the customer
type AdminNotification struct {
	Subject string            `json:"subject" validate:"required"`
	Body    string            `json:"body" validate:"required"`
	Fields  map[string]string `json:"fields,omitempty" validate:"omitempty"`
}
