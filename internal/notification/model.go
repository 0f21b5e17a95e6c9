package notification

import (
	"time"

	"github.com/flexprice/grants/internal/email"
)

// Kind is the type of a post-grant notification
type Kind string

const (
	KindWelcomeEmail      Kind = "welcome_email"
	KindAdminNotification Kind = "admin_notification"
)

// Message is the payload published on the notification topic
type Message struct {
	ID        string                   `json:"id"`
	Kind      Kind                     `json:"kind"`
	AccountID string                   `json:"account_id,omitempty"`
	EventID   string                   `json:"event_id,omitempty"`
	Welcome   *email.WelcomeEmail      `json:"welcome,omitempty"`
	Admin     *email.AdminNotification `json:"admin,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}
