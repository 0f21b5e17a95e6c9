package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/grants/internal/email"
)

// RecordingNotifier implements notification.Notifier and keeps every request in memory
type RecordingNotifier struct {
	mu      sync.Mutex
	welcome []email.WelcomeEmail
	admin   []email.AdminNotification
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) NotifyWelcome(ctx context.Context, accountID string, req email.WelcomeEmail) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = append(n.welcome, req)
}

func (n *RecordingNotifier) NotifyAdmin(ctx context.Context, accountID string, req email.AdminNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin = append(n.admin, req)
}

func (n *RecordingNotifier) Welcome() []email.WelcomeEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]email.WelcomeEmail(nil), n.welcome...)
}

func (n *RecordingNotifier) Admin() []email.AdminNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]email.AdminNotification(nil), n.admin...)
}

func (n *RecordingNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = nil
	n.admin = nil
}
