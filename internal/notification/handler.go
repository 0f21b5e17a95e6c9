package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/email"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/pubsub"
	"github.com/flexprice/grants/internal/pubsub/router"
)

// EmailSender is the email sink notifications are delivered through
type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, req email.WelcomeEmail) (*email.SendEmailResponse, error)
	SendAdminNotification(ctx context.Context, req email.AdminNotification) (*email.SendEmailResponse, error)
}

// Handler consumes the notification topic
type Handler struct {
	sender EmailSender
	logger *logger.Logger
}

func NewHandler(sender EmailSender, logger *logger.Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

// RegisterHandler subscribes the handler to the notification topic
func RegisterHandler(r *router.Router, cfg *config.Configuration, ps pubsub.PubSub, h *Handler) {
	r.AddNoPublishHandler(
		"notification_handler",
		cfg.Notification.Topic,
		ps,
		h.Handle,
	)
}

// Handle delivers one notification message
func (h *Handler) Handle(msg *message.Message) error {
	var n Message
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid notification payload").
			Mark(ierr.ErrValidation)
	}

	var (
		resp *email.SendEmailResponse
		err  error
	)

	switch n.Kind {
	case KindWelcomeEmail:
		if n.Welcome == nil {
			return ierr.NewError("welcome notification without payload").Mark(ierr.ErrValidation)
		}
		resp, err = h.sender.SendWelcomeEmail(msg.Context(), *n.Welcome)
	case KindAdminNotification:
		if n.Admin == nil {
			return ierr.NewError("admin notification without payload").Mark(ierr.ErrValidation)
		}
		resp, err = h.sender.SendAdminNotification(msg.Context(), *n.Admin)
	default:
		h.logger.Warnw("unknown notification kind, dropping",
			"notification_id", n.ID,
			"kind", n.Kind,
		)
		return nil
	}

	if err != nil {
		return err
	}

	h.logger.Infow("notification delivered",
		"notification_id", n.ID,
		"kind", n.Kind,
		"account_id", n.AccountID,
		"event_id", n.EventID,
		"ok", resp.Success,
		"message_id", resp.MessageID,
		"reason", resp.Error,
	)
	return nil
}
