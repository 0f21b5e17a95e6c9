package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/email"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/pubsub"
	"github.com/flexprice/grants/internal/sentry"
	"github.com/flexprice/grants/internal/types"
	"github.com/sourcegraph/conc/panics"
)

// Notifier dispatches post-grant notifications. Calls return immediately; delivery happens
// in the background and a failure is only logged and reported.
type Notifier interface {
	NotifyWelcome(ctx context.Context, accountID string, req email.WelcomeEmail)
	NotifyAdmin(ctx context.Context, accountID string, req email.AdminNotification)
}

type publisher struct {
	pubsub pubsub.Publisher
	topic  string
	logger *logger.Logger
	sentry *sentry.Service
}

// NewNotifier returns a Notifier that publishes to the notification topic
func NewNotifier(cfg *config.Configuration, ps pubsub.PubSub, logger *logger.Logger, sentry *sentry.Service) Notifier {
	return &publisher{
		pubsub: ps,
		topic:  cfg.Notification.Topic,
		logger: logger,
		sentry: sentry,
	}
}

func (p *publisher) NotifyWelcome(ctx context.Context, accountID string, req email.WelcomeEmail) {
	p.dispatch(ctx, &Message{
		Kind:      KindWelcomeEmail,
		AccountID: accountID,
		Welcome:   &req,
	})
}

func (p *publisher) NotifyAdmin(ctx context.Context, accountID string, req email.AdminNotification) {
	p.dispatch(ctx, &Message{
		Kind:      KindAdminNotification,
		AccountID: accountID,
		Admin:     &req,
	})
}

// dispatch publishes from a detached goroutine. The request context may be cancelled as
// soon as the webhook is acknowledged, so only its values are kept.
func (p *publisher) dispatch(ctx context.Context, msg *Message) {
	msg.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION)
	msg.EventID = types.GetWebhookEventID(ctx)
	msg.CreatedAt = time.Now().UTC()

	detached := context.WithoutCancel(ctx)

	go func() {
		var pc panics.Catcher
		pc.Try(func() {
			if err := p.publish(detached, msg); err != nil {
				p.logger.Errorw("failed to publish notification",
					"error", err,
					"notification_id", msg.ID,
					"kind", msg.Kind,
					"account_id", msg.AccountID,
					"event_id", msg.EventID,
				)
				p.sentry.CaptureException(err)
			}
		})

		if r := pc.Recovered(); r != nil {
			p.logger.Errorw("panic while publishing notification",
				"panic", r.Value,
				"notification_id", msg.ID,
				"kind", msg.Kind,
			)
			p.sentry.CaptureException(r.AsError())
		}
	}()
}

func (p *publisher) publish(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal notification").
			Mark(ierr.ErrInternal)
	}

	wmMsg := message.NewMessage(msg.ID, payload)
	wmMsg.Metadata.Set("kind", string(msg.Kind))
	if requestID := types.GetRequestID(ctx); requestID != "" {
		middleware.SetCorrelationID(requestID, wmMsg)
	}

	if err := p.pubsub.Publish(ctx, p.topic, wmMsg); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to publish notification").
			Mark(ierr.ErrSystem)
	}

	p.logger.Debugw("published notification",
		"notification_id", msg.ID,
		"kind", msg.Kind,
		"account_id", msg.AccountID,
	)
	return nil
}
