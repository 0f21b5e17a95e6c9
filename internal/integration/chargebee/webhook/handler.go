package webhook

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/domain/webhookevent"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/sentry"
	"github.com/flexprice/grants/internal/service"
	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
)

// Ledger providers. The addon endpoint receives the same event ids as the primary one,
// so each endpoint keeps its own entries.
const (
	ProviderChargebee       = "chargebee"
	ProviderChargebeeAddons = "chargebee_addons"
)

// Handler classifies Chargebee webhook events and routes them to the billing services.
// It never returns an error for a well formed delivery: every outcome is logged and the
// provider is always acknowledged.
type Handler struct {
	lifecycle service.SubscriptionLifecycleService
	invoices  service.InvoiceReconciliationService
	recovery  service.PaymentRecoveryService
	addons    service.AddonLifecycleService
	ledger    webhookevent.Repository
	dedupe    bool
	logger    *logger.Logger
	sentry    *sentry.Service
}

// NewHandler creates a new Chargebee webhook handler
func NewHandler(
	cfg *config.Configuration,
	lifecycle service.SubscriptionLifecycleService,
	invoices service.InvoiceReconciliationService,
	recovery service.PaymentRecoveryService,
	addons service.AddonLifecycleService,
	ledger webhookevent.Repository,
	logger *logger.Logger,
	sentry *sentry.Service,
) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		invoices:  invoices,
		recovery:  recovery,
		addons:    addons,
		ledger:    ledger,
		dedupe:    cfg.Billing.DedupeEvents,
		logger:    logger,
		sentry:    sentry,
	}
}

type dispatchFunc func(ctx context.Context, eventType chargebee.EventType, content *chargebee.Content) error

// HandleWebhookEvent processes an event delivered to the primary endpoint
func (h *Handler) HandleWebhookEvent(ctx context.Context, event *chargebee.Event) error {
	return h.process(ctx, ProviderChargebee, event, h.dispatchPrimary)
}

// HandleAddonWebhookEvent processes an event delivered to the addon integration endpoint
func (h *Handler) HandleAddonWebhookEvent(ctx context.Context, event *chargebee.Event) error {
	return h.process(ctx, ProviderChargebeeAddons, event, h.dispatchAddon)
}

func (h *Handler) process(ctx context.Context, provider string, event *chargebee.Event, dispatch dispatchFunc) error {
	ctx = types.SetWebhookEventID(ctx, event.ID)
	log := h.logger.With(
		"provider", provider,
		"event_id", event.ID,
		"event_type", event.EventType,
		"request_id", types.GetRequestID(ctx),
	)

	occurredAt := lo.FromPtr(chargebee.TimestampToTime(event.OccurredAt))
	log.Infow("received billing event", "occurred_at", occurredAt)

	span, ctx := h.sentry.MonitorWebhookProcessing(ctx, string(event.EventType), occurredAt)
	defer sentry.FinishSpan(span)

	if !h.claim(ctx, log, provider, event) {
		return nil
	}

	start := time.Now()
	err := h.dispatch(ctx, event, dispatch)
	if err == nil {
		log.Infow("processed billing event", "duration_ms", time.Since(start).Milliseconds())
		return nil
	}

	code := ierr.ReconciliationCode(err)
	switch code {
	case ierr.ErrCodeUserNotFound, ierr.ErrCodeUnknownPlanID:
		log.Warnw("billing event not applied",
			"reason", code,
			"error", err)
	default:
		log.Errorw("failed to process billing event",
			"reason", code,
			"error", err)
		h.sentry.CaptureWebhookException(ctx, err, string(event.EventType))
	}

	h.release(ctx, log, provider, event)
	return nil
}

// dispatch parses the content and runs the handler, turning a panic into a processing error
func (h *Handler) dispatch(ctx context.Context, event *chargebee.Event, dispatch dispatchFunc) (err error) {
	content, err := event.ParseContent()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Malformed event content").
			Mark(ierr.ErrValidation)
	}

	var pc panics.Catcher
	pc.Try(func() {
		err = dispatch(ctx, event.EventType, content)
	})
	if r := pc.Recovered(); r != nil {
		h.logger.Errorw("panic while handling billing event",
			"event_id", event.ID,
			"panic", r.Value,
			"stack", string(r.Stack))
		return ierr.WithError(r.AsError()).
			WithHint("Billing event handler panicked").
			Mark(ierr.ErrInternal)
	}
	return err
}

func (h *Handler) dispatchPrimary(ctx context.Context, eventType chargebee.EventType, content *chargebee.Content) error {
	switch eventType {
	case chargebee.EventSubscriptionCreated:
		return h.lifecycle.HandleSubscriptionCreated(ctx, content)
	case chargebee.EventSubscriptionActivated:
		return h.lifecycle.HandleSubscriptionActivated(ctx, content)
	case chargebee.EventSubscriptionCancellationScheduled:
		return h.lifecycle.HandleSubscriptionCancellationScheduled(ctx, content)
	case chargebee.EventSubscriptionCancelled:
		return h.lifecycle.HandleSubscriptionCancelled(ctx, content)
	case chargebee.EventInvoiceGenerated:
		return h.invoices.HandleInvoiceGenerated(ctx, content)
	case chargebee.EventPaymentSucceeded:
		return h.recovery.HandlePaymentSucceeded(ctx, content)
	case chargebee.EventSubscriptionRenewed, chargebee.EventSubscriptionReactivated, chargebee.EventPaymentFailed:
		h.logger.Debugw("event is only handled on the addon endpoint", "event_type", eventType)
		return nil
	default:
		h.logger.Infow("unhandled Chargebee webhook event type", "event_type", eventType)
		return nil
	}
}

func (h *Handler) dispatchAddon(ctx context.Context, eventType chargebee.EventType, content *chargebee.Content) error {
	switch eventType {
	case chargebee.EventSubscriptionCreated:
		return h.addons.HandleSubscriptionCreated(ctx, content)
	case chargebee.EventSubscriptionRenewed:
		return h.addons.HandleSubscriptionRenewed(ctx, content)
	case chargebee.EventSubscriptionCancelled:
		return h.addons.HandleSubscriptionCancelled(ctx, content)
	case chargebee.EventSubscriptionReactivated:
		return h.addons.HandleSubscriptionReactivated(ctx, content)
	case chargebee.EventPaymentFailed:
		return h.addons.HandlePaymentFailed(ctx, content)
	case chargebee.EventSubscriptionActivated,
		chargebee.EventSubscriptionCancellationScheduled,
		chargebee.EventInvoiceGenerated,
		chargebee.EventPaymentSucceeded:
		h.logger.Debugw("event is only handled on the primary endpoint", "event_type", eventType)
		return nil
	default:
		h.logger.Infow("unhandled Chargebee addon webhook event type", "event_type", eventType)
		return nil
	}
}

// claim records the event in the processed-event ledger when deduplication is on. It
// returns false for an event that was already processed. A ledger failure does not block
// processing.
func (h *Handler) claim(ctx context.Context, log *logger.Logger, provider string, event *chargebee.Event) bool {
	if !h.dedupe || event.ID == "" {
		return true
	}

	recorded, err := h.ledger.Record(ctx, &webhookevent.ProcessedEvent{
		Provider:    provider,
		EventID:     event.ID,
		EventType:   string(event.EventType),
		ProcessedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Errorw("failed to record billing event, processing without deduplication", "error", err)
		return true
	}
	if !recorded {
		log.Infow("skipping already processed billing event")
		h.sentry.AddBreadcrumb("webhook", "duplicate billing event", map[string]interface{}{
			"provider": provider,
			"event_id": event.ID,
		})
		return false
	}
	return true
}

// release removes a failed event from the ledger so a provider redelivery is processed again
func (h *Handler) release(ctx context.Context, log *logger.Logger, provider string, event *chargebee.Event) {
	if !h.dedupe || event.ID == "" {
		return
	}
	if err := h.ledger.Delete(ctx, provider, event.ID); err != nil {
		log.Errorw("failed to release billing event from ledger", "error", err)
	}
}
