package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/types"
	"github.com/gin-gonic/gin"
)

// EventHandler processes a decoded Chargebee event
type EventHandler interface {
	HandleWebhookEvent(ctx context.Context, event *chargebee.Event) error
	HandleAddonWebhookEvent(ctx context.Context, event *chargebee.Event) error
}

type WebhookHandler struct {
	events EventHandler
	logger *logger.Logger
}

func NewWebhookHandler(events EventHandler, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		events: events,
		logger: logger,
	}
}

// HandleChargebeeWebhook receives the primary billing events
func (h *WebhookHandler) HandleChargebeeWebhook(c *gin.Context) {
	h.handle(c, h.events.HandleWebhookEvent)
}

// HandleChargebeeAddonWebhook receives the addon integration events
func (h *WebhookHandler) HandleChargebeeAddonWebhook(c *gin.Context) {
	h.handle(c, h.events.HandleAddonWebhookEvent)
}

func (h *WebhookHandler) handle(c *gin.Context, process func(ctx context.Context, event *chargebee.Event) error) {
	// Always return 200 OK to Chargebee to prevent retries
	// We log errors internally but don't expose them to Chargebee
	defer func() {
		c.JSON(http.StatusOK, gin.H{
			"message": "Webhook received",
		})
	}()

	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("failed to read request body",
			"error", err,
			"request_id", types.GetRequestID(ctx))
		return
	}

	var event chargebee.Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Errorw("failed to parse Chargebee webhook event",
			"error", err,
			"request_id", types.GetRequestID(ctx),
			"body_size", len(body))
		return
	}

	if err := process(ctx, &event); err != nil {
		h.logger.Errorw("failed to process Chargebee webhook event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.EventType)
	}
}
