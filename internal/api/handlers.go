package api

import (
	v1 "github.com/flexprice/grants/internal/api/v1"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Webhook *v1.WebhookHandler
}

func NewHandlers(health *v1.HealthHandler, webhook *v1.WebhookHandler) Handlers {
	return Handlers{
		Health:  health,
		Webhook: webhook,
	}
}
