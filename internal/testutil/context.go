package testutil

import (
	"context"

	"github.com/flexprice/grants/internal/types"
)

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	ctx = types.SetWebhookEventID(ctx, "ev_test")
	return ctx
}
