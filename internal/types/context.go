package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	HeaderRequestID = "X-Request-ID"
)

const (
	CtxRequestID      ContextKey = "ctx_request_id"
	CtxWebhookEventID ContextKey = "ctx_webhook_event_id"
)

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func GetWebhookEventID(ctx context.Context) string {
	if eventID, ok := ctx.Value(CtxWebhookEventID).(string); ok {
		return eventID
	}
	return ""
}

// SetWebhookEventID sets the provider event ID being processed in the context
func SetWebhookEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, CtxWebhookEventID, eventID)
}
