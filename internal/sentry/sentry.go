package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/types"
	"github.com/getsentry/sentry-go"
	"go.uber.org/fx"
)

type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// RegisterHooks registers lifecycle hooks for Sentry
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !svc.cfg.Sentry.Enabled {
				svc.logger.Info("Sentry is disabled")
				return nil
			}

			err := sentry.Init(sentry.ClientOptions{
				Dsn:              svc.cfg.Sentry.DSN,
				Environment:      svc.cfg.Sentry.Environment,
				EnableTracing:    true,
				TracesSampleRate: svc.cfg.Sentry.SampleRate,
				TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
					if ctx.Span.Name == "GET /health" {
						return 0.0
					}
					return svc.cfg.Sentry.SampleRate
				}),
			})
			if err != nil {
				svc.logger.Errorw("Failed to initialize Sentry", "error", err)
				return err
			}
			svc.logger.Infow("Sentry initialized successfully",
				"environment", svc.cfg.Sentry.Environment,
				"sample_rate", svc.cfg.Sentry.SampleRate,
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if svc.cfg.Sentry.Enabled {
				svc.logger.Info("Flushing Sentry events before shutdown")
				sentry.Flush(2 * time.Second)
			}
			return nil
		},
	})
}

// NewSentryService creates a new Sentry service
func NewSentryService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// CaptureException captures an error in Sentry
func (s *Service) CaptureException(err error) {
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.CaptureException(err)
}

// CaptureWebhookException captures an error raised while handling a billing event,
// tagged with the provider event and the request it arrived on
func (s *Service) CaptureWebhookException(ctx context.Context, err error, eventType string) {
	if !s.cfg.Sentry.Enabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("event_type", eventType)
		if eventID := types.GetWebhookEventID(ctx); eventID != "" {
			scope.SetTag("event_id", eventID)
		}
		if requestID := types.GetRequestID(ctx); requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		sentry.CaptureException(err)
	})
}

// AddBreadcrumb adds a breadcrumb to the current scope
func (s *Service) AddBreadcrumb(category, message string, data map[string]interface{}) {
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Level:    sentry.LevelInfo,
		Data:     data,
	})
}

// StartDBSpan starts a new database span in the current transaction
func (s *Service) StartDBSpan(ctx context.Context, operation string, params map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, operation)
	span.Description = operation
	span.Op = "db.postgres"
	for k, v := range params {
		span.SetData(k, v)
	}

	return span, span.Context()
}

// MonitorWebhookProcessing tracks the handling of one billing event, tagging the
// delivery lag between the provider emitting it and this service receiving it
func (s *Service) MonitorWebhookProcessing(ctx context.Context, eventType string, occurredAt time.Time) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, "webhook.process")
	span.Description = "Processing billing event"
	span.Op = "webhook.process"
	span.SetData("event_type", eventType)

	if !occurredAt.IsZero() {
		lag := time.Since(occurredAt)
		span.SetData("lag_ms", lag.Milliseconds())

		if tx := sentry.TransactionFromContext(ctx); tx != nil {
			tx.SetTag("webhook.lag.ms", fmt.Sprintf("%d", lag.Milliseconds()))

			// Provider redeliveries show up as large lags
			if lag >= time.Hour {
				tx.SetTag("webhook.lag.severity", "critical")
			} else if lag >= 5*time.Minute {
				tx.SetTag("webhook.lag.severity", "warning")
			} else {
				tx.SetTag("webhook.lag.severity", "normal")
			}
		}
	}

	return span, span.Context()
}

// FinishSpan finishes a span returned by one of the Start helpers, nil safe
func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}
