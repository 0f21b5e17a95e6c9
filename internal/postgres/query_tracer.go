package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/sentry"
	"github.com/flexprice/grants/internal/types"
	sentrygo "github.com/getsentry/sentry-go"
)

// QueryTracer wraps database operations with tracing and logging
type QueryTracer struct {
	logger  *logger.Logger
	query   string
	params  interface{}
	start   time.Time
	eventID string
	span    *sentrygo.Span
}

// NewQueryTracer creates a new query tracer
func NewQueryTracer(ctx context.Context, logger *logger.Logger, sentrySvc *sentry.Service, query string, params interface{}) (*QueryTracer, context.Context) {
	qt := &QueryTracer{
		logger:  logger,
		query:   query,
		params:  params,
		start:   time.Now(),
		eventID: types.GetWebhookEventID(ctx),
	}
	if sentrySvc != nil {
		qt.span, ctx = sentrySvc.StartDBSpan(ctx, "postgres.query", map[string]interface{}{
			"query": query,
		})
	}
	return qt, ctx
}

// Done logs the query completion
func (qt *QueryTracer) Done(err error) {
	sentry.FinishSpan(qt.span)

	duration := time.Since(qt.start)
	fields := []interface{}{
		"duration_ms", duration.Milliseconds(),
		"query", qt.query,
		"params", fmt.Sprintf("%+v", qt.params),
	}
	if qt.eventID != "" {
		fields = append(fields, "event_id", qt.eventID)
	}
	if err != nil && err != sql.ErrNoRows {
		fields = append(fields, "error", err.Error())
		qt.logger.Errorw("database query failed", fields...)
		return
	}
	qt.logger.Debugw("database query completed", fields...)
}

// TracedQuerier wraps a Querier with tracing
type TracedQuerier struct {
	Querier
	logger *logger.Logger
	sentry *sentry.Service
}

// NewTracedQuerier creates a new traced querier
func NewTracedQuerier(q Querier, logger *logger.Logger, sentry *sentry.Service) *TracedQuerier {
	return &TracedQuerier{
		Querier: q,
		logger:  logger,
		sentry:  sentry,
	}
}

// ExecContext traces ExecContext calls
func (tq *TracedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	tracer, ctx := NewQueryTracer(ctx, tq.logger, tq.sentry, query, args)
	result, err := tq.Querier.ExecContext(ctx, query, args...)
	tracer.Done(err)
	return result, err
}

// NamedExecContext traces NamedExecContext calls
func (tq *TracedQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	tracer, ctx := NewQueryTracer(ctx, tq.logger, tq.sentry, query, arg)
	result, err := tq.Querier.NamedExecContext(ctx, query, arg)
	tracer.Done(err)
	return result, err
}

// QueryContext traces QueryContext calls
func (tq *TracedQuerier) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	tracer, ctx := NewQueryTracer(ctx, tq.logger, tq.sentry, query, args)
	rows, err := tq.Querier.QueryContext(ctx, query, args...)
	tracer.Done(err)
	return rows, err
}

// GetContext traces GetContext calls
func (tq *TracedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	tracer, ctx := NewQueryTracer(ctx, tq.logger, tq.sentry, query, args)
	err := tq.Querier.GetContext(ctx, dest, query, args...)
	tracer.Done(err)
	return err
}

// SelectContext traces SelectContext calls
func (tq *TracedQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	tracer, ctx := NewQueryTracer(ctx, tq.logger, tq.sentry, query, args)
	err := tq.Querier.SelectContext(ctx, dest, query, args...)
	tracer.Done(err)
	return err
}
