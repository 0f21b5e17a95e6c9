package logger

import (
	"github.com/ThreeDotsLabs/watermill"
)

type watermillAdapter struct {
	log *Logger
}

// Watermill adapts the logger for watermill publishers and routers
func (l *Logger) Watermill() watermill.LoggerAdapter {
	return &watermillAdapter{log: l}
}

func (a *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Errorw(msg, append(keyvals(fields), "error", err)...)
}

func (a *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Infow(msg, keyvals(fields)...)
}

func (a *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, keyvals(fields)...)
}

// Trace is very chatty in the router, so it is folded into debug
func (a *watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, keyvals(fields)...)
}

func (a *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillAdapter{log: a.log.With(keyvals(fields)...)}
}

func keyvals(fields watermill.LogFields) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
