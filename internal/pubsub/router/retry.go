package router

import (
	"net"

	"github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
)

// shouldRetry decides whether a failed notification is worth another delivery attempt
func shouldRetry(logger *logger.Logger, err error) bool {
	// Network errors
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	// Bad payloads and disabled sinks fail the same way every time
	if errors.IsValidation(err) || errors.Is(err, errors.ErrInvalidOperation) {
		logger.Debugw("non-retryable error", "error", err)
		return false
	}

	return errors.Is(err, errors.ErrHTTPClient)
}
