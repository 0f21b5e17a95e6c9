package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/types"
	"github.com/gin-gonic/gin"
)

const safeDetailsPrefix = "__json__:"

// ErrorResponse is the body written for any request that recorded an error on the gin context
type ErrorResponse struct {
	Success   bool        `json:"success"`
	RequestID string      `json:"request_id,omitempty"`
	Error     ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last error pushed with c.Error. Webhook routes never push
// errors, so in practice this only shapes health and routing failures.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := types.GetRequestID(c.Request.Context())
		status := ierr.HTTPStatusFromErr(err)

		log.Errorw("request failed",
			"path", c.FullPath(),
			"status", status,
			"request_id", requestID,
			"error", err)

		c.JSON(status, ErrorResponse{
			Success:   false,
			RequestID: requestID,
			Error: ErrorDetail{
				Display: displayMessage(err),
				Details: safeDetails(err),
			},
		})
	}
}

// GetAllHints is post-order, so the first non-empty hint is the innermost one
func displayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

func safeDetails(err error) map[string]any {
	var details map[string]any

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			raw, ok := strings.CutPrefix(payload, safeDetailsPrefix)
			if !ok {
				continue
			}

			var fields map[string]any
			if json.Unmarshal([]byte(raw), &fields) != nil {
				continue
			}
			if details == nil {
				details = make(map[string]any, len(fields))
			}
			for k, v := range fields {
				details[k] = v
			}
		}
	}

	return details
}
