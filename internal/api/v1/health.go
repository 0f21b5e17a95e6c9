package v1

import (
	"context"
	"net/http"

	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/gin-gonic/gin"
)

// Pinger checks a backing dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *logger.Logger
}

func NewHealthHandler(
	db Pinger,
	logger *logger.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// Health reports ok once the database answers
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			h.logger.Errorw("health check failed", "error", err)
			c.Error(ierr.WithError(err).
				WithHint("Database is unavailable").
				Mark(ierr.ErrDatabase))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
