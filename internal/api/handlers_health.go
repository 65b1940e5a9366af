// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	endpoint string
	sessions SessionManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, analysisEndpoint string, sessions SessionManager) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		endpoint: analysisEndpoint,
		sessions: sessions,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"version":          h.version,
		"sessions":         h.sessions.Count(),
		"analysisEndpoint": h.endpoint,
	})
}
