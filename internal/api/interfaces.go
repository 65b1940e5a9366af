// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"io"

	"github.com/diversityiq/backend/internal/models"
	"github.com/diversityiq/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// SessionHandler handles the upload lifecycle of a browser session
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSelectFile(c echo.Context) error
	HandleSubmitUpload(c echo.Context) error
}

// ChartHandler serves the chart series derived from a session's report
type ChartHandler interface {
	HandleGetCharts(c echo.Context) error
	HandleGetChartsMsgpack(c echo.Context) error
	HandleGetChartImage(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// StreamHandler pushes session snapshots over a websocket
type StreamHandler interface {
	HandleSessionStream(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create() *upload.View
	Get(id string) (*upload.View, bool)
	Delete(id string) bool
	Count() int
}

// ChartRenderer draws a series as an image
type ChartRenderer interface {
	Render(w io.Writer, s models.Series) error
}
