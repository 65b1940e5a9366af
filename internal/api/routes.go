// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions         SessionManager
	Renderer         ChartRenderer
	UploadTimeout    time.Duration
	AnalysisEndpoint string
	Version          string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Session SessionHandler
	Chart   ChartHandler
	Stream  StreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.AnalysisEndpoint, deps.Sessions),
		Session: NewSessionHandler(deps.Sessions, deps.UploadTimeout),
		Chart:   NewChartHandler(deps.Sessions, deps.Renderer),
		Stream:  NewWebSocketHandler(deps.Sessions),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Session lifecycle
	sessionGroup := apiGroup.Group("/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession)
	sessionGroup.GET("/:id", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessionGroup.POST("/:id/file", handlers.Session.HandleSelectFile)
	sessionGroup.POST("/:id/upload", handlers.Session.HandleSubmitUpload)

	// Charts
	sessionGroup.GET("/:id/charts", handlers.Chart.HandleGetCharts)
	sessionGroup.GET("/:id/charts/msgpack", handlers.Chart.HandleGetChartsMsgpack)
	sessionGroup.GET("/:id/charts/:chart", handlers.Chart.HandleGetChartImage)

	// Snapshot stream
	sessionGroup.GET("/:id/ws", handlers.Stream.HandleSessionStream)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, exposeErrorDetails bool) {
	showErrorDetails = exposeErrorDetails
	e.HTTPErrorHandler = ErrorHandler
}
