// handlers_charts.go - Chart series and image handlers
package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/diversityiq/backend/internal/models"
	"github.com/diversityiq/backend/internal/report"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const mimeMsgpack = "application/msgpack"

// ChartHandlerImpl implements the ChartHandler interface
type ChartHandlerImpl struct {
	sessions SessionManager
	renderer ChartRenderer
}

// NewChartHandler creates a new chart handler
func NewChartHandler(sessions SessionManager, renderer ChartRenderer) ChartHandler {
	return &ChartHandlerImpl{
		sessions: sessions,
		renderer: renderer,
	}
}

// HandleGetCharts returns both chart series as JSON, or msgpack when asked for
func (h *ChartHandlerImpl) HandleGetCharts(c echo.Context) error {
	series, err := h.series(c)
	if err != nil {
		return err
	}
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack) {
		return encodeMsgpack(c, series)
	}
	return c.JSON(http.StatusOK, series)
}

// HandleGetChartsMsgpack returns both chart series as msgpack
func (h *ChartHandlerImpl) HandleGetChartsMsgpack(c echo.Context) error {
	series, err := h.series(c)
	if err != nil {
		return err
	}
	return encodeMsgpack(c, series)
}

// HandleGetChartImage renders "gender.png" or "ethnicity.png"
func (h *ChartHandlerImpl) HandleGetChartImage(c echo.Context) error {
	name := strings.TrimSuffix(c.Param("chart"), ".png")

	series, err := h.series(c)
	if err != nil {
		return err
	}

	var s models.Series
	switch name {
	case "gender":
		s = series.Gender
	case "ethnicity":
		s = series.Ethnicity
	default:
		return NewNotFoundError("chart", c.Param("chart"))
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, s); err != nil {
		return NewInternalError("failed to render chart", err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (h *ChartHandlerImpl) series(c echo.Context) (models.ChartSeries, error) {
	view, err := lookupView(c, h.sessions)
	if err != nil {
		return models.ChartSeries{}, err
	}
	r, ok := view.Report()
	if !ok {
		return models.ChartSeries{}, NewNoReportError(view.ID())
	}
	return report.DeriveChartSeries(r), nil
}

func encodeMsgpack(c echo.Context, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, mimeMsgpack, data)
}
