// handlers_session.go - Upload session handlers
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/diversityiq/backend/internal/models"
	"github.com/diversityiq/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions      SessionManager
	uploadTimeout time.Duration
}

// NewSessionHandler creates a new session handler. uploadTimeout bounds each
// analysis request; zero means no bound beyond the client's own.
func NewSessionHandler(sessions SessionManager, uploadTimeout time.Duration) SessionHandler {
	return &SessionHandlerImpl{
		sessions:      sessions,
		uploadTimeout: uploadTimeout,
	}
}

// HandleCreateSession starts a new idle session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	view := h.sessions.Create()
	return c.JSON(http.StatusCreated, view.Snapshot())
}

// HandleGetSession returns the current snapshot of a session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	view, err := lookupView(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.Snapshot())
}

// HandleDeleteSession drops a session
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if !h.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSelectFile records the multipart "file" field as the session's file
func (h *SessionHandlerImpl) HandleSelectFile(c echo.Context) error {
	view, err := lookupView(c, h.sessions)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	return c.JSON(http.StatusOK, view.Select(file.Filename, data))
}

// HandleSubmitUpload sends the selected file for analysis and waits for the
// outcome. The analysis keeps running if the client goes away.
func (h *SessionHandlerImpl) HandleSubmitUpload(c echo.Context) error {
	view, err := lookupView(c, h.sessions)
	if err != nil {
		return err
	}

	ctx := context.WithoutCancel(c.Request().Context())
	if h.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.uploadTimeout)
		defer cancel()
	}

	snap, err := view.Submit(ctx)
	if err != nil {
		return submitError(snap, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// submitError maps a Submit failure onto the notice the user should see.
func submitError(snap models.Snapshot, err error) *APIError {
	message := ""
	if snap.Notice != nil {
		message = snap.Notice.Message
	}

	switch {
	case errors.Is(err, upload.ErrNoFileSelected):
		return NewNoticeError(http.StatusBadRequest, string(models.NoticeNoFileSelected), message, nil)
	case errors.Is(err, upload.ErrUploadInProgress):
		return NewNoticeError(http.StatusConflict, "UPLOAD_IN_PROGRESS", "An upload is already in progress", nil)
	case errors.Is(err, upload.ErrUploadRejected):
		return NewNoticeError(http.StatusBadGateway, string(models.NoticeUploadRejected), message, err)
	default:
		return NewNoticeError(http.StatusBadGateway, string(models.NoticeUploadError), message, err)
	}
}

func lookupView(c echo.Context, sessions SessionManager) (*upload.View, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	view, ok := sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return view, nil
}
