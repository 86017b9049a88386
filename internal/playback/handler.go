package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/dto"
	"github.com/eleven-am/transcript-demo/internal/shared"
	"github.com/labstack/echo/v4"
)

var errInvalidCommand = errors.New("invalid command")

type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/play", h.Play)
	g.POST("/:id/pause", h.Pause)
	g.POST("/:id/reset", h.Reset)
	g.POST("/:id/select", h.Select)
	g.GET("/:id/events", h.Events)
	g.GET("/:id/ws", h.WebSocket)
}

func sessionToResponse(s *Session) dto.SessionResponse {
	view := s.View()
	resp := dto.SessionResponse{
		ID:         s.ID(),
		Transcript: &view,
	}
	if f := s.File(); f != nil {
		file := audiofile.ToResponse(f)
		resp.File = &file
	}
	return resp
}

func (h *Handler) session(c echo.Context) (*Session, error) {
	s, ok := h.manager.Get(c.Param("id"))
	if !ok {
		return nil, shared.NotFound("session_not_found", "session not found")
	}
	return s, nil
}

// Create opens a playback session
// @Summary      Create playback session
// @Description  Opens a session with the first bundled sample selected.
// @Tags         sessions
// @Produce      json
// @Success      201 {object} dto.SessionResponse
// @Failure      500 {object} shared.APIError
// @Router       /sessions [post]
func (h *Handler) Create(c echo.Context) error {
	s, err := h.manager.Create(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		return shared.InternalError("create_failed", "failed to create session")
	}
	return c.JSON(http.StatusCreated, sessionToResponse(s))
}

// @Summary      List playback sessions
// @Tags         sessions
// @Produce      json
// @Success      200 {object} dto.SessionListResponse
// @Router       /sessions [get]
func (h *Handler) List(c echo.Context) error {
	sessions := h.manager.Sessions()
	resp := dto.SessionListResponse{
		Sessions: make([]dto.SessionResponse, len(sessions)),
		Count:    len(sessions),
	}
	for i, s := range sessions {
		resp.Sessions[i] = sessionToResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// @Summary      Get playback session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} shared.APIError
// @Router       /sessions/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionToResponse(s))
}

// @Summary      Close playback session
// @Tags         sessions
// @Param        id path string true "Session ID"
// @Success      204
// @Failure      404 {object} shared.APIError
// @Router       /sessions/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	if !h.manager.Remove(c.Param("id")) {
		return shared.NotFound("session_not_found", "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// Play starts or resumes the simulated transcript
// @Summary      Play
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.TranscriptView
// @Failure      404 {object} shared.APIError
// @Failure      409 {object} shared.APIError "No file selected"
// @Router       /sessions/{id}/play [post]
func (h *Handler) Play(c echo.Context) error {
	return h.control(c, CommandPlay)
}

// @Summary      Pause
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.TranscriptView
// @Failure      404 {object} shared.APIError
// @Router       /sessions/{id}/pause [post]
func (h *Handler) Pause(c echo.Context) error {
	return h.control(c, CommandPause)
}

// @Summary      Reset transcript
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.TranscriptView
// @Failure      404 {object} shared.APIError
// @Router       /sessions/{id}/reset [post]
func (h *Handler) Reset(c echo.Context) error {
	return h.control(c, CommandReset)
}

// Select switches the session to another file
// @Summary      Select file
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body dto.SelectFileRequest true "File to select"
// @Success      200 {object} dto.SessionResponse
// @Failure      400 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Failure      502 {object} shared.APIError "Remote listing failed"
// @Router       /sessions/{id}/select [post]
func (h *Handler) Select(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req dto.SelectFileRequest
	if err := c.Bind(&req); err != nil || req.FileID == "" {
		return shared.BadRequest("invalid_request", "file_id is required")
	}

	if err := h.apply(c.Request().Context(), s, Command{Type: CommandSelect, FileID: req.FileID}); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, sessionToResponse(s))
}

func (h *Handler) control(c echo.Context, t CommandType) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := h.apply(c.Request().Context(), s, Command{Type: t}); err != nil {
		if !errors.Is(err, ErrNoFileSelected) && !errors.Is(err, ErrSessionClosed) {
			h.logger.Error("playback command failed", "error", err, "command", t, "session_id", s.ID())
		}
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, s.View())
}

// apply runs one control command. REST and WebSocket clients share it.
func (h *Handler) apply(ctx context.Context, s *Session, cmd Command) error {
	switch cmd.Type {
	case CommandPlay:
		return s.SetPlaying(ctx, true)
	case CommandPause:
		return s.SetPlaying(ctx, false)
	case CommandReset:
		return s.Reset(ctx)
	case CommandSelect:
		if cmd.FileID == "" {
			return errInvalidCommand
		}
		f, err := h.manager.Resolve(ctx, cmd.FileID)
		if err != nil {
			if errors.Is(err, shared.ErrUnavailable) {
				h.logger.Warn("remote file lookup failed", "error", err, "session_id", s.ID())
				s.Notify(shared.LevelError, "Failed to load remote audio files")
			}
			return err
		}
		return s.Select(f)
	default:
		return fmt.Errorf("%w: %q", errInvalidCommand, cmd.Type)
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNoFileSelected):
		return shared.Conflict("no_file_selected", "Please select an audio file first")
	case errors.Is(err, ErrSessionClosed):
		return shared.NotFound("session_not_found", "session not found")
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, audiofile.ErrRemoteDisabled):
		return shared.NotFound("file_not_found", "file not found")
	case errors.Is(err, shared.ErrUnavailable):
		return shared.BadGateway("remote_unavailable", "failed to load remote audio files")
	case errors.Is(err, errInvalidCommand):
		return shared.BadRequest("invalid_command", err.Error())
	default:
		return shared.InternalError("playback_failed", "playback command failed")
	}
}

func errorEvent(sessionID string, err error) Event {
	msg := "playback command failed"
	switch {
	case errors.Is(err, ErrNoFileSelected):
		msg = "Please select an audio file first"
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, audiofile.ErrRemoteDisabled):
		msg = "file not found"
	case errors.Is(err, shared.ErrUnavailable):
		msg = "Failed to load remote audio files"
	case errors.Is(err, errInvalidCommand):
		msg = err.Error()
	}
	return Event{
		Type:      EventNotification,
		SessionID: sessionID,
		Payload:   dto.Notification{Level: string(shared.LevelError), Message: msg},
		Timestamp: time.Now().UTC(),
	}
}

// Events streams session events over SSE
// @Summary      Session event stream
// @Description  Server-sent events: state, notification and file_selected.
// @Tags         sessions
// @Produce      text/event-stream
// @Param        id path string true "Session ID"
// @Success      200
// @Failure      404 {object} shared.APIError
// @Router       /sessions/{id}/events [get]
func (h *Handler) Events(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	stream, err := newSSEStream(c.Response())
	if err != nil {
		h.logger.Error("failed to create SSE stream", "error", err)
		return shared.InternalError("stream_unsupported", "streaming not supported")
	}

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	if err := stream.writeEvent(Event{Type: EventState, SessionID: s.ID(), Payload: s.View(), Timestamp: time.Now().UTC()}); err != nil {
		return nil
	}

	h.logger.Debug("event stream opened", "session_id", s.ID())
	_ = stream.Run(c.Request().Context(), events)
	h.logger.Debug("event stream closed", "session_id", s.ID())
	return nil
}

// WebSocket streams session events and accepts control commands
// @Summary      Session WebSocket
// @Description  Pushes the same events as the SSE stream and accepts {"type":"play|pause|reset|select","file_id":"..."} commands.
// @Tags         sessions
// @Param        id path string true "Session ID"
// @Success      101
// @Failure      404 {object} shared.APIError
// @Router       /sessions/{id}/ws [get]
func (h *Handler) WebSocket(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return nil
	}

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	conn := newWSConn(ws, events, h.logger.With("session_id", s.ID()))
	conn.reply(Event{Type: EventState, SessionID: s.ID(), Payload: s.View(), Timestamp: time.Now().UTC()})

	h.logger.Info("websocket client connected", "session_id", s.ID())

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()

	go conn.writePump()
	conn.readPump(ctx,
		func(ctx context.Context, cmd Command) error { return h.apply(ctx, s, cmd) },
		func(err error) Event { return errorEvent(s.ID(), err) },
	)

	h.logger.Info("websocket client disconnected", "session_id", s.ID())
	return nil
}
