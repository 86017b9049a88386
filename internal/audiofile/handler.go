package audiofile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/eleven-am/transcript-demo/internal/dto"
	"github.com/eleven-am/transcript-demo/internal/shared"
	"github.com/labstack/echo/v4"
)

// Notifier delivers a toast to an open playback session.
type Notifier interface {
	Notify(sessionID string, level shared.Level, message string) error
}

type UsageRecorder interface {
	IncrementUploads(ctx context.Context, n int64) error
	IncrementRemoteErrors(ctx context.Context) error
}

type Handler struct {
	catalog  *Catalog
	store    *Store
	uploader *Uploader
	notifier Notifier
	usage    UsageRecorder
	logger   *slog.Logger
}

func NewHandler(catalog *Catalog, store *Store, uploader *Uploader, notifier Notifier, usage UsageRecorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		catalog:  catalog,
		store:    store,
		uploader: uploader,
		notifier: notifier,
		usage:    usage,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/remote", h.ListRemote)
	g.POST("/upload", h.Upload)
	g.GET("/:id", h.Get)
	g.GET("/:id/content", h.Content)
	g.DELETE("/:id", h.Delete)
}

func ToResponse(f *AudioFile) dto.FileResponse {
	return dto.FileResponse{
		ID:          f.ID,
		Name:        f.Name,
		URL:         f.URL,
		Source:      string(f.Source),
		ContentType: f.ContentType,
		Size:        f.Size,
		CreatedAt:   f.CreatedAt,
	}
}

func filesToResponse(files []*AudioFile) dto.FileListResponse {
	resp := dto.FileListResponse{
		Files: make([]dto.FileResponse, len(files)),
		Count: len(files),
	}
	for i, f := range files {
		resp.Files[i] = ToResponse(f)
	}
	return resp
}

// List returns the stored catalog
// @Summary      List audio files
// @Description  Lists bundled samples and uploaded files. Filter with source=sample|upload|remote.
// @Tags         files
// @Produce      json
// @Param        source query string false "File source filter"
// @Success      200 {object} dto.FileListResponse
// @Failure      400 {object} shared.APIError "Unknown source"
// @Failure      502 {object} shared.APIError "Remote listing failed"
// @Router       /files [get]
func (h *Handler) List(c echo.Context) error {
	source := Source(c.QueryParam("source"))
	if source != "" && !source.Valid() {
		return shared.BadRequest("invalid_source", "source must be sample, upload or remote")
	}
	if source == SourceRemote {
		return h.ListRemote(c)
	}

	files, err := h.catalog.List(c.Request().Context(), source)
	if err != nil {
		h.logger.Error("failed to list files", "error", err, "source", source)
		return shared.InternalError("list_failed", "failed to list files")
	}
	return c.JSON(http.StatusOK, filesToResponse(files))
}

// ListRemote fetches the remote file listing
// @Summary      List remote audio files
// @Description  Fetches {filename, path} pairs from the configured endpoint. On failure the session given by session_id receives an error notification.
// @Tags         files
// @Produce      json
// @Param        session_id query string false "Playback session to notify on failure"
// @Success      200 {object} dto.FileListResponse
// @Failure      404 {object} shared.APIError "Remote listing not configured"
// @Failure      502 {object} shared.APIError "Remote listing failed"
// @Router       /files/remote [get]
func (h *Handler) ListRemote(c echo.Context) error {
	ctx := c.Request().Context()

	files, err := h.catalog.List(ctx, SourceRemote)
	if errors.Is(err, ErrRemoteDisabled) {
		return shared.NotFound("remote_disabled", "remote file list is not configured")
	}
	if err != nil {
		h.logger.Warn("remote file list failed", "error", err)
		if h.usage != nil {
			if uerr := h.usage.IncrementRemoteErrors(ctx); uerr != nil {
				h.logger.Warn("failed to record remote error", "error", uerr)
			}
		}
		h.notify(c.QueryParam("session_id"), shared.LevelError, "Failed to load remote audio files")
		return shared.BadGateway("remote_unavailable", "failed to load remote audio files")
	}
	return c.JSON(http.StatusOK, filesToResponse(files))
}

// Upload stores one or more audio files
// @Summary      Upload audio files
// @Description  Accepts audio/* files in the multipart field "files".
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        files formData file true "Audio files"
// @Param        session_id query string false "Playback session to notify"
// @Success      201 {object} dto.UploadResponse
// @Failure      400 {object} shared.APIError "No files or not audio"
// @Failure      413 {object} shared.APIError "File too large"
// @Failure      500 {object} shared.APIError "Upload failed"
// @Router       /files/upload [post]
func (h *Handler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return shared.BadRequest("invalid_form", "expected multipart form data")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return shared.BadRequest("missing_file", "at least one file is required")
	}

	for _, fh := range headers {
		if err := h.uploader.Check(fh); err != nil {
			return uploadError(err)
		}
	}

	ctx := c.Request().Context()
	saved := make([]*AudioFile, 0, len(headers))
	for _, fh := range headers {
		f, err := h.uploader.Save(ctx, fh)
		if err != nil {
			h.rollback(ctx, saved)
			if !errors.Is(err, ErrNotAudio) && !errors.Is(err, ErrFileTooLarge) {
				h.logger.Error("failed to save upload", "error", err, "filename", fh.Filename)
			}
			return uploadError(err)
		}
		saved = append(saved, f)
	}

	if h.usage != nil {
		if err := h.usage.IncrementUploads(ctx, int64(len(saved))); err != nil {
			h.logger.Warn("failed to record uploads", "error", err)
		}
	}

	message := fmt.Sprintf("%d file(s) uploaded successfully", len(saved))
	h.notify(c.QueryParam("session_id"), shared.LevelSuccess, message)

	resp := dto.UploadResponse{
		Files:   make([]dto.FileResponse, len(saved)),
		Message: message,
	}
	for i, f := range saved {
		resp.Files[i] = ToResponse(f)
	}
	return c.JSON(http.StatusCreated, resp)
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, ErrNotAudio):
		return shared.BadRequest("not_audio", err.Error())
	case errors.Is(err, ErrFileTooLarge):
		return shared.PayloadTooLarge("file_too_large", err.Error())
	default:
		return shared.InternalError("upload_failed", "failed to store upload")
	}
}

// rollback removes files saved earlier in a request that failed part way.
func (h *Handler) rollback(ctx context.Context, saved []*AudioFile) {
	for _, f := range saved {
		if err := h.uploader.Remove(context.WithoutCancel(ctx), f); err != nil {
			h.logger.Warn("failed to roll back upload", "error", err, "file_id", f.ID)
		}
	}
}

// @Summary      Get audio file
// @Tags         files
// @Produce      json
// @Param        id path string true "File ID"
// @Success      200 {object} dto.FileResponse
// @Failure      404 {object} shared.APIError "File not found"
// @Router       /files/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	f, err := h.catalog.Resolve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.lookupError(err)
	}
	return c.JSON(http.StatusOK, ToResponse(f))
}

// @Summary      Stream uploaded audio
// @Tags         files
// @Produce      octet-stream
// @Param        id path string true "File ID"
// @Success      200 {file} binary
// @Success      302 "Redirect to sample or remote URL"
// @Failure      404 {object} shared.APIError "File not found"
// @Router       /files/{id}/content [get]
func (h *Handler) Content(c echo.Context) error {
	f, err := h.catalog.Resolve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.lookupError(err)
	}

	if f.StoragePath == "" {
		return c.Redirect(http.StatusFound, f.URL)
	}
	if f.ContentType != "" {
		c.Response().Header().Set(echo.HeaderContentType, f.ContentType)
	}
	return c.File(f.StoragePath)
}

// @Summary      Delete uploaded audio
// @Tags         files
// @Param        id path string true "File ID"
// @Success      204
// @Failure      400 {object} shared.APIError "Only uploads can be deleted"
// @Failure      404 {object} shared.APIError "File not found"
// @Router       /files/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	f, err := h.store.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.lookupError(err)
	}
	if f.Source != SourceUpload {
		return shared.BadRequest("not_deletable", "only uploaded files can be deleted")
	}
	if err := h.uploader.Remove(ctx, f); err != nil {
		h.logger.Error("failed to delete upload", "error", err, "file_id", f.ID)
		return shared.InternalError("delete_failed", "failed to delete file")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) lookupError(err error) error {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return shared.NotFound("file_not_found", "file not found")
	case errors.Is(err, ErrRemoteDisabled):
		return shared.NotFound("file_not_found", "file not found")
	case errors.Is(err, shared.ErrUnavailable):
		return shared.BadGateway("remote_unavailable", "failed to load remote audio files")
	default:
		h.logger.Error("failed to get file", "error", err)
		return shared.InternalError("get_failed", "failed to get file")
	}
}

func (h *Handler) notify(sessionID string, level shared.Level, message string) {
	if sessionID == "" || h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(sessionID, level, message); err != nil {
		h.logger.Debug("notification not delivered", "session_id", sessionID, "error", err)
	}
}
