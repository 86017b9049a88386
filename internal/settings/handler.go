package settings

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/eleven-am/transcript-demo/internal/dto"
	"github.com/eleven-am/transcript-demo/internal/shared"
	"github.com/labstack/echo/v4"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/:client_id", h.Get)
	g.PUT("/:client_id", h.Update)
}

func (h *Handler) clientID(c echo.Context) (string, error) {
	id := c.Param("client_id")
	if !clientIDPattern.MatchString(id) {
		return "", shared.BadRequest("invalid_client_id", "client id must be 1-64 letters, digits, '-' or '_'")
	}
	return id, nil
}

// Get returns the saved player volume
// @Summary      Get player preferences
// @Tags         settings
// @Produce      json
// @Param        client_id path string true "Browser client ID"
// @Success      200 {object} dto.PreferencesResponse
// @Failure      400 {object} shared.APIError
// @Router       /settings/{client_id} [get]
func (h *Handler) Get(c echo.Context) error {
	id, err := h.clientID(c)
	if err != nil {
		return err
	}

	prefs, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("failed to load preferences", "error", err, "client_id", id)
		return shared.InternalError("get_failed", "failed to load preferences")
	}
	return c.JSON(http.StatusOK, dto.PreferencesResponse{ClientID: prefs.ClientID, Volume: prefs.Volume})
}

// Update saves the player volume
// @Summary      Update player preferences
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        client_id path string true "Browser client ID"
// @Param        request body dto.UpdatePreferencesRequest true "New volume"
// @Success      200 {object} dto.PreferencesResponse
// @Failure      400 {object} shared.APIError
// @Router       /settings/{client_id} [put]
func (h *Handler) Update(c echo.Context) error {
	id, err := h.clientID(c)
	if err != nil {
		return err
	}

	var req dto.UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Volume == nil {
		return shared.BadRequest("invalid_volume", "volume is required")
	}

	prefs, err := h.store.SetVolume(c.Request().Context(), id, *req.Volume)
	if errors.Is(err, ErrInvalidVolume) {
		return shared.BadRequest("invalid_volume", "volume must be between 0 and 100")
	}
	if err != nil {
		h.logger.Error("failed to save preferences", "error", err, "client_id", id)
		return shared.InternalError("update_failed", "failed to save preferences")
	}
	return c.JSON(http.StatusOK, dto.PreferencesResponse{ClientID: prefs.ClientID, Volume: prefs.Volume})
}
