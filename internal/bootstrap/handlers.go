package bootstrap

import (
	"log/slog"
	"os"

	_ "github.com/eleven-am/transcript-demo/docs"
	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/playback"
	"github.com/eleven-am/transcript-demo/internal/settings"
	"github.com/eleven-am/transcript-demo/internal/usage"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	PlaybackHandler *playback.Handler
	FileHandler     *audiofile.Handler
	SettingsHandler *settings.Handler
	UsageHandler    *usage.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	params.PlaybackHandler.RegisterRoutes(api.Group("/sessions"))
	params.FileHandler.RegisterRoutes(api.Group("/files"))
	params.SettingsHandler.RegisterRoutes(api.Group("/settings"))
	params.UsageHandler.RegisterRoutes(api.Group("/metrics"))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvidePlaybackHandler(mgr *playback.Manager, logger *slog.Logger) *playback.Handler {
	return playback.NewHandler(mgr, logger.With("handler", "playback"))
}

func ProvideFileHandler(
	catalog *audiofile.Catalog,
	store *audiofile.Store,
	uploader *audiofile.Uploader,
	mgr *playback.Manager,
	usageStore *usage.Store,
	logger *slog.Logger,
) *audiofile.Handler {
	return audiofile.NewHandler(catalog, store, uploader, mgr, usageStore, logger.With("handler", "files"))
}

func ProvideSettingsHandler(store *settings.Store, logger *slog.Logger) *settings.Handler {
	return settings.NewHandler(store, logger.With("handler", "settings"))
}

func ProvideUsageHandler(store *usage.Store, logger *slog.Logger) *usage.Handler {
	return usage.NewHandler(store, logger.With("handler", "usage"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvidePlaybackHandler,
		ProvideFileHandler,
		ProvideSettingsHandler,
		ProvideUsageHandler,
	),
	fx.Invoke(RegisterRoutes),
)
