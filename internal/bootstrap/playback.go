package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/playback"
	"github.com/eleven-am/transcript-demo/internal/usage"
	"go.uber.org/fx"
)

func ProvidePlaybackManager(lc fx.Lifecycle, cfg *Config, catalog *audiofile.Catalog, usageStore *usage.Store, logger *slog.Logger) *playback.Manager {
	mgr := playback.NewManager(playback.ManagerConfig{
		Files: catalog,
		Usage: usageStore,
		Session: playback.Config{
			SourceText:   cfg.SourceText,
			WindowSize:   cfg.RevealWindowSize,
			TickInterval: cfg.TickInterval(),
		},
		Log: logger,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mgr.Close()
		},
	})
	return mgr
}

var PlaybackModule = fx.Options(
	fx.Provide(ProvidePlaybackManager),
)
