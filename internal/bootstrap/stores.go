package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/settings"
	"github.com/eleven-am/transcript-demo/internal/usage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideAudioFileStore(db *gorm.DB) *audiofile.Store {
	return audiofile.NewStore(db)
}

func ProvideUsageStore(redisClient *redis.Client) *usage.Store {
	return usage.NewStore(redisClient)
}

func ProvideSettingsStore(redisClient *redis.Client) *settings.Store {
	return settings.NewStore(redisClient)
}

func ProvideRemoteProvider(cfg *Config, client *http.Client) *audiofile.RemoteProvider {
	return audiofile.NewRemoteProvider(cfg.RemoteFilesURL, client)
}

func ProvideUploader(cfg *Config, store *audiofile.Store) *audiofile.Uploader {
	return audiofile.NewUploader(store, cfg.UploadDir, cfg.MaxUploadBytes())
}

func ProvideCatalog(store *audiofile.Store, remote *audiofile.RemoteProvider) *audiofile.Catalog {
	return audiofile.NewCatalog(store, remote)
}

func RunMigrations(store *audiofile.Store, cfg *Config, logger *slog.Logger) error {
	if err := store.Migrate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.SeedSamples(ctx, cfg.Samples); err != nil {
		return err
	}
	logger.Info("audio catalog ready", "samples", len(cfg.Samples))
	return nil
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideAudioFileStore,
		ProvideUsageStore,
		ProvideSettingsStore,
		ProvideRemoteProvider,
		ProvideUploader,
		ProvideCatalog,
	),
	fx.Invoke(RunMigrations),
)
