package app

import (
	"context"
	"fmt"
	"log/slog"

	assetcache "github.com/zlecenia/c20scratch/internal/cache/asset"
	"github.com/zlecenia/c20scratch/internal/gateway/config"
	"github.com/zlecenia/c20scratch/internal/gateway/projectstore"
	"github.com/zlecenia/c20scratch/internal/gateway/repository/asset"
	"github.com/zlecenia/c20scratch/internal/safeio"
)

// initProjectStore prefers Postgres when a DSN is configured and falls
// back to the projects directory when the database is unreachable.
func initProjectStore(ctx context.Context, cfg *config.Config, dir *safeio.SafeFS, logger *slog.Logger) (projectstore.Store, func() error, error) {
	if cfg.ProjectStoreDSN == "" {
		return projectstore.NewFileStore(dir), nil, nil
	}
	pg, err := projectstore.NewPostgres(ctx, cfg.ProjectStoreDSN)
	if err != nil {
		logger.Warn("postgres project store unavailable, using files", "dir", dir.Root(), "error", err)
		return projectstore.NewFileStore(dir), nil, nil
	}
	logger.Info("project store: postgres")
	return pg, pg.Close, nil
}

// initAssetStore picks the asset backend. S3 sits behind a read-through
// cache. When S3 was only auto-detected and cannot be initialised, uploads
// fall back to the uploads directory.
func initAssetStore(cfg *config.Config, dir *safeio.SafeFS, logger *slog.Logger) (asset.Store, error) {
	switch cfg.Asset.Backend {
	case config.AssetBackendMemory:
		logger.Warn("asset store: memory, uploads are lost on restart")
		return asset.NewMemoryStore(), nil
	case config.AssetBackendFile:
		return asset.NewFileStore(dir), nil
	case config.AssetBackendS3:
		if !cfg.Asset.CanUseS3() {
			return nil, fmt.Errorf("ASSET_BACKEND=s3 requires endpoint, access key, secret key and bucket")
		}
		return newS3AssetStore(cfg, logger)
	}

	if !cfg.Asset.CanUseS3() {
		return asset.NewFileStore(dir), nil
	}
	store, err := newS3AssetStore(cfg, logger)
	if err != nil {
		logger.Warn("s3 asset store unavailable, using files", "dir", dir.Root(), "error", err)
		return asset.NewFileStore(dir), nil
	}
	return store, nil
}

func newS3AssetStore(cfg *config.Config, logger *slog.Logger) (asset.Store, error) {
	s3, err := asset.NewS3Store(asset.S3Config{
		Endpoint:  cfg.Asset.Endpoint,
		Region:    cfg.Asset.Region,
		AccessKey: cfg.Asset.AccessKey,
		SecretKey: cfg.Asset.SecretKey,
		Bucket:    cfg.Asset.Bucket,
		Prefix:    "uploads/",
		UseSSL:    cfg.Asset.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 asset store: %w", err)
	}
	logger.Info("asset store: s3", "endpoint", cfg.Asset.Endpoint, "bucket", cfg.Asset.Bucket)
	return assetcache.NewCachedStore(s3, assetcache.DefaultCacheConfig()), nil
}

func newDemoStore(dir string) projectstore.Reader {
	return projectstore.NewDemoStore(dir)
}
