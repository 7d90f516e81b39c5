package core

import (
	"context"
	"fmt"
	"log/slog"

	"exhibitcore/internal/blob"
	"exhibitcore/internal/config"
	"exhibitcore/internal/infra/persistence/blobstore"
	"exhibitcore/internal/infra/persistence/memory"
	"exhibitcore/internal/infra/persistence/postgres"
	"exhibitcore/internal/infra/persistence/redis"
	"exhibitcore/internal/infra/persistence/sqlite"
	"exhibitcore/pkg/domain"
)

// OpenGateway builds the persistence gateway named by cfg.Driver. An empty
// driver selects the blob snapshot gateway. The caller owns the returned
// gateway and must Close it.
func OpenGateway(ctx context.Context, cfg config.Storage, logger *slog.Logger) (domain.ClosableGateway, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverBlob
	}
	switch driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverBlob:
		store, err := blob.Open(ctx, blob.Config{
			Driver: blob.Driver(cfg.Blob.Driver),
			FSRoot: cfg.Blob.FSRoot,
			S3: blob.S3Config{
				Region:          cfg.Blob.S3.Region,
				Bucket:          cfg.Blob.S3.Bucket,
				Endpoint:        cfg.Blob.S3.Endpoint,
				AccessKeyID:     cfg.Blob.S3.AccessKeyID,
				SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
				PathStyle:       cfg.Blob.S3.PathStyle,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return blobstore.New(store, blobstore.Options{
			Prefix:  cfg.Blob.Prefix,
			Retain:  cfg.Blob.Retain,
			Lenient: cfg.Blob.Lenient,
			Logger:  logger.With("component", "blobstore", "driver", string(store.Driver())),
		}), nil
	case config.DriverSQLite:
		return sqlite.NewStore(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case config.DriverRedis:
		return redis.NewStore(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
