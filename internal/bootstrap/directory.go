package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/go-accounts-backend/config"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/storage/redisstore"
)

// OpenDirectory connects the directory backend selected by DIRECTORY_BACKEND.
// The returned close function releases the underlying connection.
func OpenDirectory(ctx context.Context, cfg *config.Config) (directory.Directory, func() error, error) {
	switch cfg.Directory.Backend {
	case config.BackendMemory:
		return directory.NewMemory(), func() error { return nil }, nil

	case config.BackendPostgres:
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewDirectory(db), db.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return redisstore.NewDirectory(client), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown directory backend %q", cfg.Directory.Backend)
}
