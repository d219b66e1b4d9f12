package app

import (
	"context"
	"fmt"

	"github.com/KarpovAlexandrGo/task-api/internal/repo/mongo"
	"github.com/KarpovAlexandrGo/task-api/internal/repo/postgres"
	"github.com/KarpovAlexandrGo/task-api/internal/repo/redis"
	"github.com/KarpovAlexandrGo/task-api/internal/usecase"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Store описывает хранилище задач с управляемым жизненным циклом соединения.
type Store interface {
	usecase.TaskRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*mongo.TaskRepository)(nil)
	_ Store = (*postgres.TaskRepository)(nil)
	_ Store = (*redis.TaskRepository)(nil)
)

// openStore создает клиент выбранного хранилища и проверяет соединение.
// Неудачная проверка только логируется, если не включен STORE_FAIL_FAST.
func openStore(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.StoreDriver {
	case DriverMongo:
		store, err = mongo.NewTaskRepository(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.StoreTimeout)
	case DriverPostgres:
		store, err = postgres.NewTaskRepository(ctx, cfg.PostgresDSN, cfg.StoreTimeout)
	case DriverRedis:
		store = redis.NewTaskRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StoreTimeout)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	entry := logger.Log.WithField("driver", cfg.StoreDriver)
	if err := store.Ping(ctx); err != nil {
		if cfg.StoreFailFast {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("store is unreachable: %w", err)
		}
		entry.WithError(err).Error("Store connection failed, continuing without it")
		return store, nil
	}

	entry.WithFields(logrus.Fields{"timeout": cfg.StoreTimeout.String()}).Info("Connected to store successfully")
	return store, nil
}
