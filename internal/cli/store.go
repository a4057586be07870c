package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quizmaster/internal/app"
	"quizmaster/internal/config"
	"quizmaster/internal/infra/memory"
	pgstore "quizmaster/internal/infra/postgres"
	redisstore "quizmaster/internal/infra/redis"
	"quizmaster/internal/infra/sqlite"
	"quizmaster/internal/logging"
)

// backend bundles the repositories selected by storage.driver.
type backend struct {
	sets     app.QuestionSetRepository
	results  app.ResultRepository
	sessions app.SessionRepository
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend builds the repositories for cfg. Remote stores get a question-set
// cache in front: Redis when it is configured, process memory otherwise.
func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*backend, error) {
	b := &backend{}
	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 5*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var redisClient *redis.Client
	if cfg.Storage.Driver == config.DriverRedis || (cfg.Storage.Driver == config.DriverPostgres && cfg.Redis.Addr != "") {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		b.sets, b.results = store, store
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.sets, b.results = store, store
	case config.DriverRedis:
		store := redisstore.NewStore(redisClient)
		b.sets, b.results = store, store
	case config.DriverPostgres:
		if cfg.Postgres.URL == "" {
			b.Close()
			return nil, fmt.Errorf("postgres url not configured")
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		store := pgstore.NewStore(pool)
		b.results = store
		if redisClient != nil {
			b.sets = redisstore.NewQuestionSetCache(redisClient, store, cacheTTL)
		} else {
			b.sets = memory.NewQuestionSetCache(store, cacheTTL)
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if redisClient != nil {
		b.sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		b.sessions = memory.NewSessionStore()
	}

	logger.Info().Str("driver", cfg.Storage.Driver).Bool("redis", redisClient != nil).Msg("storage ready")
	return b, nil
}

// loadConfig reads the config file and builds the process logger from it.
func loadConfig(path string) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.App.Name, cfg.App.Env, cfg.App.LogLevel), nil
}
