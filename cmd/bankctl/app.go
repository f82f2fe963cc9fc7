package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	fileRepo "github.com/iho/bankledger/internal/adapter/repository/file"
	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/infrastructure/auth"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/eventpublisher"
	"github.com/iho/bankledger/internal/infrastructure/ids"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/redis"
	"github.com/iho/bankledger/internal/infrastructure/retry"
	"github.com/iho/bankledger/internal/usecase"
)

// app owns the ledger and everything it depends on for one invocation.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	ledger   *usecase.LedgerUseCase
	sessions *auth.JWTManager
	metrics  *metrics.Metrics
	closers  []func() error
}

func openApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: logOut}),
		metrics: metrics.New(),
	}

	store, retryable, err := a.openStore(ctx)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	publisher, err := a.openPublisher()
	if err != nil {
		a.closeResources()
		return nil, err
	}

	a.ledger = usecase.NewLedgerUseCase(usecase.LedgerConfig{
		Store:     store,
		Publisher: publisher,
		Retrier: retry.New(retry.Config{
			MaxRetries:      cfg.SaveMaxRetries,
			InitialInterval: cfg.SaveInitialInterval,
			MaxElapsedTime:  cfg.SaveMaxElapsed,
			Retryable:       retryable,
			Logger:          a.logger,
		}),
		IDGen:          ids.NewULIDGenerator(),
		Metrics:        a.metrics,
		Logger:         a.logger,
		CredentialCost: cfg.BcryptCost,
	})

	result, err := a.ledger.Open(ctx, usecase.OpenOptions{ResetOnCorrupt: cfg.ResetOnCorrupt})
	if err != nil {
		a.closeResources()
		return nil, err
	}

	a.logger.Debug().
		Str("backend", cfg.StorageBackend).
		Str("status", string(result.Status)).
		Int("accounts", result.Accounts).
		Msg("ledger loaded")

	if cfg.SessionsEnabled() {
		a.sessions = auth.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL)
	}

	return a, nil
}

// openStore returns the configured store and the classifier its save
// errors should be retried with.
func (a *app) openStore(ctx context.Context) (usecase.Store, func(error) bool, error) {
	switch a.cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    a.cfg.DatabaseURL,
			MaxConns:       a.cfg.DatabaseMaxConns,
			MinConns:       a.cfg.DatabaseMinConns,
			ConnectTimeout: a.cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		if err := postgres.RunMigrations(a.cfg.DatabaseURL, a.logger); err != nil {
			return nil, nil, err
		}

		return postgresRepo.NewStore(pool), postgresRepo.IsRetryableError, nil

	case config.StorageRedis:
		client, err := redis.NewClient(ctx, a.cfg.RedisURL, a.cfg.DatabaseTimeout)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client.Close)

		return redisRepo.NewStore(client, a.cfg.RedisKey), nil, nil

	case config.StorageFile:
		return fileRepo.NewStore(a.cfg.DataFile), nil, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", a.cfg.StorageBackend)
}

func (a *app) openPublisher() (usecase.Publisher, error) {
	switch a.cfg.EventsBackend {
	case config.EventsLog:
		return eventpublisher.NewLogPublisher(a.logger), nil

	case config.EventsKafka:
		publisher, err := eventpublisher.NewKafkaPublisher(eventpublisher.KafkaConfig{
			Brokers: a.cfg.KafkaBrokers,
			Topic:   a.cfg.KafkaTopic,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)

		return publisher, nil
	}

	return nil, nil
}

// close saves any state a failed save left behind, exports metrics and
// releases connections. The returned error is the flush failure, if any.
func (a *app) close(ctx context.Context) error {
	var err error
	if a.ledger.Dirty() {
		err = a.ledger.Flush(ctx)
	}

	if a.cfg.MetricsTextfile != "" {
		if werr := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); werr != nil {
			a.logger.Warn().Err(werr).Str("path", a.cfg.MetricsTextfile).Msg("failed to write metrics")
		}
	}

	a.closeResources()

	return err
}

func (a *app) closeResources() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Msg("failed to close resource")
		}
	}
	a.closers = nil
}
