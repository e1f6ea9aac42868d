// Package app сборка зависимостей из конфига и запуск процессов.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gogazub/miniapp-checkout/internal/api"
	"github.com/gogazub/miniapp-checkout/internal/backend"
	"github.com/gogazub/miniapp-checkout/internal/catalog"
	"github.com/gogazub/miniapp-checkout/internal/checkout"
	"github.com/gogazub/miniapp-checkout/internal/config"
	"github.com/gogazub/miniapp-checkout/internal/consumer"
	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/events"
	"github.com/gogazub/miniapp-checkout/internal/metro"
	"github.com/gogazub/miniapp-checkout/internal/money"
	repo "github.com/gogazub/miniapp-checkout/internal/repository"
	svc "github.com/gogazub/miniapp-checkout/internal/service"
	"github.com/gogazub/miniapp-checkout/internal/session"
)

// Options что запускать вместе с http сервером.
type Options struct {
	// WithConsumer читать журнал из kafka и писать в postgres
	WithConsumer bool
}

// NewLogger production логгер с уровнем из конфига.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// Run поднимает все по конфигу и блокируется до отмены ctx или первой ошибки.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) error {
	registry, lookup, err := loadReferences(cfg)
	if err != nil {
		return err
	}

	client := backend.New(cfg.BackendURL, log.Named("backend"), backend.Options{Timeout: cfg.BackendTimeout})

	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// каталог работает и без кэша
			log.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			cache = catalog.NewRedisCache(rdb, cfg.CatalogTTL)
		}
	}
	catalogSvc := catalog.NewService(client, cache, log.Named("catalog"))

	sessions, err := session.NewStore(cfg.SessionCapacity, log.Named("session"))
	if err != nil {
		return err
	}

	var recorder checkout.Recorder
	if cfg.JournalEnabled() {
		pub := events.NewPublisher(events.NewWriter(events.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}), log.Named("events"))
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("close kafka writer", zap.Error(err))
			}
		}()
		recorder = pub
	}
	checkoutSvc := checkout.NewService(checkout.NewEngine(registry, lookup), client, recorder, log.Named("checkout"))

	var journal svc.IService
	if cfg.DB.Enabled() {
		db, err := connectToDB(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		j, err := createJournal(ctx, db, log.Named("journal"))
		if err != nil {
			return err
		}
		journal = j
	}

	srv := api.NewServer(api.Deps{
		Backend:   client,
		Catalog:   catalogSvc,
		Checkout:  checkoutSvc,
		Sessions:  sessions,
		Journal:   journal,
		Formatter: money.NewFormatter(cfg.Currency, cfg.MoneyPlaces),
		Log:       log.Named("api"),
		Timeout:   cfg.BackendTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx, ":"+cfg.ServerPort)
	})

	if opts.WithConsumer {
		if journal == nil || !cfg.JournalEnabled() {
			log.Warn("journal consumer needs both kafka and postgres, not started")
		} else {
			c := consumer.NewConsumer(journal, consumer.NewReader(consumer.Config{
				Brokers:  cfg.KafkaBrokers,
				Topic:    cfg.KafkaTopic,
				GroupID:  cfg.KafkaGroup,
				MinBytes: 10e3,
				MaxBytes: 10e6,
			}), log.Named("consumer"))
			g.Go(func() error {
				defer c.Close()
				log.Info("journal consumer started", zap.String("topic", cfg.KafkaTopic))
				if err := c.Start(gctx); err != nil && gctx.Err() == nil {
					return err
				}
				return nil
			})
		}
	}

	err = g.Wait()
	// фоновые записи журнала должны уйти до закрытия writer
	checkoutSvc.Wait()
	return err
}

func loadReferences(cfg *config.Config) (*delivery.Registry, *metro.Lookup, error) {
	dcfg, err := delivery.LoadConfig(cfg.DeliveryConfig)
	if err != nil {
		return nil, nil, err
	}
	registry, err := delivery.NewRegistry(dcfg)
	if err != nil {
		return nil, nil, err
	}
	lookup, err := metro.Load(cfg.MetroConfig)
	if err != nil {
		return nil, nil, err
	}
	return registry, lookup, nil
}

// connectToDB открывает postgres и проверяет соединение.
func connectToDB(ctx context.Context, cfg config.DB) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// createJournal репозитории журнала и сервис над ними. Кэш прогревается последними записями.
func createJournal(ctx context.Context, db *sql.DB, log *zap.Logger) (*svc.Service, error) {
	psqlRepo := repo.NewJournalRepository(db, log)
	if err := psqlRepo.Migrate(ctx); err != nil {
		return nil, err
	}
	cacheRepo, err := repo.NewCacheRepository(repo.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	cacheRepo.Warm(ctx, psqlRepo, repo.DefaultCacheSize, log)
	return svc.NewService(psqlRepo, cacheRepo, log), nil
}
