package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/snapcart/pkg/authclient"
	"github.com/Skotchmaster/snapcart/pkg/catalogclient"
	pkgconfig "github.com/Skotchmaster/snapcart/pkg/config"
	pkgdb "github.com/Skotchmaster/snapcart/pkg/db"
	"github.com/Skotchmaster/snapcart/pkg/events"
	"github.com/Skotchmaster/snapcart/pkg/health"
	"github.com/Skotchmaster/snapcart/pkg/idempotency"
	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/snapcart/pkg/middleware/logging"
	"github.com/Skotchmaster/snapcart/pkg/mongodb"

	ordercfg "github.com/Skotchmaster/snapcart/services/order/internal/config"
	"github.com/Skotchmaster/snapcart/services/order/internal/httpserver"
	"github.com/Skotchmaster/snapcart/services/order/internal/repo"
	"github.com/Skotchmaster/snapcart/services/order/internal/service"
)

// openLedger connects the configured order store and returns its readiness check and closer.
func openLedger(ctx context.Context, cfg ordercfg.ServiceConfig) (repo.Repository, health.Check, func() error, error) {
	if cfg.Store == ordercfg.StoreMongo {
		mdb, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		ledger := repo.NewMongoRepo(mdb)
		if err := ledger.EnsureIndexes(ctx); err != nil {
			_ = mongodb.Disconnect(mdb)
			return nil, nil, nil, err
		}
		ready := func(ctx context.Context) error { return mdb.Client().Ping(ctx, nil) }
		return ledger, ready, func() error { return mongodb.Disconnect(mdb) }, nil
	}

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repo.Migrate(db); err != nil {
		_ = pkgdb.Close(db)
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	ready := func(ctx context.Context) error { return pkgdb.Ping(ctx, db) }
	return &repo.GormRepo{DB: db}, ready, func() error { return pkgdb.Close(db) }, nil
}

func main() {
	pkgconfig.LoadDotEnv(".env", "services/order/.env")

	cfg := ordercfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	ledger, ledgerReady, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("order store (%s): %v", cfg.Store, err)
	}
	ready := []health.Check{ledgerReady}

	var (
		keys     idempotency.Store
		redisCli *redis.Client
	)
	if cfg.RedisURL != "" {
		redisCli, err = idempotency.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cancel()
			log.Fatalf("redis: %v", err)
		}
		keys = idempotency.NewRedisStore(redisCli, cfg.IdempotencyTTL)
		ready = append(ready, func(ctx context.Context) error { return redisCli.Ping(ctx).Err() })
	} else {
		log.Printf("REDIS_URL not set, Idempotency-Key headers are ignored")
	}
	cancel()

	publisher, closePublisher := events.New(cfg.KafkaBrokers)

	svc := &service.OrderService{
		Repo:        ledger,
		Events:      publisher,
		Idempotency: keys,
		Options: service.Options{
			VerifyTotals:    cfg.VerifyTotals,
			TotalTolerance:  cfg.TotalTolerance,
			EmptyAsNotFound: cfg.EmptyAsNotFound,
		},
	}
	if cfg.CatalogHTTPURL != "" {
		svc.Prices = catalogclient.NewClient(cfg.CatalogHTTPURL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, httpserver.IdempotencyKeyHeader},
	}))

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: &httpserver.OrderHTTP{Svc: svc},
		Gate:         authmw.NewGate(cfg.JWTSecret, authclient.NewClient(cfg.AuthHTTPURL)),
		Ready:        ready,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("order listening on %s (store=%s)", srv.Addr, cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	if err := closePublisher(); err != nil {
		log.Printf("kafka close: %v", err)
	}
	if redisCli != nil {
		_ = redisCli.Close()
	}
	if err := closeLedger(); err != nil {
		log.Printf("order store close: %v", err)
	}

	log.Println("order stopped")
}
