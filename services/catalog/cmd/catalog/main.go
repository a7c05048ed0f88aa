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

	"github.com/Skotchmaster/snapcart/pkg/authclient"
	pkgconfig "github.com/Skotchmaster/snapcart/pkg/config"
	pkgdb "github.com/Skotchmaster/snapcart/pkg/db"
	"github.com/Skotchmaster/snapcart/pkg/events"
	"github.com/Skotchmaster/snapcart/pkg/health"
	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/snapcart/pkg/middleware/logging"
	"github.com/Skotchmaster/snapcart/pkg/validate"

	catalogcfg "github.com/Skotchmaster/snapcart/services/catalog/internal/config"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/httpserver"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/repo"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/service"
)

func main() {
	pkgconfig.LoadDotEnv(".env", "services/catalog/.env")

	cfg := catalogcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	publisher, closePublisher := events.New(cfg.KafkaBrokers)

	svc := &service.CatalogService{Repo: &repo.GormRepo{DB: db}, Events: publisher}
	handler := &httpserver.CatalogHTTP{Svc: svc}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: handler,
		Gate:           authmw.NewGate(cfg.JWTSecret, authclient.NewClient(cfg.AuthHTTPURL)),
		Ready: []health.Check{
			func(ctx context.Context) error { return pkgdb.Ping(ctx, db) },
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("catalog listening on %s", srv.Addr)
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
	_ = pkgdb.Close(db)

	log.Println("catalog stopped")
}
