package config

import (
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snapcart/pkg/config"
	"github.com/Skotchmaster/snapcart/pkg/idempotency"
)

const (
	StoreSQL   = "sql"
	StoreMongo = "mongo"
)

type ServiceConfig struct {
	config.Config

	Store string

	VerifyTotals    bool
	TotalTolerance  decimal.Decimal
	EmptyAsNotFound bool

	IdempotencyTTL time.Duration
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}

	sc := ServiceConfig{
		Config:          cfg,
		Store:           config.EnvDefault("ORDER_STORE", StoreSQL),
		VerifyTotals:    config.EnvBoolDefault("ORDER_VERIFY_TOTALS", false),
		TotalTolerance:  decimal.NewFromFloat(0.01),
		EmptyAsNotFound: config.EnvBoolDefault("ORDER_EMPTY_AS_NOT_FOUND", false),
		IdempotencyTTL:  config.EnvDurationDefault("ORDER_IDEMPOTENCY_TTL", idempotency.DefaultTTL),
	}
	if v := os.Getenv("ORDER_TOTAL_TOLERANCE"); v != "" {
		tol, err := decimal.NewFromString(v)
		if err != nil || tol.IsNegative() {
			log.Fatalf("ORDER_TOTAL_TOLERANCE must be a non-negative decimal, got %q", v)
		}
		sc.TotalTolerance = tol
	}

	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustOneOf(sc.Store, "ORDER_STORE", StoreSQL, StoreMongo)

	switch sc.Store {
	case StoreSQL:
		config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	case StoreMongo:
		config.MustNonEmpty(cfg.MongoURI, "MONGODB_URI")
	}
	if sc.VerifyTotals {
		config.MustNonEmpty(cfg.CatalogHTTPURL, "CATALOG_URL")
	}

	return sc
}
