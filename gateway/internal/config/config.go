package config

import (
	"github.com/Skotchmaster/snapcart/pkg/config"
)

type Config struct {
	ListenAddr string
	AuthURL    string
	CatalogURL string
	OrderURL   string
	JWTSecret  []byte
	LogLevel   string
}

func Load() *Config {
	base := config.Load()
	cfg := &Config{
		ListenAddr: config.EnvDefault("GATEWAY_ADDR", ":8080"),
		AuthURL:    base.AuthHTTPURL,
		CatalogURL: base.CatalogHTTPURL,
		OrderURL:   config.EnvDefault("ORDER_URL", ""),
		JWTSecret:  base.JWTSecret,
		LogLevel:   base.LogLevel,
	}

	config.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	config.MustNonEmpty(cfg.OrderURL, "ORDER_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	return cfg
}
