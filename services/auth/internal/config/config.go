package config

import "github.com/Skotchmaster/snapcart/pkg/config"

type ServiceConfig struct {
	config.Config

	AllowAdminSignup bool
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "auth"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	return ServiceConfig{
		Config:           cfg,
		AllowAdminSignup: config.EnvBoolDefault("AUTH_ALLOW_ADMIN_SIGNUP", false),
	}
}
