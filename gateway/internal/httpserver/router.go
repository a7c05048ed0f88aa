package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/gateway/internal/middleware"
	"github.com/Skotchmaster/snapcart/pkg/health"
)

type Deps struct {
	AuthURL    string
	CatalogURL string
	OrderURL   string

	JWTSecret []byte
}

var probeClient = &http.Client{Timeout: 2 * time.Second}

// upstreamLive reports whether an upstream answers its liveness probe.
func upstreamLive(base string) health.Check {
	url := strings.TrimRight(base, "/") + "/health/live"
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := probeClient.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: status %d", url, resp.StatusCode)
		}
		return nil
	}
}

func Register(e *echo.Echo, d *Deps) error {
	health.Register(e, upstreamLive(d.AuthURL), upstreamLive(d.CatalogURL), upstreamLive(d.OrderURL))

	authProxy, err := newProxy("auth", d.AuthURL, "/api/auth")
	if err != nil {
		return err
	}
	catalogProxy, err := newProxy("catalog", d.CatalogURL, "/api")
	if err != nil {
		return err
	}
	orderProxy, err := newProxy("order", d.OrderURL, "/api")
	if err != nil {
		return err
	}

	e.Any("/api/auth/*", authProxy)

	e.Any("/api/products", catalogProxy)
	e.Any("/api/products/*", catalogProxy)

	bearer := middleware.RequireBearer(d.JWTSecret)
	e.Any("/api/orders", orderProxy, bearer)
	e.Any("/api/orders/*", orderProxy, bearer)

	return nil
}
