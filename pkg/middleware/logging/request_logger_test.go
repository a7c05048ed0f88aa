package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLogger_SuccessAndHandlerLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithWriter(&buf, "info")

	e := echo.New()
	e.Use(RequestLogger(base))
	e.GET("/ping", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside_handler")
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "inside_handler", lines[0]["msg"])
	require.Equal(t, "rid-1", lines[0]["request_id"])
	require.Equal(t, "request completed", lines[1]["msg"])
	require.EqualValues(t, 200, lines[1]["status"])
	require.Equal(t, "INFO", lines[1]["level"])
}

func TestRequestLogger_HTTPErrorIsRenderedOnce(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "info")))
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Order not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Order not found"}`, rec.Body.String())

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "WARN", lines[0]["level"])
}

func TestRequestLogger_RecordsCaller(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "info")))

	id := uuid.New()
	e.GET("/orders/myOrders", func(c echo.Context) error {
		authmw.WithPrincipal(c, &authmw.Principal{ID: id})
		return c.NoContent(http.StatusOK)
	})
	e.GET("/api/orders", func(c echo.Context) error {
		c.Set("user_id", "from-gateway")
		return c.NoContent(http.StatusOK)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/myOrders", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, id.String(), lines[0]["user_id"])
	require.Equal(t, "from-gateway", lines[1]["user_id"])
}
