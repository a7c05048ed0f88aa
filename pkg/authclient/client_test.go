package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
)

func TestResolveUser(t *testing.T) {
	id := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": id, "name": "Ann", "email": "ann@x.io", "isAdmin": true,
			})
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	p, err := c.ResolveUser(ctx, id, "good")
	require.NoError(t, err)
	require.Equal(t, &authmw.Principal{ID: id, Name: "Ann", Email: "ann@x.io", IsAdmin: true}, p)

	_, err = c.ResolveUser(ctx, id, "stale")
	require.ErrorIs(t, err, authmw.ErrUnknownUser)

	_, err = c.ResolveUser(ctx, uuid.New(), "good")
	require.ErrorIs(t, err, authmw.ErrUnknownUser)

	_, err = c.ResolveUser(ctx, id, "broken")
	require.Error(t, err)
	require.NotErrorIs(t, err, authmw.ErrUnknownUser)
}
