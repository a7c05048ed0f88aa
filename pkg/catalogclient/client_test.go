package catalogclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUnitPrice(t *testing.T) {
	known := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/"+known.String() {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id":%q,"name":"Mug","price":12.5,"stock":3}`, known.String())
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	price, err := c.UnitPrice(context.Background(), known)
	require.NoError(t, err)
	require.Equal(t, "12.5", price.String())

	_, err = c.UnitPrice(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrUnknownProduct)
}
