package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrUnknownProduct = errors.New("unknown product")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(catalogServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(catalogServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type productResponse struct {
	ID    uuid.UUID       `json:"id"`
	Price decimal.Decimal `json:"price"`
}

// UnitPrice returns the current catalog price of a product.
func (c *Client) UnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products/"+productID.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	default:
		return decimal.Zero, fmt.Errorf("product lookup failed with status: %d", resp.StatusCode)
	}

	var p productResponse
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return decimal.Zero, fmt.Errorf("decode response: %w", err)
	}
	return p.Price, nil
}
