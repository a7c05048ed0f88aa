package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/snapcart/pkg/events"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/models"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/repo"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func wrapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: Product not found", ErrNotFound)
	}
	return err
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	return p, wrapNotFound(err)
}

func (s *CatalogService) ListProducts(ctx context.Context, q transport.ListProductsQuery) ([]models.Product, error) {
	q.Category = strings.TrimSpace(q.Category)
	return s.Repo.ListProducts(ctx, q)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" ||
		strings.TrimSpace(req.Category) == "" || req.Price == 0 || req.Stock == nil {
		return nil, fmt.Errorf("%w: All fields are required", ErrValidation)
	}
	if strings.TrimSpace(req.Image) == "" {
		return nil, fmt.Errorf("%w: Image URL is required", ErrValidation)
	}

	prod := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Stock:       *req.Stock,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicProduct, prod.ID.String(), map[string]any{
		"type":      "product_created",
		"productID": prod.ID.String(),
		"name":      prod.Name,
	})
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	prod, err := s.Repo.PatchProduct(ctx, id, req)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	events.Publish(ctx, s.Events, events.TopicProduct, prod.ID.String(), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID.String(),
		"name":      prod.Name,
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return wrapNotFound(err)
	}

	events.Publish(ctx, s.Events, events.TopicProduct, id.String(), map[string]any{
		"type":      "product_deleted",
		"productID": id.String(),
	})
	return nil
}
