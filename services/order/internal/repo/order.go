package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/snapcart/services/order/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

var _ Repository = (*GormRepo)(nil)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.OrderItem{})
}

func itemsInSequence(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormRepo) withItems(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("Products", itemsInSequence)
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	for i := range order.Products {
		order.Products[i].Position = i
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.withItems(ctx).Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.withItems(ctx).Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Order, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetOrder(ctx, id)
}

func (r *GormRepo) Revenue(ctx context.Context) (float64, int64, error) {
	var row struct {
		Revenue float64
		Orders  int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS revenue, COUNT(*) AS orders").
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Revenue, row.Orders, nil
}

func (r *GormRepo) StatusCounts(ctx context.Context) (map[models.Status]int64, error) {
	var rows []struct {
		Status models.Status
		Count  int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[models.Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
