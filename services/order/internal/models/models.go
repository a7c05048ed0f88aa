package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
)

var Statuses = []Status{StatusPending, StatusShipped, StatusDelivered}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	Address    string `gorm:"not null" json:"address"`
	City       string `gorm:"not null" json:"city"`
	PostalCode string `gorm:"not null" json:"postalCode"`
	Country    string `gorm:"not null" json:"country"`
}

// OrderItem is one line of an order; Position keeps the submitted sequence.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey"               json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Position  int       `gorm:"not null"                 json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"       json:"productId"`
	Quantity  int       `gorm:"not null;default:1"       json:"quantity"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"                          json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null"                      json:"userId"`
	Products        []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"             json:"shippingAddress"`
	TotalPrice      float64         `gorm:"not null"                                      json:"totalPrice"`
	Status          Status          `gorm:"type:varchar(16);index;not null"               json:"status"`
	OrderDate       time.Time       `gorm:"index;not null"                                json:"orderDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
