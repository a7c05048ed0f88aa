package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null"             json:"name"`
	Description string    `gorm:"not null"             json:"description"`
	Price       float64   `gorm:"not null"             json:"price"`
	Category    string    `gorm:"index;not null"       json:"category"`
	Image       string    `gorm:"not null"             json:"image"`
	Stock       int       `gorm:"not null;default:0"   json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
