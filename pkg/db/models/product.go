package models

import (
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is a saller listing. Stock never goes negative.
type Product struct {
	ID              uint                  `gorm:"column:id;primaryKey;autoIncrement"`
	SallerID        uint                  `gorm:"column:saller_id;not null;index"`
	CategoryID      *uint                 `gorm:"column:category_id;index"`
	Name            string                `gorm:"column:name;not null"`
	Price           decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	DeliveryService enums.DeliveryService `gorm:"column:delivery_service;type:varchar(3);not null;default:no"`
	Stock           int                   `gorm:"column:stock;not null;default:0"`
	Height          int                   `gorm:"column:height;not null;default:0"`
	Age             int                   `gorm:"column:age;not null;default:0"`
	Region          string                `gorm:"column:region;not null;default:''"`
	Images          []ProductImage        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
