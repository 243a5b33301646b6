package models

import (
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order reserves Quantity units of a product for a user. TotalPrice is computed, never supplied.
type Order struct {
	ID         uint              `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     uint              `gorm:"column:user_id;not null;index"`
	ProductID  uint              `gorm:"column:product_id;not null;index"`
	Quantity   int               `gorm:"column:quantity;not null"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:varchar(16);not null;default:pending"`
	Product    *Product          `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
