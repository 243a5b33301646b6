package orders

import (
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

type OrderDTO struct {
	ID          uint              `json:"id"`
	UserID      uint              `json:"user_id"`
	ProductID   uint              `json:"product_id"`
	ProductName string            `json:"product_name,omitempty"`
	Quantity    int               `json:"quantity"`
	TotalPrice  decimal.Decimal   `json:"total_price"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateOrderInput is the order placement payload. UserID is only honoured for admins.
type CreateOrderInput struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
	UserID    uint `json:"user_id,omitempty"`
}

type UpdateStatusInput struct {
	Status enums.OrderStatus `json:"status" validate:"required,oneof=pending completed cancelled"`
}

func NewOrderDTO(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:         o.ID,
		UserID:     o.UserID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if o.Product != nil {
		dto.ProductName = o.Product.Name
	}
	return dto
}
