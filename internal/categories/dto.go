package categories

import (
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
)

type CategoryDTO struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CategoryInput struct {
	Name string `json:"name" validate:"required,min=1,max=80"`
}

func FromModel(c *models.Category, productCount int64) CategoryDTO {
	return CategoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		ProductCount: productCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
