package products

import (
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductDTO is the API shape of a product and its ordered images.
type ProductDTO struct {
	ID              uint                  `json:"id"`
	SallerID        uint                  `json:"saller_id"`
	CategoryID      *uint                 `json:"category_id,omitempty"`
	Name            string                `json:"name"`
	Price           decimal.Decimal       `json:"price"`
	DeliveryService enums.DeliveryService `json:"delivery_service"`
	Stock           int                   `json:"stock"`
	Height          int                   `json:"height"`
	Age             int                   `json:"age"`
	Region          string                `json:"region"`
	Images          []string              `json:"images"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// CreateProductInput holds the validated scalar fields of a new product.
// SallerID is only honoured for admins; sallers always create for themselves.
type CreateProductInput struct {
	SallerID        uint
	CategoryID      *uint
	Name            string
	Price           decimal.Decimal
	DeliveryService enums.DeliveryService
	Stock           int
	Height          int
	Age             int
	Region          string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	CategoryID      *uint
	Name            *string
	Price           *decimal.Decimal
	DeliveryService *enums.DeliveryService
	Stock           *int
	Height          *int
	Age             *int
	Region          *string
}

// ImageUpload is one uploaded file awaiting storage.
type ImageUpload struct {
	Name string
	Data []byte
}

// ListFilters are the browse knobs accepted by List.
type ListFilters struct {
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	CategoryID      *uint
	SallerID        *uint
	Region          string
	DeliveryService *enums.DeliveryService
	MinHeight       *int
	MaxHeight       *int
	MinAge          *int
	MaxAge          *int
	SortBy          string
	SortOrder       string
}

type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.ImageURL)
	}
	return &ProductDTO{
		ID:              p.ID,
		SallerID:        p.SallerID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Price:           p.Price,
		DeliveryService: p.DeliveryService,
		Stock:           p.Stock,
		Height:          p.Height,
		Age:             p.Age,
		Region:          p.Region,
		Images:          images,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
