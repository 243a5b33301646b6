package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"github.com/angelmondragon/bazaar-backend/pkg/storage"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Service exposes product management. Every write runs in one transaction;
// files written for a rolled back transaction are removed afterwards.
type Service interface {
	CreateProduct(ctx context.Context, actor auth.Actor, input CreateProductInput, images []ImageUpload) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actor auth.Actor, id uint, input UpdateProductInput, images []ImageUpload) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, actor auth.Actor, id uint) error
	GetProduct(ctx context.Context, id uint) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListInput) (pagination.Page[ProductDTO], error)
}

// productStore is the persistence surface used inside and outside transactions.
type productStore interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	CreateImage(ctx context.Context, image *models.ProductImage) error
	ListImages(ctx context.Context, productID uint) ([]models.ProductImage, error)
	DeleteImages(ctx context.Context, productID uint) error
	PrincipalExists(ctx context.Context, role enums.Role, id uint) (bool, error)
	CategoryExists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, input ListInput) ([]models.Product, int64, error)
}

type ServiceParams struct {
	DB            db.TxRunner
	Repo          *Repository
	Files         storage.FileStore
	Logger        *logger.Logger
	MaxImageCount int
}

type service struct {
	db        db.TxRunner
	repo      productStore
	repoFor   func(tx *gorm.DB) productStore
	files     storage.FileStore
	logg      *logger.Logger
	maxImages int
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store required")
	}
	repo := params.Repo
	return &service{
		db:        params.DB,
		repo:      repo,
		repoFor:   func(tx *gorm.DB) productStore { return repo.WithTx(tx) },
		files:     params.Files,
		logg:      params.Logger,
		maxImages: params.MaxImageCount,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, actor auth.Actor, input CreateProductInput, images []ImageUpload) (*ProductDTO, error) {
	sallerID, err := resolveOwner(actor, input.SallerID)
	if err != nil {
		return nil, err
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := s.validateImages(images); err != nil {
		return nil, err
	}

	var (
		productID uint
		stored    []string
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)
		if err := ensureReferences(ctx, repo, sallerID, input.CategoryID); err != nil {
			return err
		}

		product := &models.Product{
			SallerID:        sallerID,
			CategoryID:      input.CategoryID,
			Name:            strings.TrimSpace(input.Name),
			Price:           input.Price,
			DeliveryService: input.DeliveryService,
			Stock:           input.Stock,
			Height:          input.Height,
			Age:             input.Age,
			Region:          strings.TrimSpace(input.Region),
		}
		if product.DeliveryService == "" {
			product.DeliveryService = enums.DeliveryServiceNo
		}
		if err := repo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "insert product")
		}
		productID = product.ID

		return s.attachImages(ctx, repo, product.ID, images, &stored)
	})
	if err != nil {
		s.discardFiles(ctx, stored)
		return nil, err
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) UpdateProduct(ctx context.Context, actor auth.Actor, id uint, input UpdateProductInput, images []ImageUpload) (*ProductDTO, error) {
	updates, err := buildUpdates(input)
	if err != nil {
		return nil, err
	}
	if err := s.validateImages(images); err != nil {
		return nil, err
	}

	var (
		stored   []string
		replaced []string
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)
		product, err := loadOwned(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if input.CategoryID != nil {
			if err := ensureReferences(ctx, repo, product.SallerID, input.CategoryID); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return mapProductError(err)
		}

		if len(images) == 0 {
			return nil
		}
		previous, err := repo.ListImages(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "list images")
		}
		if err := repo.DeleteImages(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "delete images")
		}
		for _, img := range previous {
			replaced = append(replaced, img.ImageURL)
		}
		return s.attachImages(ctx, repo, id, images, &stored)
	})
	if err != nil {
		s.discardFiles(ctx, stored)
		return nil, err
	}
	s.discardFiles(ctx, replaced)
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, actor auth.Actor, id uint) error {
	var removed []string
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)
		product, err := loadOwned(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteImages(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "delete images")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return mapProductError(err)
		}
		for _, img := range product.Images {
			removed = append(removed, img.ImageURL)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.discardFiles(ctx, removed)
	return nil
}

func (s *service) GetProduct(ctx context.Context, id uint) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapProductError(err)
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListInput) (pagination.Page[ProductDTO], error) {
	f := input.Filters
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	page := pagination.NewPage(rows, input.Pagination, total)
	return pagination.Map(page, func(p models.Product) ProductDTO { return *NewProductDTO(&p) }), nil
}

// attachImages stores each upload and inserts its row. URLs are appended to
// stored as soon as the file exists so the caller can clean up on rollback.
func (s *service) attachImages(ctx context.Context, repo productStore, productID uint, images []ImageUpload, stored *[]string) error {
	for i, img := range images {
		url, err := s.files.Store(ctx, img.Data, img.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image")
		}
		*stored = append(*stored, url)

		row := &models.ProductImage{ProductID: productID, ImageURL: url, Position: i}
		if err := repo.CreateImage(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "insert image")
		}
	}
	return nil
}

// discardFiles deletes files best-effort; failures are logged, never returned.
func (s *service) discardFiles(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	var errs error
	for _, url := range urls {
		errs = multierr.Append(errs, s.files.Delete(ctx, url))
	}
	if errs != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", errs.Error()), "image cleanup incomplete")
	}
}

func (s *service) validateImages(images []ImageUpload) error {
	if s.maxImages > 0 && len(images) > s.maxImages {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d images are allowed", s.maxImages))
	}
	for _, img := range images {
		if len(img.Data) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "image files cannot be empty")
		}
	}
	return nil
}

func resolveOwner(actor auth.Actor, requested uint) (uint, error) {
	switch actor.Role {
	case enums.RoleSaller:
		return actor.PrincipalID, nil
	case enums.RoleAdmin:
		if requested == 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "saller_id is required")
		}
		return requested, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "only sallers and admins manage products")
	}
}

func loadOwned(ctx context.Context, repo productStore, actor auth.Actor, id uint) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapProductError(err)
	}
	if !actor.Owns(enums.RoleSaller, product.SallerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another saller")
	}
	return product, nil
}

func ensureReferences(ctx context.Context, repo productStore, sallerID uint, categoryID *uint) error {
	ok, err := repo.PrincipalExists(ctx, enums.RoleSaller, sallerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "check saller")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "saller not found")
	}
	if categoryID == nil {
		return nil
	}
	ok, err = repo.CategoryExists(ctx, *categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func validateCreate(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be greater than zero")
	}
	if input.DeliveryService != "" && !input.DeliveryService.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery_service must be yes or no")
	}
	if input.Height < 0 || input.Age < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "height and age cannot be negative")
	}
	return nil
}

func buildUpdates(input UpdateProductInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be greater than zero")
		}
		updates["stock"] = *input.Stock
	}
	if input.DeliveryService != nil {
		if !input.DeliveryService.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery_service must be yes or no")
		}
		updates["delivery_service"] = *input.DeliveryService
	}
	if input.Height != nil {
		if *input.Height < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "height cannot be negative")
		}
		updates["height"] = *input.Height
	}
	if input.Age != nil {
		if *input.Age < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "age cannot be negative")
		}
		updates["age"] = *input.Age
	}
	if input.Region != nil {
		updates["region"] = strings.TrimSpace(*input.Region)
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	return updates, nil
}

func mapProductError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Passthrough(pkgerrors.CodeTransaction, err, "product write")
}
