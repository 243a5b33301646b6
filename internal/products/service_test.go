package products

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/angelmondragon/bazaar-backend/internal/dbtest"
	"github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"github.com/angelmondragon/bazaar-backend/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *service
	conn   *gorm.DB
	files  *storage.LocalStore
	saller auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	files, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:            client,
		Repo:          NewRepository(conn),
		Files:         files,
		MaxImageCount: 5,
	})
	require.NoError(t, err)

	saller := dbtest.MustCreatePrincipal(t, conn, enums.RoleSaller, enums.AccountStatusVerified)
	return &fixture{
		svc:    svc.(*service),
		conn:   conn,
		files:  files,
		saller: auth.Actor{PrincipalID: saller.ID, Role: enums.RoleSaller},
	}
}

func (f *fixture) storedFiles(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.files.Dir())
	require.NoError(t, err)
	return len(entries)
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func validInput() CreateProductInput {
	return CreateProductInput{
		Name:            "Juniper bonsai",
		Price:           decimal.RequireFromString("1200"),
		DeliveryService: enums.DeliveryServiceYes,
		Stock:           5,
		Height:          40,
		Age:             12,
		Region:          "Tashkent",
	}
}

func twoImages() []ImageUpload {
	return []ImageUpload{
		{Name: "front.png", Data: []byte("front")},
		{Name: "side.png", Data: []byte("side")},
	}
}

// failingImageStore fails the nth image row insert.
type failingImageStore struct {
	productStore
	failOn int
	calls  *int
}

func (f failingImageStore) CreateImage(ctx context.Context, image *models.ProductImage) error {
	*f.calls++
	if *f.calls == f.failOn {
		return errors.New("disk full")
	}
	return f.productStore.CreateImage(ctx, image)
}

func TestCreateProductPersistsImagesInOrder(t *testing.T) {
	f := newFixture(t)

	dto, err := f.svc.CreateProduct(context.Background(), f.saller, validInput(), twoImages())
	require.NoError(t, err)
	assert.Equal(t, f.saller.PrincipalID, dto.SallerID)
	assert.True(t, dto.Price.Equal(decimal.NewFromInt(1200)))
	require.Len(t, dto.Images, 2)
	assert.Contains(t, dto.Images[0], "/images/front__")
	assert.Contains(t, dto.Images[1], "/images/side__")

	for _, url := range dto.Images {
		ok, err := f.files.Exists(context.Background(), url)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCreateProductRollsBackWhenSecondImageRowFails(t *testing.T) {
	f := newFixture(t)
	calls := 0
	base := f.svc.repoFor
	f.svc.repoFor = func(tx *gorm.DB) productStore {
		return failingImageStore{productStore: base(tx), failOn: 2, calls: &calls}
	}

	_, err := f.svc.CreateProduct(context.Background(), f.saller, validInput(), twoImages())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransaction))

	assert.Zero(t, f.count(t, &models.Product{}))
	assert.Zero(t, f.count(t, &models.ProductImage{}))
	assert.Zero(t, f.storedFiles(t), "files from the rolled back transaction are removed")
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	noStock := validInput()
	noStock.Stock = 0
	_, err := f.svc.CreateProduct(ctx, f.saller, noStock, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	negative := validInput()
	negative.Price = decimal.NewFromInt(-1)
	_, err = f.svc.CreateProduct(ctx, f.saller, negative, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missingCategory := validInput()
	categoryID := uint(404)
	missingCategory.CategoryID = &categoryID
	_, err = f.svc.CreateProduct(ctx, f.saller, missingCategory, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	admin := auth.Actor{PrincipalID: 1, Role: enums.RoleAdmin}
	ghostSaller := validInput()
	ghostSaller.SallerID = 9999
	_, err = f.svc.CreateProduct(ctx, admin, ghostSaller, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	buyer := auth.Actor{PrincipalID: 2, Role: enums.RoleUser}
	_, err = f.svc.CreateProduct(ctx, buyer, validInput(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	assert.Zero(t, f.count(t, &models.Product{}))
}

func TestUpdateProductReplacesImages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.svc.CreateProduct(ctx, f.saller, validInput(), twoImages())
	require.NoError(t, err)

	newName := "Pine bonsai"
	newStock := 9
	updated, err := f.svc.UpdateProduct(ctx, f.saller, created.ID, UpdateProductInput{Name: &newName, Stock: &newStock},
		[]ImageUpload{{Name: "top.jpg", Data: []byte("top")}})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, 9, updated.Stock)
	require.Len(t, updated.Images, 1)
	assert.Contains(t, updated.Images[0], "/images/top__")

	for _, old := range created.Images {
		ok, err := f.files.Exists(ctx, old)
		require.NoError(t, err)
		assert.False(t, ok, "replaced files are deleted")
	}
	assert.Equal(t, 1, f.storedFiles(t))
	assert.EqualValues(t, 1, f.count(t, &models.ProductImage{}))
}

func TestUpdateProductGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.svc.CreateProduct(ctx, f.saller, validInput(), nil)
	require.NoError(t, err)

	zero := 0
	_, err = f.svc.UpdateProduct(ctx, f.saller, created.ID, UpdateProductInput{Stock: &zero}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	rival := dbtest.MustCreatePrincipal(t, f.conn, enums.RoleSaller, enums.AccountStatusVerified)
	name := "stolen"
	_, err = f.svc.UpdateProduct(ctx, auth.Actor{PrincipalID: rival.ID, Role: enums.RoleSaller}, created.ID, UpdateProductInput{Name: &name}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateProduct(ctx, f.saller, 777, UpdateProductInput{Name: &name}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	admin := auth.Actor{PrincipalID: 1, Role: enums.RoleAdmin}
	renamed, err := f.svc.UpdateProduct(ctx, admin, created.ID, UpdateProductInput{Name: &name}, nil)
	require.NoError(t, err)
	assert.Equal(t, "stolen", renamed.Name)
}

func TestDeleteProductRemovesRowsAndFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.svc.CreateProduct(ctx, f.saller, validInput(), twoImages())
	require.NoError(t, err)
	require.Equal(t, 2, f.storedFiles(t))

	require.NoError(t, f.svc.DeleteProduct(ctx, f.saller, created.ID))
	assert.Zero(t, f.count(t, &models.Product{}))
	assert.Zero(t, f.count(t, &models.ProductImage{}))
	assert.Zero(t, f.storedFiles(t))

	err = f.svc.DeleteProduct(ctx, f.saller, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListProductsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, seed := range []struct {
		name  string
		price string
		age   int
	}{
		{"Maple", "50", 3},
		{"Juniper", "120.50", 10},
		{"Ficus", "80", 6},
		{"Juniper mini", "30", 2},
	} {
		input := validInput()
		input.Name = seed.name
		input.Price = decimal.RequireFromString(seed.price)
		input.Age = seed.age
		_, err := f.svc.CreateProduct(ctx, f.saller, input, nil)
		require.NoError(t, err)
	}

	page, err := f.svc.ListProducts(ctx, ListInput{
		Filters: ListFilters{Search: "juniper", SortBy: "price", SortOrder: "asc"},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Juniper mini", page.Items[0].Name)
	assert.Equal(t, "Juniper", page.Items[1].Name)

	minPrice := decimal.RequireFromString("50")
	maxPrice := decimal.RequireFromString("100")
	page, err = f.svc.ListProducts(ctx, ListInput{
		Filters: ListFilters{MinPrice: &minPrice, MaxPrice: &maxPrice, SortBy: "name", SortOrder: "asc"},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Ficus", page.Items[0].Name)
	assert.Equal(t, "Maple", page.Items[1].Name)

	minAge := 5
	page, err = f.svc.ListProducts(ctx, ListInput{
		Filters:    ListFilters{MinAge: &minAge, SortBy: "price", SortOrder: "desc"},
		Pagination: pagination.Params{Page: 2, Limit: 1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Ficus", page.Items[0].Name)

	_, err = f.svc.ListProducts(ctx, ListInput{Filters: ListFilters{MinPrice: &maxPrice, MaxPrice: &minPrice}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListProductsByCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conifers := dbtest.MustCreateCategory(t, f.conn, "Conifers")

	tagged := validInput()
	tagged.Name = "Pine"
	tagged.CategoryID = &conifers.ID
	_, err := f.svc.CreateProduct(ctx, f.saller, tagged, nil)
	require.NoError(t, err)

	untagged := validInput()
	untagged.Name = "Olive"
	_, err = f.svc.CreateProduct(ctx, f.saller, untagged, nil)
	require.NoError(t, err)

	page, err := f.svc.ListProducts(ctx, ListInput{Filters: ListFilters{CategoryID: &conifers.ID}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Pine", page.Items[0].Name)
}
