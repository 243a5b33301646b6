package categories

import (
	"context"
	"testing"

	"github.com/angelmondragon/bazaar-backend/internal/dbtest"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	created, err := svc.Create(ctx, CategoryInput{Name: "  Bonsai "})
	require.NoError(t, err)
	assert.Equal(t, "Bonsai", created.Name)

	_, err = svc.Create(ctx, CategoryInput{Name: "Bonsai"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, CategoryInput{Name: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	saller := dbtest.MustCreatePrincipal(t, conn, enums.RoleSaller, enums.AccountStatusVerified)
	product := dbtest.MustCreateProduct(t, conn, saller.ID, "10.00", 3)
	require.NoError(t, conn.Model(product).Update("category_id", created.ID).Error)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ProductCount)

	renamed, err := svc.Update(ctx, created.ID, CategoryInput{Name: "Trees"})
	require.NoError(t, err)
	assert.Equal(t, "Trees", renamed.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, product.ID).Error)
	assert.Nil(t, reloaded.CategoryID, "products survive category removal")
}

func TestGetMissingCategory(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), 77)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
