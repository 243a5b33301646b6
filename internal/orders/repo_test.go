package orders

import (
	"context"
	"testing"

	"github.com/angelmondragon/bazaar-backend/internal/dbtest"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func currentStock(t *testing.T, conn *gorm.DB, id uint) int {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.First(&product, id).Error)
	return product.Stock
}

func TestReserveStockChecksStockAtWriteTime(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	saller := dbtest.MustCreatePrincipal(t, conn, enums.RoleSaller, enums.AccountStatusVerified)
	product := dbtest.MustCreateProduct(t, conn, saller.ID, "10", 5)
	repo := NewRepository(conn)

	seen, err := repo.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 5, seen.Stock)

	// Another buyer takes three units after the read above.
	require.NoError(t, conn.Model(&models.Product{}).
		Where("id = ?", product.ID).
		UpdateColumn("stock", gorm.Expr("stock - ?", 3)).Error)

	ok, err := repo.ReserveStock(ctx, product.ID, seen.Stock)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, currentStock(t, conn, product.ID))

	ok, err = repo.ReserveStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, currentStock(t, conn, product.ID))
}

func TestDeleteInStatusOnlyMatchesCurrentStatus(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	saller := dbtest.MustCreatePrincipal(t, conn, enums.RoleSaller, enums.AccountStatusVerified)
	buyer := dbtest.MustCreatePrincipal(t, conn, enums.RoleUser, enums.AccountStatusVerified)
	product := dbtest.MustCreateProduct(t, conn, saller.ID, "10", 5)
	repo := NewRepository(conn)

	order := &models.Order{
		UserID:     buyer.ID,
		ProductID:  product.ID,
		Quantity:   1,
		TotalPrice: product.Price,
		Status:     enums.OrderStatusCancelled,
	}
	require.NoError(t, repo.Create(ctx, order))

	deleted, err := repo.DeleteInStatus(ctx, order.ID, enums.OrderStatusPending)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteInStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.True(t, deleted)
}
