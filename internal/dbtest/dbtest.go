// Package dbtest opens isolated sqlite databases for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database private to the test. The pool is
// limited to one connection so transactions serialize like row locks would.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// OpenClient wraps Open in a db.Client.
func OpenClient(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.Wrap(conn), conn
}

func MustCreatePrincipal(t *testing.T, conn *gorm.DB, role enums.Role, status enums.AccountStatus) *models.Principal {
	t.Helper()
	principal := &models.Principal{
		Role:          role,
		Email:         fmt.Sprintf("%s_%s@example.com", role, uuid.NewString()[:8]),
		FullName:      "Test " + string(role),
		PasswordHash:  "hash",
		AccountStatus: status,
	}
	if err := conn.Create(principal).Error; err != nil {
		t.Fatalf("create principal: %v", err)
	}
	return principal
}

func MustCreateCategory(t *testing.T, conn *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

func MustCreateProduct(t *testing.T, conn *gorm.DB, sallerID uint, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SallerID:        sallerID,
		Name:            "Bonsai " + uuid.NewString()[:6],
		Price:           decimal.RequireFromString(price),
		DeliveryService: enums.DeliveryServiceYes,
		Stock:           stock,
		Region:          "north",
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
