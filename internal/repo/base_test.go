package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}

	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestPaginate(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for i := 1; i <= 7; i++ {
		if err := db.Create(&widget{Name: fmt.Sprintf("w%d", i)}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	var rows []widget
	total, err := Paginate(db.Model(&widget{}).Order("id asc"), pagination.Params{Page: 3, Limit: 3}, &rows)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if total != 7 {
		t.Fatalf("expected total 7, got %d", total)
	}
	if len(rows) != 1 || rows[0].Name != "w7" {
		t.Fatalf("unexpected last page %+v", rows)
	}

	rows = nil
	total, err = Paginate(db.Model(&widget{}).Where("name = ?", "missing"), pagination.Params{}, &rows)
	if err != nil || total != 0 || len(rows) != 0 {
		t.Fatalf("expected empty result, got total=%d rows=%v err=%v", total, rows, err)
	}
}
