package db

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestQueryLoggerReportsFailuresNotMisses(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: buf})
	conn, err := gorm.Open(sqlite.Open("file:querylog?mode=memory&cache=shared"), &gorm.Config{
		Logger: newQueryLogger(logg, time.Hour),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	buf.Reset()

	var row testModel
	if err := conn.First(&row, "name = ?", "absent").Error; err == nil {
		t.Fatalf("expected record not found")
	}
	if buf.Len() != 0 {
		t.Fatalf("record-not-found should stay quiet, got %s", buf.String())
	}

	if err := conn.Table("missing_table").Find(&[]testModel{}).Error; err == nil {
		t.Fatalf("expected failure on missing table")
	}
	if !strings.Contains(buf.String(), "db.query_failed") || !strings.Contains(buf.String(), "missing_table") {
		t.Fatalf("expected failed statement to be logged, got %s", buf.String())
	}
}

func TestQueryLoggerFlagsSlowStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: buf})
	conn, err := gorm.Open(sqlite.Open("file:queryslow?mode=memory&cache=shared"), &gorm.Config{
		Logger: newQueryLogger(logg, time.Nanosecond),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !strings.Contains(buf.String(), "db.query_slow") {
		t.Fatalf("expected slow statement warning, got %s", buf.String())
	}
}

func TestQueryLoggerWithoutServiceLogger(t *testing.T) {
	if newQueryLogger(nil, time.Second) == nil {
		t.Fatalf("expected a discard logger")
	}
}
