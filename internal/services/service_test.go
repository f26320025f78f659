package services

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection keeps concurrent test transactions serialized instead
	// of tripping SQLite table locks.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: price, StockQuantity: stock, IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) domain.Product {
	t.Helper()
	var p domain.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product %d: %v", id, err)
	}
	return p
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 0.005 }
