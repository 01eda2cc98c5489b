package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/db"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func seedProduct(t *testing.T, testDB *gorm.DB, p model.Product) model.Product {
	t.Helper()
	if p.Status == "" {
		p.Status = model.ProductStatusActive
	}
	if p.Category == "" {
		p.Category = "Women's Fashion"
	}
	require.NoError(t, testDB.Create(&p).Error)
	return p
}

func seedOrder(t *testing.T, testDB *gorm.DB, o model.Order) model.Order {
	t.Helper()
	if o.OrderNumber == "" {
		o.OrderNumber = "ORD-" + uuid.NewString()[:8]
	}
	if o.Customer.FirstName == "" {
		o.Customer.FirstName = "Test"
	}
	if o.Customer.Email == "" {
		o.Customer.Email = "buyer@example.com"
	}
	require.NoError(t, testDB.Create(&o).Error)
	return o
}
