package cart

import (
	"testing"

	"agri_market/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, qty int) model.Product {
	t.Helper()
	p := model.Product{Name: name, Category: "vegetables", Price: price, Quantity: qty, Unit: "kg", SellerID: 7}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestAddCapsAtStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	p := seedProduct(t, db, "Tomato", 25, 2)

	require.NoError(t, svc.Add(1, p.ID))
	require.NoError(t, svc.Add(1, p.ID))
	// 第三件超出库存 2
	require.ErrorIs(t, svc.Add(1, p.ID), ErrOutOfStock)

	d, err := svc.Details(1)
	require.NoError(t, err)
	require.Len(t, d.Lines, 1)
	require.Equal(t, 2, d.Lines[0].Quantity)
	require.Equal(t, 50.0, d.Subtotal)
}

func TestAddUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	require.ErrorIs(t, svc.Add(1, 999), ErrProductNotFound)
}

func TestIncreaseDecreaseClamped(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	p := seedProduct(t, db, "Onion", 18, 3)

	require.NoError(t, svc.Add(1, p.ID))
	require.NoError(t, svc.Increase(1, p.ID))
	require.NoError(t, svc.Increase(1, p.ID))
	require.ErrorIs(t, svc.Increase(1, p.ID), ErrOutOfStock)

	// 减到 1 为止，不会降到 0
	require.NoError(t, svc.Decrease(1, p.ID))
	require.NoError(t, svc.Decrease(1, p.ID))
	require.NoError(t, svc.Decrease(1, p.ID))
	d, err := svc.Details(1)
	require.NoError(t, err)
	require.Equal(t, 1, d.Lines[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	p1 := seedProduct(t, db, "Potato", 12, 10)
	p2 := seedProduct(t, db, "Carrot", 30, 10)

	require.NoError(t, svc.Add(1, p1.ID))
	require.NoError(t, svc.Add(1, p2.ID))
	require.NoError(t, svc.Remove(1, p1.ID))

	d, err := svc.Details(1)
	require.NoError(t, err)
	require.Len(t, d.Lines, 1)
	require.Equal(t, p2.ID, d.Lines[0].ProductID)

	require.NoError(t, svc.Clear(1))
	n, err := svc.Count(1)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDetailsUsesLivePrice(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	p := seedProduct(t, db, "Spinach", 40, 5)
	require.NoError(t, svc.Add(2, p.ID))

	// 卖家改价后，购物车明细跟着实时价走
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", p.ID).Update("price", 55).Error)
	d, err := svc.Details(2)
	require.NoError(t, err)
	require.Equal(t, 55.0, d.Lines[0].Price)
	require.Equal(t, 55.0, d.Subtotal)
}

func TestCountSumsQuantities(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	p1 := seedProduct(t, db, "Rice", 90, 5)
	p2 := seedProduct(t, db, "Wheat", 60, 5)

	require.NoError(t, svc.Add(3, p1.ID))
	require.NoError(t, svc.Add(3, p1.ID))
	require.NoError(t, svc.Add(3, p2.ID))

	n, err := svc.Count(3)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}
