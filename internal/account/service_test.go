package account

import (
	"context"
	"testing"

	"agri_market/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

func count[T any](t *testing.T, db *gorm.DB, cond string, args ...any) int64 {
	t.Helper()
	var m T
	var n int64
	q := db.Model(&m)
	if cond != "" {
		q = q.Where(cond, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestRemoveUserUnknown(t *testing.T) {
	svc := NewService(newDB(t))
	err := svc.RemoveUser(context.Background(), 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRemoveBuyerCascades(t *testing.T) {
	db := newDB(t)
	svc := NewService(db)

	buyer := model.User{Name: "asha", Email: "asha@example.com", Role: model.RoleBuyer}
	other := model.User{Name: "meena", Email: "meena@example.com", Role: model.RoleBuyer}
	require.NoError(t, db.Create(&buyer).Error)
	require.NoError(t, db.Create(&other).Error)

	order := model.Order{BuyerID: buyer.ID, TotalAmount: 100, PaymentMode: model.PaymentCOD, Status: model.StatusDelivered}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&model.OrderItem{OrderID: order.ID, SellerID: 9, ProductName: "x", Price: 50, Quantity: 2}).Error)
	require.NoError(t, db.Create(&model.OrderStatusHistory{OrderID: order.ID, Status: model.StatusDelivered}).Error)
	require.NoError(t, db.Create(&model.OrderNote{OrderID: order.ID, AuthorID: 1, Text: "call first"}).Error)
	require.NoError(t, db.Create(&model.CartItem{BuyerID: buyer.ID, ProductID: 7, Quantity: 1}).Error)
	require.NoError(t, db.Create(&model.Feedback{BuyerID: buyer.ID, Rating: 4, Message: "nice"}).Error)
	require.NoError(t, db.Create(&model.ProductReview{ProductID: 7, BuyerID: buyer.ID, Rating: 5}).Error)

	// 无关买家的数据不能被波及
	keep := model.Order{BuyerID: other.ID, TotalAmount: 50, PaymentMode: model.PaymentCOD, Status: model.StatusPending}
	require.NoError(t, db.Create(&keep).Error)

	require.NoError(t, svc.RemoveUser(context.Background(), buyer.ID))

	require.Zero(t, count[model.User](t, db, "id = ?", buyer.ID))
	require.Zero(t, count[model.Order](t, db, "buyer_id = ?", buyer.ID))
	require.Zero(t, count[model.OrderItem](t, db, "order_id = ?", order.ID))
	require.Zero(t, count[model.OrderStatusHistory](t, db, "order_id = ?", order.ID))
	require.Zero(t, count[model.OrderNote](t, db, "order_id = ?", order.ID))
	require.Zero(t, count[model.CartItem](t, db, "buyer_id = ?", buyer.ID))
	require.Zero(t, count[model.Feedback](t, db, "buyer_id = ?", buyer.ID))
	require.Zero(t, count[model.ProductReview](t, db, "buyer_id = ?", buyer.ID))

	require.EqualValues(t, 1, count[model.Order](t, db, "buyer_id = ?", other.ID))
	require.EqualValues(t, 1, count[model.User](t, db, "id = ?", other.ID))
}

func TestRemoveSellerPurgesProducts(t *testing.T) {
	db := newDB(t)
	svc := NewService(db)

	seller := model.User{Name: "ravi", Email: "ravi@example.com", Role: model.RoleSeller}
	buyer := model.User{Name: "asha", Email: "asha@example.com", Role: model.RoleBuyer}
	require.NoError(t, db.Create(&seller).Error)
	require.NoError(t, db.Create(&buyer).Error)

	p := model.Product{Name: "Tomato", Category: "vegetables", Price: 30, Quantity: 10, Unit: "kg", SellerID: seller.ID}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&model.CartItem{BuyerID: buyer.ID, ProductID: p.ID, Quantity: 2}).Error)
	require.NoError(t, db.Create(&model.ProductReview{ProductID: p.ID, BuyerID: buyer.ID, Rating: 4}).Error)

	// 买家的历史订单行要活下来，商品引用置空
	order := model.Order{BuyerID: buyer.ID, TotalAmount: 60, PaymentMode: model.PaymentCOD, Status: model.StatusDelivered}
	require.NoError(t, db.Create(&order).Error)
	pid := p.ID
	item := model.OrderItem{OrderID: order.ID, ProductID: &pid, SellerID: seller.ID, ProductName: p.Name, Price: 30, Quantity: 2}
	require.NoError(t, db.Create(&item).Error)

	require.NoError(t, svc.RemoveUser(context.Background(), seller.ID))

	require.Zero(t, count[model.Product](t, db, "seller_id = ?", seller.ID))
	require.Zero(t, count[model.CartItem](t, db, "product_id = ?", p.ID))
	require.Zero(t, count[model.ProductReview](t, db, "product_id = ?", p.ID))

	var got model.OrderItem
	require.NoError(t, db.First(&got, item.ID).Error)
	require.Nil(t, got.ProductID)
	require.Equal(t, "Tomato", got.ProductName)
	require.EqualValues(t, 1, count[model.Order](t, db, "buyer_id = ?", buyer.ID))
}
