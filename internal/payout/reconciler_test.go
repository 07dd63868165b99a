package payout

import (
	"context"
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

func seedOrderWithItems(t *testing.T, db *gorm.DB, status model.OrderStatus, sellerID uint, items ...model.OrderItem) model.Order {
	t.Helper()
	o := model.Order{BuyerID: 1, TotalAmount: 0, PaymentMode: model.PaymentCOD, Status: status}
	require.NoError(t, db.Create(&o).Error)
	for i := range items {
		items[i].OrderID = o.ID
		items[i].SellerID = sellerID
		require.NoError(t, db.Create(&items[i]).Error)
	}
	return o
}

func TestPendingBalanceCountsOnlyEligible(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, nil)
	const seller = 7

	// Delivered：计入
	seedOrderWithItems(t, db, model.StatusDelivered, seller,
		model.OrderItem{ProductName: "Tomato", Price: 100, Quantity: 4, CommissionAmount: 40})
	// Completed：与 Delivered 等价，计入
	seedOrderWithItems(t, db, model.StatusCompleted, seller,
		model.OrderItem{ProductName: "Onion", Price: 50, Quantity: 6, CommissionAmount: 30})
	// Shipped：未到可结算状态，不计
	seedOrderWithItems(t, db, model.StatusShipped, seller,
		model.OrderItem{ProductName: "Rice", Price: 80, Quantity: 1, CommissionAmount: 8})
	// 已付的行不计
	seedOrderWithItems(t, db, model.StatusDelivered, seller,
		model.OrderItem{ProductName: "Wheat", Price: 10, Quantity: 1, CommissionAmount: 1, IsPaidToSeller: true})
	// 别的卖家不计
	seedOrderWithItems(t, db, model.StatusDelivered, 99,
		model.OrderItem{ProductName: "Mango", Price: 500, Quantity: 2, CommissionAmount: 100})

	b, err := r.PendingBalance(context.Background(), seller)
	require.NoError(t, err)
	require.Equal(t, 2, b.ItemCount)
	require.InDelta(t, 700.0, b.Gross, 1e-6)
	require.InDelta(t, 70.0, b.Commission, 1e-6)
	require.InDelta(t, 630.0, b.Net, 1e-6)
}

func TestProcessPaysExactUnpaidSet(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, nil)
	const seller = 7

	// 三笔未付 Delivered 行，毛额 1000 佣金 100
	seedOrderWithItems(t, db, model.StatusDelivered, seller,
		model.OrderItem{ProductName: "Tomato", Price: 100, Quantity: 3, CommissionAmount: 30},
		model.OrderItem{ProductName: "Onion", Price: 200, Quantity: 2, CommissionAmount: 40})
	seedOrderWithItems(t, db, model.StatusCompleted, seller,
		model.OrderItem{ProductName: "Rice", Price: 300, Quantity: 1, CommissionAmount: 30})

	p, err := r.Process(context.Background(), seller)
	require.NoError(t, err)
	require.InDelta(t, 900.0, p.Amount, 1e-6)
	require.InDelta(t, 100.0, p.CommissionTotal, 1e-6)
	require.Equal(t, 3, p.ItemCount)
	require.NotEmpty(t, p.TransactionRef)

	var unpaid int64
	require.NoError(t, db.Model(&model.OrderItem{}).
		Where("seller_id = ? AND is_paid_to_seller = ?", seller, false).Count(&unpaid).Error)
	require.Zero(t, unpaid)
}

func TestProcessZeroEligibleIsNoOp(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, nil)

	_, err := r.Process(context.Background(), 7)
	require.ErrorIs(t, err, ErrNothingToPay)

	var payouts int64
	require.NoError(t, db.Model(&model.Payout{}).Count(&payouts).Error)
	require.Zero(t, payouts)
}

func TestProcessTwiceNeverDoublePays(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, nil)
	const seller = 7

	seedOrderWithItems(t, db, model.StatusDelivered, seller,
		model.OrderItem{ProductName: "Tomato", Price: 100, Quantity: 1, CommissionAmount: 10})

	first, err := r.Process(context.Background(), seller)
	require.NoError(t, err)
	require.InDelta(t, 90.0, first.Amount, 1e-6)

	// 第二跑看到零可结算项：空操作，不再落 Payout
	_, err = r.Process(context.Background(), seller)
	require.ErrorIs(t, err, ErrNothingToPay)

	var payouts int64
	require.NoError(t, db.Model(&model.Payout{}).Count(&payouts).Error)
	require.Equal(t, int64(1), payouts)
}

func TestProcessLaterDeliveriesPayInNewBatch(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, nil)
	const seller = 7

	seedOrderWithItems(t, db, model.StatusDelivered, seller,
		model.OrderItem{ProductName: "Tomato", Price: 100, Quantity: 1, CommissionAmount: 10})
	_, err := r.Process(context.Background(), seller)
	require.NoError(t, err)

	// 新送达的订单进入下一批
	seedOrderWithItems(t, db, model.StatusDelivered, seller,
		model.OrderItem{ProductName: "Onion", Price: 60, Quantity: 5, CommissionAmount: 30})
	second, err := r.Process(context.Background(), seller)
	require.NoError(t, err)
	require.InDelta(t, 270.0, second.Amount, 1e-6)
	require.Equal(t, 1, second.ItemCount)
}

func TestFlagFlippedElsewhereExcludesItem(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, nil)
	const seller = 7

	seedOrderWithItems(t, db, model.StatusDelivered, seller,
		model.OrderItem{ProductName: "Tomato", Price: 100, Quantity: 1, CommissionAmount: 10},
		model.OrderItem{ProductName: "Onion", Price: 60, Quantity: 2, CommissionAmount: 12})

	// 某行已被别的流程标记付款：本次打款只覆盖剩余未付集合
	var item model.OrderItem
	require.NoError(t, db.Where("product_name = ?", "Tomato").First(&item).Error)
	require.NoError(t, db.Model(&model.OrderItem{}).Where("id = ?", item.ID).
		Update("is_paid_to_seller", true).Error)

	p, err := r.Process(context.Background(), seller)
	require.NoError(t, err)
	require.Equal(t, 1, p.ItemCount)
	require.InDelta(t, 108.0, p.Amount, 1e-6)
}
