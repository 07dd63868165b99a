package stats

import (
	"context"
	"testing"
	"time"

	"agri_market/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	svc *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return &fixture{db: db, svc: NewService(db)}
}

// seedOrder 指定下单日期落一条订单（可带分类商品行）。
func (f *fixture) seedOrder(t *testing.T, day time.Time, amount float64, status model.OrderStatus, category string, lineTotal float64) {
	t.Helper()
	order := model.Order{BuyerID: 1, TotalAmount: amount, PaymentMode: model.PaymentCOD, Status: status}
	require.NoError(t, f.db.Create(&order).Error)
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", order.ID).
		Update("created_at", day).Error)

	if category == "" {
		return
	}
	p := model.Product{Name: "x", Category: category, Price: lineTotal, Quantity: 5, Unit: "kg", SellerID: 1}
	require.NoError(t, f.db.Create(&p).Error)
	pid := p.ID
	item := model.OrderItem{OrderID: order.ID, ProductID: &pid, SellerID: 1,
		ProductName: p.Name, Price: lineTotal, Quantity: 1}
	require.NoError(t, f.db.Create(&item).Error)
}

func TestDashboardCounters(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	f.seedOrder(t, now, 500, model.StatusConfirmed, "", 0)
	f.seedOrder(t, now, 200, model.StatusPending, "", 0)
	f.seedOrder(t, now.AddDate(0, 0, -1), 300, model.StatusDelivered, "", 0)
	f.seedOrder(t, now.AddDate(0, 0, -10), 100, model.StatusDelivered, "", 0)

	require.NoError(t, f.db.Create(&model.User{Name: "a", Email: "a@example.com", Role: model.RoleBuyer}).Error)
	require.NoError(t, f.db.Create(&model.Product{Name: "low", Category: "grains", Price: 10, Quantity: 2, Unit: "kg", SellerID: 1}).Error)
	require.NoError(t, f.db.Create(&model.Product{Name: "ok", Category: "grains", Price: 10, Quantity: 50, Unit: "kg", SellerID: 1}).Error)

	sum, err := f.svc.Dashboard(context.Background(), now)
	require.NoError(t, err)
	require.EqualValues(t, 2, sum.TodayOrders)
	require.InDelta(t, 700.0, sum.TodaySales, 1e-6)
	require.InDelta(t, 300.0, sum.YesterdaySales, 1e-6)
	require.EqualValues(t, 4, sum.TotalOrders)
	require.InDelta(t, 1100.0, sum.TotalSales, 1e-6)
	require.EqualValues(t, 1, sum.TotalUsers)
	require.EqualValues(t, 2, sum.TotalProducts)
	require.EqualValues(t, 1, sum.PendingOrders)
	require.EqualValues(t, 1, sum.LowStockCount)
}

func TestDailyChartFillsGapsAndSplitsCategories(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f.seedOrder(t, start, 150, model.StatusConfirmed, "vegetables", 150)
	f.seedOrder(t, start.AddDate(0, 0, 2), 80, model.StatusConfirmed, "seeds", 80)

	chart, err := f.svc.DailyChart(context.Background(), start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Equal(t, []string{"Mar 01", "Mar 02", "Mar 03"}, chart.Labels)
	require.InDelta(t, 150.0, chart.Sales[0], 1e-6)
	require.Zero(t, chart.Sales[1]) // 空档天补 0
	require.InDelta(t, 80.0, chart.Sales[2], 1e-6)

	require.InDelta(t, 150.0, chart.Produce[0], 1e-6)
	require.Zero(t, chart.Produce[2])
	require.Zero(t, chart.Supplies[0])
	require.InDelta(t, 80.0, chart.Supplies[2], 1e-6)
}

func TestDailyChartInvertedRangeCollapsesToOneDay(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	chart, err := f.svc.DailyChart(context.Background(), day, day.AddDate(0, 0, -3))
	require.NoError(t, err)
	require.Len(t, chart.Labels, 1)
}
