package stats

import (
	"context"
	"time"

	"agri_market/internal/model"

	"gorm.io/gorm"
)

// 销量曲线的两条分类线：农产品与农资。
var (
	produceCategories  = []string{"fruits", "vegetables", "grains", "dairy"}
	suppliesCategories = []string{"seeds", "fertilizers", "pesticides", "tools", "machinery"}
)

// 低库存预警线，和后台低库存报表保持一致。
const lowStockThreshold = 5

// Summary 后台首页看板数字。
type Summary struct {
	TodayOrders    int64   `json:"today_orders"`
	TodaySales     float64 `json:"today_sales"`
	YesterdaySales float64 `json:"yesterday_sales"`
	TotalOrders    int64   `json:"total_orders"`
	TotalSales     float64 `json:"total_sales"`
	TotalUsers     int64   `json:"total_users"`
	TotalProducts  int64   `json:"total_products"`
	PendingOrders  int64   `json:"pending_orders"`
	LowStockCount  int64   `json:"low_stock_count"`
}

// ChartData 按天的销量曲线，labels 与三条值序列一一对应，缺数据的天补 0。
type ChartData struct {
	Labels   []string  `json:"labels"`
	Sales    []float64 `json:"sales"`
	Produce  []float64 `json:"produce"`
	Supplies []float64 `json:"supplies"`
}

// Service 后台经营分析：看板汇总与按天销量曲线。
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Dashboard 汇总看板数字：今日 / 昨日 / 全量销售额与各实体总数。
func (s *Service) Dashboard(ctx context.Context, now time.Time) (Summary, error) {
	db := s.db.WithContext(ctx)
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	var sum Summary
	if err := db.Model(&model.Order{}).
		Where("DATE(created_at) = ?", today).Count(&sum.TodayOrders).Error; err != nil {
		return Summary{}, err
	}
	if err := sumAmount(db, &sum.TodaySales, "DATE(created_at) = ?", today); err != nil {
		return Summary{}, err
	}
	if err := sumAmount(db, &sum.YesterdaySales, "DATE(created_at) = ?", yesterday); err != nil {
		return Summary{}, err
	}
	if err := db.Model(&model.Order{}).Count(&sum.TotalOrders).Error; err != nil {
		return Summary{}, err
	}
	if err := sumAmount(db, &sum.TotalSales, ""); err != nil {
		return Summary{}, err
	}
	if err := db.Model(&model.User{}).Count(&sum.TotalUsers).Error; err != nil {
		return Summary{}, err
	}
	if err := db.Model(&model.Product{}).Count(&sum.TotalProducts).Error; err != nil {
		return Summary{}, err
	}
	if err := db.Model(&model.Order{}).
		Where("status = ?", model.StatusPending).Count(&sum.PendingOrders).Error; err != nil {
		return Summary{}, err
	}
	if err := db.Model(&model.Product{}).
		Where("quantity <= ?", lowStockThreshold).Count(&sum.LowStockCount).Error; err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func sumAmount(db *gorm.DB, dst *float64, cond string, args ...any) error {
	q := db.Model(&model.Order{}).Select("COALESCE(SUM(total_amount), 0)")
	if cond != "" {
		q = q.Where(cond, args...)
	}
	return q.Scan(dst).Error
}

// DailyChart [start, end] 闭区间逐天曲线：总销售额、农产品线、农资线。
// start 晚于 end 时视为一天。已删除商品的订单行不再落在分类线里
// （引用已置 NULL），总销售额不受影响。
func (s *Service) DailyChart(ctx context.Context, start, end time.Time) (ChartData, error) {
	if end.Before(start) {
		end = start
	}
	db := s.db.WithContext(ctx)
	from, to := start.Format("2006-01-02"), end.Format("2006-01-02")

	salesMap, err := dailyOrderTotals(db, from, to)
	if err != nil {
		return ChartData{}, err
	}
	produceMap, err := dailyCategoryTotals(db, from, to, produceCategories)
	if err != nil {
		return ChartData{}, err
	}
	suppliesMap, err := dailyCategoryTotals(db, from, to, suppliesCategories)
	if err != nil {
		return ChartData{}, err
	}

	var out ChartData
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		out.Labels = append(out.Labels, day.Format("Jan 02"))
		out.Sales = append(out.Sales, salesMap[key])
		out.Produce = append(out.Produce, produceMap[key])
		out.Supplies = append(out.Supplies, suppliesMap[key])
	}
	return out, nil
}

type dailyRow struct {
	Day   string
	Total float64
}

func dailyOrderTotals(db *gorm.DB, from, to string) (map[string]float64, error) {
	var rows []dailyRow
	err := db.Model(&model.Order{}).
		Select("DATE(created_at) AS day, SUM(total_amount) AS total").
		Where("DATE(created_at) BETWEEN ? AND ?", from, to).
		Group("DATE(created_at)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMap(rows), nil
}

func dailyCategoryTotals(db *gorm.DB, from, to string, categories []string) (map[string]float64, error) {
	var rows []dailyRow
	err := db.Model(&model.OrderItem{}).
		Select("DATE(orders.created_at) AS day, SUM(order_items.price * order_items.quantity) AS total").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("DATE(orders.created_at) BETWEEN ? AND ?", from, to).
		Where("products.category IN ?", categories).
		Group("DATE(orders.created_at)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMap(rows), nil
}

func toMap(rows []dailyRow) map[string]float64 {
	m := make(map[string]float64, len(rows))
	for _, r := range rows {
		m[r.Day] = r.Total
	}
	return m
}
