package payout

import (
	"context"
	"errors"
	"log"
	"time"

	"agri_market/internal/model"
	pkgredis "agri_market/pkg/redis"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNothingToPay 该卖家当前没有可结算的未付款项，打款是空操作（不落 Payout 行）。
	ErrNothingToPay = errors.New("no unpaid eligible items")
	// ErrPayoutInProgress 同一卖家已有打款在执行（Redis 锁占用）。
	ErrPayoutInProgress = errors.New("payout already in progress for seller")
	// ErrConflict 标记付款时发现条目已被并发打款拿走，整体回滚，调用方可重试。
	ErrConflict = errors.New("payout conflict, retry")
)

// 打款锁 TTL：防崩溃死锁，正常流程远早于此释放。
const lockTTL = 30 * time.Second

// Balance 卖家当前可结算余额（Delivered / Completed 订单上未付的行）。
type Balance struct {
	SellerID   uint    `json:"seller_id"`
	Gross      float64 `json:"gross"`
	Commission float64 `json:"commission"`
	Net        float64 `json:"net"`
	ItemCount  int     `json:"item_count"`
}

// Reconciler 卖家分账：汇总未付款项并原子打款。
// is_paid_to_seller 标志是幂等护栏 —— 标记付款走带未付条件的
// 条件更新，命中行数不符即整体回滚；Redis 锁只是快速挡并发，
// 没有 Redis（rdb 为 nil）时条件更新独自兜底。
type Reconciler struct {
	db  *gorm.DB
	rdb *rd.Client
}

func NewReconciler(db *gorm.DB, rdb *rd.Client) *Reconciler {
	return &Reconciler{db: db, rdb: rdb}
}

// eligibleScope Delivered / Completed 订单上该卖家未付的订单行。
func eligibleScope(db *gorm.DB, sellerID uint) *gorm.DB {
	return db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.seller_id = ?", sellerID).
		Where("order_items.is_paid_to_seller = ?", false).
		Where("orders.status IN ?", []model.OrderStatus{model.StatusDelivered, model.StatusCompleted})
}

// PendingBalance 汇总应付余额：净额 = 毛额 - 冻结佣金。
func (r *Reconciler) PendingBalance(ctx context.Context, sellerID uint) (Balance, error) {
	var items []model.OrderItem
	if err := eligibleScope(r.db.WithContext(ctx), sellerID).
		Select("order_items.*").Find(&items).Error; err != nil {
		return Balance{}, err
	}
	b := Balance{SellerID: sellerID, ItemCount: len(items)}
	for _, it := range items {
		b.Gross += it.Gross()
		b.Commission += it.CommissionAmount
	}
	b.Net = b.Gross - b.Commission
	return b, nil
}

// Process 原子打款：锁定当下未付集合、按该集合算净额、
// 写一条 Payout、把集合内全部条目翻成已付。不支持部分打款。
func (r *Reconciler) Process(ctx context.Context, sellerID uint) (*model.Payout, error) {
	token := uuid.New().String()
	if r.rdb != nil {
		ok, err := pkgredis.AcquirePayoutLock(ctx, r.rdb, sellerID, token, lockTTL)
		if err != nil {
			// Redis 故障降级放行：条件更新仍保证不双付。
			log.Printf("payout lock acquire seller=%d: %v", sellerID, err)
		} else if !ok {
			return nil, ErrPayoutInProgress
		}
		defer func() {
			_ = pkgredis.ReleasePayoutLock(context.WithoutCancel(ctx), r.rdb, sellerID, token)
		}()
	}

	var payout model.Payout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []model.OrderItem
		if err := eligibleScope(tx, sellerID).
			Select("order_items.*").Order("order_items.id").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrNothingToPay
		}

		// 金额必须来自这一个精确集合，而不是之后重新聚合。
		ids := make([]uint, 0, len(items))
		var gross, commission float64
		for _, it := range items {
			ids = append(ids, it.ID)
			gross += it.Gross()
			commission += it.CommissionAmount
		}

		payout = model.Payout{
			SellerID:        sellerID,
			Amount:          gross - commission,
			CommissionTotal: commission,
			TransactionRef:  "PAY-" + uuid.New().String(),
			ItemCount:       len(items),
		}
		if err := tx.Create(&payout).Error; err != nil {
			return err
		}

		// 条件更新只翻"仍未付"的行；并发打款抢先翻过任何一行，
		// 命中数就对不上，整笔回滚避免双付。
		res := tx.Model(&model.OrderItem{}).
			Where("id IN ? AND is_paid_to_seller = ?", ids, false).
			Update("is_paid_to_seller", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}
