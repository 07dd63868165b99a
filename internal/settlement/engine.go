package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"agri_market/internal/model"
	"agri_market/internal/notify"
	"agri_market/internal/pricing"
	"agri_market/internal/settings"

	"gorm.io/gorm"
)

var (
	// ErrEmptyCart 空购物车不可结算，任何状态都未改变。
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientStock 提交时复核发现库存不足（或商品已下架），
	// 整单拒绝，不做部分成交。
	ErrInsufficientStock = errors.New("insufficient stock at confirm time")
	// ErrMissingAddress 结算必须带收货地址。
	ErrMissingAddress = errors.New("shipping address is required")
	// ErrInvalidPayment 支付方式不在枚举内。
	ErrInvalidPayment = errors.New("invalid payment mode")
	// ErrInvalidQuantity buy-now 数量非法。
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// SettleInput 购物车结算入参。支付前置校验（在线支付验签）由调用方
// 在进入 Settle 之前完成。
type SettleInput struct {
	BuyerID         uint
	PaymentMode     model.PaymentMode
	ShippingAddress string
	// DistanceKm 配送距离；<=0 / 非法按最高档计价（见 pricing）。
	DistanceKm float64
}

// BuyNowInput 立即购买（COD 平价运费路径，不走距离分档）。
type BuyNowInput struct {
	BuyerID         uint
	ProductID       uint
	Quantity        int
	ShippingAddress string
}

// Engine 结算引擎：把定价后的购物车一次性原子转换为订单。
// 订单 / 订单行 / 状态历史 / 扣库存 / 清购物车同一事务落库，
// 通知在提交之后尽力而为地发，失败只打日志。
type Engine struct {
	db       *gorm.DB
	settings *settings.Store
	notifier notify.Notifier
}

func NewEngine(db *gorm.DB, st *settings.Store, n notify.Notifier) *Engine {
	return &Engine{db: db, settings: st, notifier: n}
}

// settledLine 事务内逐行累计的快照，供提交后发通知用。
type settledLine struct {
	sellerID uint
	name     string
	quantity int
}

// Settle 执行核心结算事务：
//  1. 读当前免邮门槛 / 佣金费率（冻结进订单）
//  2. 按距离分档出运费报价，满额免买家运费（配送成本不免）
//  3. 建 Confirmed 订单 + 初始状态历史
//  4. 逐行快照 OrderItem（名称 / 单价 / 卖家 / 佣金）
//  5. 条件更新扣库存，扣到 0 删除商品；任何一行不足整单回滚
//  6. 清空买家购物车
func (e *Engine) Settle(ctx context.Context, in SettleInput) (*model.Order, error) {
	if !in.PaymentMode.Valid() {
		return nil, ErrInvalidPayment
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return nil, ErrMissingAddress
	}

	// 结算一刻的业务参数，写入订单后不再回算。
	threshold := e.settings.Float(settings.KeyFreeShippingThreshold, settings.DefaultFreeShippingThreshold)
	rate := e.settings.Float(settings.KeyCommissionRate, settings.DefaultCommissionRate)
	quote := pricing.Quote(in.DistanceKm)

	var (
		order model.Order
		lines []settledLine
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartItems []model.CartItem
		if err := tx.Where("buyer_id = ?", in.BuyerID).Order("id").Find(&cartItems).Error; err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		// 先快照实时商品信息并算小计；购物车行引用的商品已消失
		// （库存清零被删）同样视为提交时库存不足。
		type pricedLine struct {
			item model.CartItem
			prod model.Product
		}
		priced := make([]pricedLine, 0, len(cartItems))
		var subtotal float64
		for _, ci := range cartItems {
			var prod model.Product
			if err := tx.First(&prod, ci.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrInsufficientStock, ci.ProductID)
				}
				return err
			}
			if ci.Quantity > prod.Quantity {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, prod.Name)
			}
			subtotal += prod.Price * float64(ci.Quantity)
			priced = append(priced, pricedLine{item: ci, prod: prod})
		}

		fee := pricing.Charge(subtotal, threshold, quote.Fee)
		order = model.Order{
			BuyerID:         in.BuyerID,
			TotalAmount:     subtotal + fee,
			PaymentMode:     in.PaymentMode,
			ShippingAddress: in.ShippingAddress,
			Status:          model.StatusConfirmed,
			DeliveryFee:     fee,
			DeliveryCost:    quote.Cost,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.OrderStatusHistory{
			OrderID: order.ID,
			Status:  order.Status,
		}).Error; err != nil {
			return err
		}

		for _, pl := range priced {
			if err := e.settleLine(tx, &order, pl.prod, pl.item.Quantity, rate); err != nil {
				return err
			}
			lines = append(lines, settledLine{
				sellerID: pl.prod.SellerID,
				name:     pl.prod.Name,
				quantity: pl.item.Quantity,
			})
		}

		return tx.Where("buyer_id = ?", in.BuyerID).Delete(&model.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	e.notifyAfterCommit(ctx, &order, lines)
	return &order, nil
}

// BuyNow 单品立即购买：COD、平价运费（后台参数，不按距离分档），
// 快照 / 扣库存 / 通知规则与 Settle 相同，不涉及购物车。
func (e *Engine) BuyNow(ctx context.Context, in BuyNowInput) (*model.Order, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return nil, ErrMissingAddress
	}

	threshold := e.settings.Float(settings.KeyFreeShippingThreshold, settings.DefaultFreeShippingThreshold)
	rate := e.settings.Float(settings.KeyCommissionRate, settings.DefaultCommissionRate)
	flatFee := e.settings.Float(settings.KeyShippingFee, settings.DefaultShippingFee)
	partnerCost := e.settings.Float(settings.KeyDeliveryPartnerCost, settings.DefaultDeliveryPartnerCost)

	var (
		order model.Order
		lines []settledLine
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod model.Product
		if err := tx.First(&prod, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, in.ProductID)
			}
			return err
		}
		if in.Quantity > prod.Quantity {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, prod.Name)
		}

		subtotal := prod.Price * float64(in.Quantity)
		fee := pricing.Charge(subtotal, threshold, flatFee)
		order = model.Order{
			BuyerID:         in.BuyerID,
			TotalAmount:     subtotal + fee,
			PaymentMode:     model.PaymentCOD,
			ShippingAddress: in.ShippingAddress,
			Status:          model.StatusConfirmed,
			DeliveryFee:     fee,
			DeliveryCost:    partnerCost,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.OrderStatusHistory{
			OrderID: order.ID,
			Status:  order.Status,
		}).Error; err != nil {
			return err
		}

		if err := e.settleLine(tx, &order, prod, in.Quantity, rate); err != nil {
			return err
		}
		lines = append(lines, settledLine{sellerID: prod.SellerID, name: prod.Name, quantity: in.Quantity})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyAfterCommit(ctx, &order, lines)
	return &order, nil
}

// settleLine 写一条 OrderItem 快照并条件更新扣减库存。
// 扣减条件带 quantity >= ?，并发竞争同一件库存时落败方 0 行命中，
// 整单回滚 —— 依赖存储层事务而非应用层锁。
func (e *Engine) settleLine(tx *gorm.DB, order *model.Order, prod model.Product, qty int, rate float64) error {
	productID := prod.ID
	gross := prod.Price * float64(qty)
	item := model.OrderItem{
		OrderID:          order.ID,
		ProductID:        &productID,
		SellerID:         prod.SellerID,
		ProductName:      prod.Name,
		Price:            prod.Price,
		Quantity:         qty,
		CommissionAmount: gross * rate,
	}
	if err := tx.Create(&item).Error; err != nil {
		return err
	}

	res := tx.Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", prod.ID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, prod.Name)
	}
	// 扣到 0 的商品整行删除，同一事务内收尾所有引用。
	del := tx.Where("id = ? AND quantity <= 0", prod.ID).Delete(&model.Product{})
	if del.Error != nil {
		return del.Error
	}
	if del.RowsAffected == 0 {
		return nil
	}
	return purgeProductRefs(tx, prod.ID)
}

// PurgeProduct 删除商品并清理全部引用，卖家 / 管理员下架商品走这里。
func PurgeProduct(tx *gorm.DB, productID uint) error {
	if err := tx.Delete(&model.Product{}, productID).Error; err != nil {
		return err
	}
	return purgeProductRefs(tx, productID)
}

// purgeProductRefs 商品消失后的收尾：
// 所有买家购物车里的该商品行删除（否则 Count 数得到、Details 看不到，
// 结算还会卡在一条买家看不见的行上）；商品评价一并删除；
// 历史订单行的商品引用置 NULL，快照字段保住账目。
func purgeProductRefs(tx *gorm.DB, productID uint) error {
	if err := tx.Where("product_id = ?", productID).Delete(&model.CartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&model.ProductReview{}).Error; err != nil {
		return err
	}
	return tx.Model(&model.OrderItem{}).Where("product_id = ?", productID).
		Update("product_id", nil).Error
}

// notifyAfterCommit 提交成功后的旁路通知：
// 买家一条确认，每个涉及的卖家一条聚合销量。失败静默。
func (e *Engine) notifyAfterCommit(ctx context.Context, order *model.Order, lines []settledLine) {
	if r := e.recipient(ctx, order.BuyerID); r != "" {
		e.notifier.Notify(ctx, r, notify.KindOrderConfirmed,
			fmt.Sprintf("Order #%d placed. Total ₹%.2f.", order.ID, order.TotalAmount))
	}

	bySeller := make(map[uint][]string)
	for _, l := range lines {
		bySeller[l.sellerID] = append(bySeller[l.sellerID], fmt.Sprintf("%s x%d", l.name, l.quantity))
	}
	sellerIDs := make([]uint, 0, len(bySeller))
	for id := range bySeller {
		sellerIDs = append(sellerIDs, id)
	}
	sort.Slice(sellerIDs, func(i, j int) bool { return sellerIDs[i] < sellerIDs[j] })
	for _, sellerID := range sellerIDs {
		r := e.recipient(ctx, sellerID)
		if r == "" {
			continue
		}
		e.notifier.Notify(ctx, r, notify.KindSellerSale,
			fmt.Sprintf("New sale in order #%d: %s", order.ID, strings.Join(bySeller[sellerID], ", ")))
	}
}

// recipient 取用户联系方式，手机号优先，查不到返回空串（跳过通知）。
func (e *Engine) recipient(ctx context.Context, userID uint) string {
	var u model.User
	if err := e.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return ""
	}
	if u.Phone != "" {
		return u.Phone
	}
	return u.Email
}
