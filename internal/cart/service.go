package cart

import (
	"errors"

	"agri_market/internal/model"

	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在（或已因库存清零被删除）。
	ErrProductNotFound = errors.New("product not found")
	// ErrOutOfStock 购物车数量已达当前库存上限。
	ErrOutOfStock = errors.New("not enough stock")
	// ErrNotInCart 购物车里没有这一行。
	ErrNotInCart = errors.New("item not in cart")
)

// Line 购物车行与实时商品信息的联查结果。
// 价格 / 名称取实时值，下单时才做快照。
type Line struct {
	ProductID uint    `json:"product_id"`
	SellerID  uint    `json:"seller_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Unit      string  `json:"unit"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

// Details 购物车明细 + 小计。
type Details struct {
	Lines    []Line  `json:"lines"`
	Subtotal float64 `json:"subtotal"`
}

// Service 购物车操作。不预占库存：
// 写入时只校验当时库存，最终以结算时的复核为准。
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Add 向购物车加一件。已有行 +1，新行从 1 开始；
// 现有数量已达库存则拒绝（不部分满足）。
func (s *Service) Add(buyerID, productID uint) error {
	var prod model.Product
	if err := s.db.First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	var item model.CartItem
	err := s.db.Where("buyer_id = ? AND product_id = ?", buyerID, productID).First(&item).Error
	switch {
	case err == nil:
		if item.Quantity >= prod.Quantity {
			return ErrOutOfStock
		}
		item.Quantity++
		return s.db.Save(&item).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if prod.Quantity < 1 {
			return ErrOutOfStock
		}
		return s.db.Create(&model.CartItem{
			BuyerID:   buyerID,
			ProductID: productID,
			Quantity:  1,
		}).Error
	default:
		return err
	}
}

// Increase 行数量 +1，夹在库存上限内。
func (s *Service) Increase(buyerID, productID uint) error {
	item, err := s.find(buyerID, productID)
	if err != nil {
		return err
	}
	var prod model.Product
	if err := s.db.First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if item.Quantity >= prod.Quantity {
		return ErrOutOfStock
	}
	item.Quantity++
	return s.db.Save(item).Error
}

// Decrease 行数量 -1，最低 1（要删行走 Remove）。
func (s *Service) Decrease(buyerID, productID uint) error {
	item, err := s.find(buyerID, productID)
	if err != nil {
		return err
	}
	if item.Quantity <= 1 {
		return nil
	}
	item.Quantity--
	return s.db.Save(item).Error
}

// Remove 删除一行。
func (s *Service) Remove(buyerID, productID uint) error {
	return s.db.Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&model.CartItem{}).Error
}

// Clear 清空某买家的全部购物车行。
func (s *Service) Clear(buyerID uint) error {
	return s.db.Where("buyer_id = ?", buyerID).Delete(&model.CartItem{}).Error
}

// Details 联查实时商品信息并计算小计。
// 商品已被删除的行（库存清零）不计入明细。
func (s *Service) Details(buyerID uint) (Details, error) {
	var lines []Line
	err := s.db.Model(&model.CartItem{}).
		Select("cart_items.product_id, products.seller_id, products.name, products.price, products.unit, cart_items.quantity, products.price * cart_items.quantity AS total").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.buyer_id = ?", buyerID).
		Order("cart_items.id").
		Scan(&lines).Error
	if err != nil {
		return Details{}, err
	}

	var subtotal float64
	for _, l := range lines {
		subtotal += l.Total
	}
	return Details{Lines: lines, Subtotal: subtotal}, nil
}

// Count 购物车总件数（导航栏角标）。
func (s *Service) Count(buyerID uint) (int64, error) {
	var n int64
	err := s.db.Model(&model.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("buyer_id = ?", buyerID).
		Scan(&n).Error
	return n, err
}

func (s *Service) find(buyerID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := s.db.Where("buyer_id = ? AND product_id = ?", buyerID, productID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotInCart
		}
		return nil, err
	}
	return &item, nil
}
