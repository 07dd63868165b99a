package model

import "time"

// CartItem 购物车行：(buyer, product) 唯一，quantity >= 1。
// 不做库存预占，入车仅校验当时库存，最终以结算时复核为准。
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BuyerID   uint `gorm:"not null;uniqueIndex:idx_cart_buyer_product" json:"buyer_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_buyer_product" json:"product_id"`
	Quantity  int  `gorm:"not null;default:1" json:"quantity"`
}

func (CartItem) TableName() string { return "cart_items" }
