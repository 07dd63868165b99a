package model

import "time"

// Product 在售农产品：单价、库存、计量单位、归属卖家。
// 库存扣到 0 时整行硬删（购物车与新订单不可再引用），
// 历史 OrderItem 依赖自身快照字段，不受删除影响。
type Product struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string  `gorm:"size:128;not null" json:"name"`
	Category string  `gorm:"size:50;not null;index" json:"category"`
	Price    float64 `gorm:"not null" json:"price"`
	// Quantity 永不为负；结算事务内扣减并在 <=0 时删除本行。
	Quantity int    `gorm:"not null;default:0" json:"quantity"`
	Unit     string `gorm:"size:20;not null;default:kg" json:"unit"`
	SellerID uint   `gorm:"not null;index" json:"seller_id"`
}

func (Product) TableName() string { return "products" }
