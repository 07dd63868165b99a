package model

import "time"

// ProductReview 商品评价：每个买家对同一商品最多一条，
// 且必须真正买到过（Delivered / Completed 订单里出现过该商品）。
// 商品删除时评价随之删除。
type ProductReview struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ProductID uint `gorm:"not null;uniqueIndex:idx_review_buyer_product" json:"product_id"`
	BuyerID   uint `gorm:"not null;uniqueIndex:idx_review_buyer_product" json:"buyer_id"`
	// Rating 1~5 星
	Rating     int    `gorm:"not null" json:"rating"`
	ReviewText string `gorm:"type:text" json:"review_text"`
}

func (ProductReview) TableName() string { return "product_reviews" }

// Feedback 平台整体反馈（不挂在具体商品上），后台统一查看。
type Feedback struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	BuyerID uint   `gorm:"not null;index" json:"buyer_id"`
	Rating  int    `gorm:"not null" json:"rating"`
	Message string `gorm:"type:text;not null" json:"message"`
}

func (Feedback) TableName() string { return "feedback" }
