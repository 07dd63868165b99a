package model

import "time"

// OrderStatusHistory 状态流转审计：只追加，永不更新 / 删除。
// 订单当前 status 字段怎么改都行，真正的"何时发生过什么"以这里为准。
type OrderStatusHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	OrderID uint        `gorm:"not null;index" json:"order_id"`
	Status  OrderStatus `gorm:"size:20;not null" json:"status"`
}

func (OrderStatusHistory) TableName() string { return "order_status_histories" }

// OrderNote 运营备注。公开备注会并入买家的订单时间线，私有仅后台可见。
// 文本可编辑（EditedAt 只在编辑时写入，避开 gorm 的 UpdatedAt 自动维护），
// 正常流程不删除。
type OrderNote struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`

	OrderID  uint   `gorm:"not null;index" json:"order_id"`
	AuthorID uint   `gorm:"not null" json:"author_id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	IsPublic bool   `gorm:"not null;default:false" json:"is_public"`
}

func (OrderNote) TableName() string { return "order_notes" }
