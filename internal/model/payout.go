package model

import "time"

// Payout 一次打款事件（非余额）：创建后不可变。
// Amount 为净额（毛额 - 佣金），CommissionTotal 为本次扣留的佣金合计。
type Payout struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	SellerID        uint    `gorm:"not null;index" json:"seller_id"`
	Amount          float64 `gorm:"not null" json:"amount"`
	CommissionTotal float64 `gorm:"not null" json:"commission_total"`
	TransactionRef  string  `gorm:"size:64;uniqueIndex;not null" json:"transaction_ref"`
	ItemCount       int     `gorm:"not null" json:"item_count"`
}

func (Payout) TableName() string { return "payouts" }
