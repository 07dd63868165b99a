package model

// SiteSetting 可热改的业务参数，key -> 字符串值。
// 读取方自带类型化默认值，缺 key / 脏值都静默回退，绝不让计算失败。
type SiteSetting struct {
	Key   string `gorm:"primarykey;size:50" json:"key"`
	Value string `gorm:"size:200;not null" json:"value"`
}

func (SiteSetting) TableName() string { return "site_settings" }

// AllModels 供 AutoMigrate 一次性建表。
func AllModels() []any {
	return []any{
		&User{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&OrderNote{},
		&ProductReview{},
		&Feedback{},
		&Payout{},
		&SiteSetting{},
	}
}
