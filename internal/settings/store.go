package settings

import (
	"errors"
	"strconv"

	"agri_market/internal/model"

	"gorm.io/gorm"
)

// 业务参数键名与兜底默认值。
// 任何 key 缺失或值损坏都回退默认值，定价计算没有失败路径。
const (
	KeyShippingFee           = "shipping_fee"
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyDeliveryPartnerCost   = "delivery_partner_cost"
	KeyCommissionRate        = "commission_rate"

	DefaultShippingFee           = 60.0
	DefaultFreeShippingThreshold = 600.0
	DefaultDeliveryPartnerCost   = 45.0
	DefaultCommissionRate        = 0.10
)

// Store 每次调用都重新查库（不做进程级缓存），
// 后台改参数下一个请求即生效，无需重启。
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// String 读取字符串值，缺失返回 fallback。
func (s *Store) String(key, fallback string) string {
	var row model.SiteSetting
	if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
		return fallback
	}
	return row.Value
}

// Float 读取数值参数，缺失或解析失败静默返回 fallback。
func (s *Store) Float(key string, fallback float64) float64 {
	var row model.SiteSetting
	if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(row.Value, 64)
	if err != nil {
		return fallback
	}
	return v
}

// Int 同 Float，取整型参数。
func (s *Store) Int(key string, fallback int) int {
	var row model.SiteSetting
	if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
		return fallback
	}
	v, err := strconv.Atoi(row.Value)
	if err != nil {
		return fallback
	}
	return v
}

// Put 写入 / 覆盖一个参数。
func (s *Store) Put(key, value string) error {
	row := model.SiteSetting{Key: key, Value: value}
	return s.db.Save(&row).Error
}

// All 返回全部参数（后台设置页用）。
func (s *Store) All() (map[string]string, error) {
	var rows []model.SiteSetting
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// SeedDefaults 首次启动写入默认参数，已存在的 key 不覆盖。
func SeedDefaults(db *gorm.DB) error {
	defaults := map[string]string{
		KeyShippingFee:           strconv.FormatFloat(DefaultShippingFee, 'f', -1, 64),
		KeyFreeShippingThreshold: strconv.FormatFloat(DefaultFreeShippingThreshold, 'f', -1, 64),
		KeyDeliveryPartnerCost:   strconv.FormatFloat(DefaultDeliveryPartnerCost, 'f', -1, 64),
		KeyCommissionRate:        strconv.FormatFloat(DefaultCommissionRate, 'f', -1, 64),
	}
	for k, v := range defaults {
		var row model.SiteSetting
		err := db.Where("key = ?", k).First(&row).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&model.SiteSetting{Key: k, Value: v}).Error; err != nil {
			return err
		}
	}
	return nil
}
