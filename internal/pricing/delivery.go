package pricing

import "math"

// DeliveryQuote 一次配送报价：Fee 是向买家收的运费，
// Cost 是平台付给配送方的内部成本，两者独立核算，
// Fee - Cost 即单均配送盈亏（可为负）。
type DeliveryQuote struct {
	Fee  float64 `json:"fee"`
	Cost float64 `json:"cost"`
}

// 距离分档（上界含等于）。超出最后一档或距离非法都落到最高档。
type tier struct {
	maxKm float64
	fee   float64
	cost  float64
}

var tiers = []tier{
	{maxKm: 5, fee: 40, cost: 30},
	{maxKm: 15, fee: 60, cost: 40},
	{maxKm: 30, fee: 90, cost: 55},
}

// 兜底档：>30km 或距离缺失 / 非法。
var fallbackTier = tier{fee: 150, cost: 100}

// Quote 按距离出配送报价。纯函数、全函数：
// 非法输入（<=0、NaN、Inf）不报错，直接按最高档计。
func Quote(distanceKm float64) DeliveryQuote {
	if distanceKm <= 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return DeliveryQuote{Fee: fallbackTier.fee, Cost: fallbackTier.cost}
	}
	for _, t := range tiers {
		if distanceKm <= t.maxKm {
			return DeliveryQuote{Fee: t.fee, Cost: t.cost}
		}
	}
	return DeliveryQuote{Fee: fallbackTier.fee, Cost: fallbackTier.cost}
}

// Charge 计算实际向买家收取的运费：
// 小计达到免运费门槛则收 0，配送成本不随豁免变化（平台自担）。
func Charge(subtotal, threshold, fee float64) float64 {
	if subtotal >= threshold {
		return 0
	}
	return fee
}
