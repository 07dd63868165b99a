package redis

import "fmt"

// PayoutLockKey 标记某卖家正在执行打款，串行化并发打款请求。
func PayoutLockKey(sellerID uint) string {
	return fmt.Sprintf("agri_market:payout:lock:%d", sellerID)
}

// CheckoutRateKey 结算接口限流键（按买家，解析失败降级按 IP）。
func CheckoutRateKey(buyerID uint) string {
	return fmt.Sprintf("agri_market:rate:checkout:buyer:%d", buyerID)
}

// CheckoutRateIPKey 限流降级键。
func CheckoutRateIPKey(ip string) string {
	return fmt.Sprintf("agri_market:rate:checkout:ip:%s", ip)
}
