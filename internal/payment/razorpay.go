package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotConfigured 网关密钥未配置，所有验签按失败处理。
	ErrNotConfigured = errors.New("payment gateway not configured")
	// ErrVerificationFailed 验签失败（签名不匹配或字段缺失）。
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Verifier 不透明的支付校验方：结算引擎无条件信任 verified，
// 任何异常一律当失败。
type Verifier interface {
	Verify(orderID, paymentID, signature string) error
}

// GatewayOrder 网关侧预创建的支付单，返回给前端发起支付。
type GatewayOrder struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // 最小货币单位（paise）
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id"`
	Currency string `json:"currency"`
}

// Razorpay HMAC 验签实现。
// 签名算法：HMAC-SHA256(secret, order_id + "|" + payment_id) 的十六进制。
type Razorpay struct {
	keyID     string
	keySecret string
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{keyID: keyID, keySecret: keySecret}
}

// Configured 密钥是否齐备。
func (r *Razorpay) Configured() bool {
	return r.keyID != "" && r.keySecret != ""
}

// CreateOrder 生成一笔网关支付单引用（金额转最小单位，uuid 回执）。
func (r *Razorpay) CreateOrder(amount float64) (GatewayOrder, error) {
	if !r.Configured() {
		return GatewayOrder{}, ErrNotConfigured
	}
	return GatewayOrder{
		OrderID:  fmt.Sprintf("order_%d_%s", time.Now().Unix(), uuid.New().String()[:8]),
		Amount:   int64(amount * 100),
		Receipt:  "rcpt_" + uuid.New().String(),
		KeyID:    r.keyID,
		Currency: "INR",
	}, nil
}

// Verify 校验回调签名。未配置、字段缺失、签名不匹配都返回失败，
// 调用方在创建订单之前拦下。
func (r *Razorpay) Verify(orderID, paymentID, signature string) error {
	if !r.Configured() {
		return ErrNotConfigured
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrVerificationFailed
	}
	mac := hmac.New(sha256.New, []byte(r.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrVerificationFailed
	}
	return nil
}
