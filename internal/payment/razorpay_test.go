package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	r := NewRazorpay("key_id", "key_secret")
	sig := sign("key_secret", "order_abc", "pay_xyz")
	require.NoError(t, r.Verify("order_abc", "pay_xyz", sig))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	r := NewRazorpay("key_id", "key_secret")
	sig := sign("key_secret", "order_abc", "pay_xyz")
	require.ErrorIs(t, r.Verify("order_abc", "pay_other", sig), ErrVerificationFailed)
	require.ErrorIs(t, r.Verify("order_abc", "pay_xyz", sig+"00"), ErrVerificationFailed)
	require.ErrorIs(t, r.Verify("", "pay_xyz", sig), ErrVerificationFailed)
}

func TestVerifyUnconfiguredAlwaysFails(t *testing.T) {
	r := NewRazorpay("", "")
	require.False(t, r.Configured())
	require.ErrorIs(t, r.Verify("o", "p", "s"), ErrNotConfigured)
	_, err := r.CreateOrder(100)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateOrderConvertsToMinorUnits(t *testing.T) {
	r := NewRazorpay("key_id", "key_secret")
	o, err := r.CreateOrder(560.0)
	require.NoError(t, err)
	require.Equal(t, int64(56000), o.Amount)
	require.Equal(t, "INR", o.Currency)
	require.Equal(t, "key_id", o.KeyID)
	require.NotEmpty(t, o.OrderID)
	require.NotEmpty(t, o.Receipt)
}
