package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// VerifyNotificationSignature checks the gateway webhook signature:
// sha512(order_id + status_code + gross_amount + server key).
func (a *Adapter) VerifyNotificationSignature(orderID, statusCode, grossAmount, signature string) bool {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + a.cfg.ServerKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
