package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Notification is the asynchronous callback body posted by the gateway.
type Notification struct {
	OrderID           string `json:"order_id" validate:"required"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code" validate:"required"`
	GrossAmount       string `json:"gross_amount" validate:"required"`
	SignatureKey      string `json:"signature_key" validate:"required"`
	PaymentType       string `json:"payment_type"`
}

// Signature computes SHA-512(order_id + status_code + gross_amount + server_key) in hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature reports whether the notification was signed with serverKey.
func VerifySignature(n Notification, serverKey string) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	given := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
