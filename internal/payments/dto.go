package payments

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// PaymentSession is what a client needs to open the hosted payment page.
type PaymentSession struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	PaymentURL  string    `json:"paymentUrl"`
	SnapToken   string    `json:"snapToken"`
}

// NotificationResult reports how a gateway callback changed an order.
type NotificationResult struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	OrderStatus   enums.OrderStatus   `json:"orderStatus"`
	Changed       bool                `json:"changed"`
	Duplicate     bool                `json:"duplicate"`
}

type outcome int

const (
	outcomeIgnored outcome = iota
	outcomePaid
	outcomePending
	outcomeFailed
)

// classify maps a gateway transaction status onto an order outcome.
// A capture counts as paid only when the fraud check accepted it.
func classify(transactionStatus, fraudStatus string) outcome {
	status := enums.GatewayTransactionStatus(strings.ToLower(strings.TrimSpace(transactionStatus)))
	switch status {
	case enums.GatewayStatusCapture:
		if enums.GatewayFraudStatus(strings.ToLower(strings.TrimSpace(fraudStatus))) == enums.GatewayFraudAccept {
			return outcomePaid
		}
		return outcomeIgnored
	case enums.GatewayStatusSettlement:
		return outcomePaid
	case enums.GatewayStatusPending:
		return outcomePending
	case enums.GatewayStatusDeny, enums.GatewayStatusExpire, enums.GatewayStatusCancel:
		return outcomeFailed
	default:
		return outcomeIgnored
	}
}

// splitName turns "Dewi Lestari Putri" into ("Dewi", "Lestari Putri").
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
