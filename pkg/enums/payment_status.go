package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus tracks where an order sits with the payment gateway.
// unpaid: no gateway callback yet. pending: the buyer opened a payment
// (bank transfer, e-wallet) that has not settled.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusUnpaid, PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsFinal reports statuses that later gateway callbacks must not rewrite.
// Notifications arrive out of order, so a late "expire" after a
// settlement is ignored.
func (p PaymentStatus) IsFinal() bool {
	return p == PaymentStatusPaid || p == PaymentStatusFailed || p == PaymentStatusRefunded
}

// ParsePaymentStatus converts raw input, case-insensitively, into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return status, nil
}
