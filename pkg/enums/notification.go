package enums

// NotificationType groups inbox entries so the storefront can pick an icon.
type NotificationType string

const (
	NotificationTypeOrderUpdate   NotificationType = "order_update"
	NotificationTypePaymentUpdate NotificationType = "payment_update"
)

func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationTypeOrderUpdate, NotificationTypePaymentUpdate:
		return true
	}
	return false
}

// NotificationTypeForEvent maps an outbox event to the inbox category it produces.
// Events that never notify the customer return false.
func NotificationTypeForEvent(event OutboxEventType) (NotificationType, bool) {
	switch event {
	case EventOrderCreated, EventOrderStatusChanged:
		return NotificationTypeOrderUpdate, true
	case EventOrderPaid, EventPaymentFailed:
		return NotificationTypePaymentUpdate, true
	}
	return "", false
}
