package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// ConsumerName scopes delivery dedupe keys for the inbox consumers.
const ConsumerName = "order-notifications"

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type deliveryGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer turns order and payment events into customer notifications.
type Consumer struct {
	repo         notificationWriter
	subscription receiver
	guard        deliveryGuard
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer for one subscription.
func NewConsumer(repo notificationWriter, subscription *pubsub.Subscriber, guard deliveryGuard, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("subscription required")
	}
	return newConsumer(repo, subscription, guard, logg)
}

func newConsumer(repo notificationWriter, subscription receiver, guard deliveryGuard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		guard:        guard,
		logg:         logg,
	}, nil
}

// Run receives messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

var ackResult = processResult{ack: true}

// errSkip marks events that produce no notification.
var errSkip = errors.New("no notification for event")

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id":   msg.ID,
		"event_type":   msg.Attributes["event_type"],
		"aggregate_id": msg.Attributes["aggregate_id"],
	})
	eventType, err := enums.ParseOutboxEventType(msg.Attributes["event_type"])
	if err != nil {
		c.logg.Warn(logCtx, "ignoring message with unknown event type")
		return ackResult
	}

	envelope, eventID, err := outbox.ParseEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "unusable envelope", err)
		return ackResult
	}

	notification, err := buildNotification(eventType, envelope)
	if errors.Is(err, errSkip) {
		return ackResult
	}
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return ackResult
	}
	notification.EventID = eventID

	first, err := c.guard.Claim(ctx, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !first {
		c.logg.Info(logCtx, "event already processed")
		return ackResult
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "notification insert failed", err)
		_ = c.guard.Release(ctx, envelope.EventID)
		return processResult{nack: true}
	}
	c.logg.Info(c.logg.WithField(logCtx, "user_id", notification.UserID.String()), "customer notified")
	return ackResult
}

func buildNotification(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*models.Notification, error) {
	kind, ok := enums.NotificationTypeForEvent(eventType)
	if !ok {
		return nil, errSkip
	}
	switch eventType {
	case enums.EventOrderCreated:
		var p payloads.OrderCreatedEvent
		if err := envelope.DecodeData(&p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("We received order %s. It will be processed once payment is confirmed.", p.OrderNumber)
		if p.PaymentStatus == enums.PaymentStatusPaid {
			message = fmt.Sprintf("We received order %s and it is being prepared.", p.OrderNumber)
		}
		return orderNotification(p.UserID, p.OrderID, kind, "Order received", message)

	case enums.EventOrderStatusChanged:
		var p payloads.OrderStatusChangedEvent
		if err := envelope.DecodeData(&p); err != nil {
			return nil, err
		}
		title, message := statusCopy(p)
		if title == "" {
			return nil, errSkip
		}
		return orderNotification(p.UserID, p.OrderID, kind, title, message)

	case enums.EventOrderPaid:
		var p payloads.OrderPaidEvent
		if err := envelope.DecodeData(&p); err != nil {
			return nil, err
		}
		return orderNotification(p.UserID, p.OrderID, kind, "Payment received",
			fmt.Sprintf("Payment for order %s was confirmed. We are preparing your items.", p.OrderNumber))

	case enums.EventPaymentFailed:
		var p payloads.PaymentFailedEvent
		if err := envelope.DecodeData(&p); err != nil {
			return nil, err
		}
		return orderNotification(p.UserID, p.OrderID, kind, "Payment unsuccessful",
			fmt.Sprintf("Payment for order %s was not completed (%s) and the order was cancelled.", p.OrderNumber, p.TransactionStatus))

	default:
		return nil, errSkip
	}
}

func statusCopy(p payloads.OrderStatusChangedEvent) (string, string) {
	switch p.Status {
	case enums.OrderStatusProcessing:
		return "Order in progress", fmt.Sprintf("Order %s is being prepared.", p.OrderNumber)
	case enums.OrderStatusShipped:
		message := fmt.Sprintf("Order %s is on its way.", p.OrderNumber)
		if p.TrackingNumber != nil && strings.TrimSpace(*p.TrackingNumber) != "" {
			message += " Tracking number: " + strings.TrimSpace(*p.TrackingNumber) + "."
		}
		return "Order shipped", message
	case enums.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Order %s was delivered.", p.OrderNumber)
	case enums.OrderStatusCancelled:
		message := fmt.Sprintf("Order %s was cancelled.", p.OrderNumber)
		if p.Reason != nil && strings.TrimSpace(*p.Reason) != "" {
			message = fmt.Sprintf("Order %s was cancelled. Reason: %s", p.OrderNumber, strings.TrimSpace(*p.Reason))
		}
		return "Order cancelled", message
	default:
		return "", ""
	}
}

func orderNotification(userID, orderID uuid.UUID, kind enums.NotificationType, title, message string) (*models.Notification, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id missing")
	}
	link := fmt.Sprintf("/orders/%s", orderID)
	n := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    &link,
	}
	if orderID != uuid.Nil {
		n.OrderID = &orderID
	}
	return n, nil
}
