package services

import (
	"encoding/json"
	"fmt"

	"kahawa/internal/models"
	"kahawa/pkg/rabbitmq"
)

// OrderEvent identifies a notification-worthy moment in an order's life.
type OrderEvent string

const (
	EventOrderCreated  OrderEvent = "order.created"
	EventOrderPending  OrderEvent = "order.pending"
	EventOrderApproved OrderEvent = "order.approved"
	EventOrderRejected OrderEvent = "order.rejected"
	EventOrderCanceled OrderEvent = "order.canceled"
)

// orderEventMessages holds the customer-facing text for each event. The
// order number is interpolated into the %s placeholder.
var orderEventMessages = map[OrderEvent]string{
	EventOrderCreated: "Dear customer, a new order with order no %s, has been added.",
	EventOrderPending: "Dear customer, your order with order no %s, is now awaiting review. " +
		"You can still add, remove or update items in the order before it is reviewed.",
	EventOrderApproved: "Dear customer, your order with order no %s, has been approved and " +
		"will be delivered soon.",
	EventOrderRejected: "Dear customer, we regret to inform you that your order with order " +
		"no %s, was not accepted and thus will not be delivered. Visit our site to get more " +
		"details regarding the order's rejection.",
	EventOrderCanceled: "Dear customer, your order with order no %s, has been canceled.",
}

// eventForState maps a successful transition target to its notification event.
var eventForState = map[models.OrderState]OrderEvent{
	models.OrderPending:  EventOrderPending,
	models.OrderApproved: EventOrderApproved,
	models.OrderRejected: EventOrderRejected,
	models.OrderCanceled: EventOrderCanceled,
}

// Notifier delivers order notifications to customers. Implementations are
// best-effort: a delivery failure must never fail or roll back the order
// operation that triggered it.
type Notifier interface {
	NotifyOrderEvent(customer *models.User, event OrderEvent, order *models.Order) error
}

// NotificationJob is the message body queued for each order event. Actual
// SMS delivery is handled by a worker consuming the notification queue.
type NotificationJob struct {
	CustomerID  string     `json:"customer_id"`
	PhoneNumber string     `json:"phone_number"`
	OrderID     string     `json:"order_id"`
	Event       OrderEvent `json:"event"`
	Message     string     `json:"message"`
}

// AMQPNotifier queues notification jobs on RabbitMQ.
type AMQPNotifier struct {
	client *rabbitmq.Client
}

// NewAMQPNotifier creates a new AMQPNotifier.
func NewAMQPNotifier(client *rabbitmq.Client) *AMQPNotifier {
	return &AMQPNotifier{client: client}
}

// NotifyOrderEvent queues one notification job for the given customer and
// order event.
func (n *AMQPNotifier) NotifyOrderEvent(customer *models.User, event OrderEvent, order *models.Order) error {
	template, ok := orderEventMessages[event]
	if !ok {
		return fmt.Errorf("unknown order event %q", event)
	}

	job := NotificationJob{
		CustomerID:  customer.ID,
		PhoneNumber: customer.PhoneNumber,
		OrderID:     order.ID,
		Event:       event,
		Message:     fmt.Sprintf(template, order.ID),
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}
	return n.client.PublishNotification(body)
}
