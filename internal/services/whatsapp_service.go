package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"order_service/internal/models"
	"order_service/internal/repository"

	log "github.com/sirupsen/logrus"
)

//go:generate mockery --name=MessageSender --output=./mocks --case=underscore
type MessageSender interface {
	SendText(ctx context.Context, phone, message string) error
}

// WhatsAppNotifier passes every event on to the next publisher and queues a
// WhatsApp message for the customer when the event is one they care about.
// Messages are sent from Run, never from the publishing goroutine, so a slow
// gateway cannot hold an order lock.
type WhatsAppNotifier struct {
	next   EventPublisher
	sender MessageSender
	orders repository.OrderRepository

	mu     sync.RWMutex
	closed bool
	queue  chan models.OrderEvent
}

func NewWhatsAppNotifier(next EventPublisher, sender MessageSender, orders repository.OrderRepository, buffer int) *WhatsAppNotifier {
	if next == nil {
		next = NoopPublisher{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &WhatsAppNotifier{
		next:   next,
		sender: sender,
		orders: orders,
		queue:  make(chan models.OrderEvent, buffer),
	}
}

func (n *WhatsAppNotifier) Publish(ctx context.Context, event models.OrderEvent) error {
	err := n.next.Publish(ctx, event)
	if !notifiable(event) {
		return err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return err
	}
	select {
	case n.queue <- event:
	default:
		log.WithFields(log.Fields{
			"order_number": event.OrderNumber,
			"event":        event.Type,
		}).Warn("Customer notification queue full, dropping message")
	}
	return err
}

// Run sends queued messages until Close is called and the queue is empty, or
// ctx is done.
func (n *WhatsAppNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-n.queue:
			if !ok {
				return
			}
			n.deliver(ctx, event)
		}
	}
}

// Close stops accepting events. Already queued events are still delivered by Run.
func (n *WhatsAppNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
}

func (n *WhatsAppNotifier) deliver(ctx context.Context, event models.OrderEvent) {
	logger := log.WithFields(log.Fields{
		"order_number": event.OrderNumber,
		"event":        event.Type,
	})

	order, err := n.orders.GetByNumber(ctx, event.OrderNumber)
	if err != nil {
		logger.WithError(err).Error("Failed to load order for customer notification")
		return
	}
	message, ok := CustomerMessage(order, event)
	if !ok || order.Customer.Phone == "" {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := n.sender.SendText(sendCtx, order.Customer.Phone, message); err != nil {
		logger.WithError(err).Warn("Failed to send customer notification")
		return
	}
	logger.Debug("Customer notified")
}

func notifiable(event models.OrderEvent) bool {
	switch event.Type {
	case models.EventCourierAssigned:
		return true
	case models.EventPaymentUpdated:
		return event.PaymentStatus == models.PaymentPaid || event.PaymentStatus == models.PaymentFailed
	case models.EventStatusChanged:
		return event.Status != models.StatusPreparation
	}
	return false
}

// CustomerMessage renders the text sent to the customer for event.
func CustomerMessage(order *models.Order, event models.OrderEvent) (string, bool) {
	number := order.OrderNumber
	total := order.TotalAmount.StringFixed(2)

	switch event.Type {
	case models.EventCourierAssigned:
		courier := event.Courier
		if courier == nil {
			courier = order.Courier
		}
		if courier == nil {
			return "", false
		}
		var b strings.Builder
		fmt.Fprintf(&b, "A delivery partner has been assigned to order %s", number)
		if courier.CourierName != "" {
			fmt.Fprintf(&b, ": %s", courier.CourierName)
			if courier.CourierPhone != "" {
				fmt.Fprintf(&b, " (%s)", courier.CourierPhone)
			}
		}
		b.WriteString(".")
		if courier.TrackingURL != "" {
			fmt.Fprintf(&b, " Track your rider at %s", courier.TrackingURL)
		}
		return b.String(), true

	case models.EventPaymentUpdated:
		switch event.PaymentStatus {
		case models.PaymentPaid:
			return fmt.Sprintf("We received your payment of %s for order %s. Thank you!", total, number), true
		case models.PaymentFailed:
			return fmt.Sprintf("Your payment for order %s did not go through. Please try again or choose cash on delivery.", number), true
		}

	case models.EventStatusChanged:
		switch event.Status {
		case models.StatusPlaced:
			return fmt.Sprintf("Hi %s, we received your order %s. Total: %s.", firstName(order.Customer.Name), number, total), true
		case models.StatusConfirmed:
			return fmt.Sprintf("Your order %s is confirmed and the kitchen is on it.", number), true
		case models.StatusOutForDelivery:
			return fmt.Sprintf("Your order %s is out for delivery.", number), true
		case models.StatusDelivered:
			return fmt.Sprintf("Your order %s has been delivered. Enjoy your meal!", number), true
		case models.StatusCancelled:
			return fmt.Sprintf("Your order %s has been cancelled. Reply to this message if you need help.", number), true
		}
	}
	return "", false
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}
