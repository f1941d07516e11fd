package services

import (
	"context"
	"time"

	"order_service/internal/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	minPollSeconds     = 10
	maxPollSeconds     = 30
	defaultPollSeconds = 15
)

// TrackingView is what the tracker page polls. It only ever reflects a
// committed order.
type TrackingView struct {
	OrderNumber      string                    `json:"order_number"`
	Status           models.OrderStatus        `json:"status"`
	StatusHistory    []models.StatusEntry      `json:"status_history"`
	Items            []models.OrderItem        `json:"items"`
	Subtotal         decimal.Decimal           `json:"subtotal"`
	Discount         decimal.Decimal           `json:"discount"`
	TotalAmount      decimal.Decimal           `json:"total_amount"`
	DeliveryAddress  string                    `json:"delivery_address"`
	PaymentMethod    models.PaymentMethod      `json:"payment_method"`
	PaymentStatus    models.PaymentStatus      `json:"payment_status"`
	DispatchStatus   models.DispatchStatus     `json:"dispatch_status"`
	Courier          *models.CourierAssignment `json:"courier,omitempty"`
	Final            bool                      `json:"final"`
	UpdatedAt        time.Time                 `json:"updated_at"`
	PollAfterSeconds int                       `json:"poll_after_seconds"`
}

func NewTrackingView(o *models.Order, pollAfter int) *TrackingView {
	return &TrackingView{
		OrderNumber:      o.OrderNumber,
		Status:           o.Status,
		StatusHistory:    append([]models.StatusEntry(nil), o.StatusHistory...),
		Items:            append([]models.OrderItem(nil), o.Items...),
		Subtotal:         o.Subtotal,
		Discount:         o.Discount,
		TotalAmount:      o.TotalAmount,
		DeliveryAddress:  o.Customer.Address,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		DispatchStatus:   o.DispatchStatus,
		Courier:          o.Courier,
		Final:            o.Status.IsTerminal(),
		UpdatedAt:        o.UpdatedAt,
		PollAfterSeconds: pollAfter,
	}
}

func clampPollSeconds(secs int) int {
	if secs <= 0 {
		return defaultPollSeconds
	}
	if secs < minPollSeconds {
		return minPollSeconds
	}
	if secs > maxPollSeconds {
		return maxPollSeconds
	}
	return secs
}

//go:generate mockery --name=TrackingService --output=./mocks --case=underscore
type TrackingService interface {
	Get(ctx context.Context, orderNumber string) (*TrackingView, error)
}

type trackingService struct {
	writer *OrderWriter
}

func NewTrackingService(writer *OrderWriter) TrackingService {
	return &trackingService{writer: writer}
}

// Get never takes the order lock. Cache misses are filled with a set-if-absent
// so a slow reader cannot overwrite a view written by a later commit.
func (s *trackingService) Get(ctx context.Context, orderNumber string) (*TrackingView, error) {
	cache := s.writer.cache
	if cache != nil {
		var view TrackingView
		if err := cache.GetTracking(ctx, orderNumber, &view); err == nil {
			view.PollAfterSeconds = s.writer.pollAfter
			return &view, nil
		}
	}

	order, err := s.writer.load(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	view := NewTrackingView(order, s.writer.pollAfter)

	if cache != nil {
		if _, err := cache.SetTrackingIfAbsent(ctx, orderNumber, view, s.writer.cacheTTL); err != nil {
			log.WithError(err).WithField("order_number", orderNumber).Debug("Failed to fill tracking cache")
		}
	}
	return view, nil
}
