package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"order_service/internal/metrics"
	"order_service/internal/models"
	"order_service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("order_service/services")

type CheckoutItem struct {
	ItemID    string          `json:"item_id" validate:"required,max=64"`
	Name      string          `json:"name" validate:"required,max=255"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity" validate:"min=1,max=100"`
}

type CustomerInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"required,min=7,max=20"`
	Address string `json:"address" validate:"required,max=1000"`
}

type CheckoutRequest struct {
	Items         []CheckoutItem       `json:"items" validate:"required,min=1,dive"`
	Customer      CustomerInput        `json:"customer" validate:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=COD ONLINE"`
	CouponCode    string               `json:"coupon_code" validate:"omitempty,max=32"`
	CheckoutKey   string               `json:"checkout_key" validate:"omitempty,max=64"`
}

//go:generate mockery --name=OrderService --output=./mocks --case=underscore
type OrderService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error)
	Get(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error)
	// Transition moves the order to target. Moving to the current status is a
	// no-op; force only matters when state skipping is enabled.
	Transition(ctx context.Context, orderNumber string, target models.OrderStatus, comment string, force bool) (*models.Order, error)
	// Dispatch books a courier manually. An empty provider means the
	// preferred one.
	Dispatch(ctx context.Context, orderNumber string, provider models.CourierProvider) (*DispatchResult, error)
	// Drain waits for background dispatches started by transitions.
	Drain(ctx context.Context) error
}

type OrderServiceConfig struct {
	AllowStateSkip bool
	// DispatchBudget bounds a background dispatch including persistence.
	DispatchBudget time.Duration
}

type orderService struct {
	writer   *OrderWriter
	coupons  CouponService
	dispatch DispatchService
	cfg      OrderServiceConfig
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewOrderService(writer *OrderWriter, coupons CouponService, dispatch DispatchService, cfg OrderServiceConfig) OrderService {
	if cfg.DispatchBudget <= 0 {
		cfg.DispatchBudget = time.Minute
	}
	return &orderService{
		writer:   writer,
		coupons:  coupons,
		dispatch: dispatch,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *orderService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Checkout")
	defer span.End()

	if err := validate.Struct(req); err != nil {
		return nil, validationError("invalid checkout request", err)
	}
	for _, item := range req.Items {
		if item.UnitPrice.IsNegative() {
			return nil, validationError(fmt.Sprintf("item %s has a negative price", item.ItemID), nil)
		}
		if !isCents(item.UnitPrice) {
			return nil, validationError(fmt.Sprintf("item %s price has more than two decimal places", item.ItemID), nil)
		}
	}

	if req.CheckoutKey != "" {
		existing, err := s.writer.orders.GetByCheckoutKey(ctx, req.CheckoutKey)
		if err == nil {
			log.WithField("order_number", existing.OrderNumber).Info("Checkout replayed, returning existing order")
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check checkout key: %w", err)
		}
	}

	order := &models.Order{
		OrderNumber:    newOrderNumber(s.now()),
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  models.PaymentPending,
		DispatchStatus: models.DispatchNone,
		Customer: models.CustomerSnapshot{
			Name:    strings.TrimSpace(req.Customer.Name),
			Phone:   strings.TrimSpace(req.Customer.Phone),
			Address: strings.TrimSpace(req.Customer.Address),
		},
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ItemID:    item.ItemID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	if req.CheckoutKey != "" {
		key := req.CheckoutKey
		order.CheckoutKey = &key
	}
	if req.PaymentMethod == models.PaymentOnline {
		ref := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		order.PaymentOrderRef = &ref
	}

	order.Subtotal = models.Subtotal(order.Items)
	order.Discount = decimal.Zero
	if req.CouponCode != "" {
		quote, err := s.coupons.Apply(ctx, req.CouponCode, order.Subtotal)
		if err != nil {
			return nil, err
		}
		order.CouponCode = quote.Code
		order.Discount = quote.Discount
	}
	order.TotalAmount = order.Subtotal.Sub(order.Discount)
	if order.TotalAmount.IsNegative() {
		order.TotalAmount = decimal.Zero
	}
	order.AppendStatus(models.StatusPlaced, s.now(), "")

	span.SetAttributes(
		attribute.String("order.number", order.OrderNumber),
		attribute.String("order.total", order.TotalAmount.StringFixed(2)),
	)

	err := s.writer.orders.Create(ctx, order)
	switch {
	case errors.Is(err, repository.ErrCouponExhausted):
		metrics.CouponRedemptions.WithLabelValues(CodeCouponLimitReached).Inc()
		return nil, newError(KindInapplicable, CodeCouponLimitReached,
			fmt.Sprintf("coupon %s has reached its usage limit", order.CouponCode), err)
	case errors.Is(err, repository.ErrDuplicateCheckout):
		return s.writer.orders.GetByCheckoutKey(ctx, req.CheckoutKey)
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	log.WithFields(log.Fields{
		"order_number":   order.OrderNumber,
		"total":          order.TotalAmount.StringFixed(2),
		"coupon":         order.CouponCode,
		"payment_method": order.PaymentMethod,
	}).Info("Order placed")

	s.writer.publish(ctx, models.OrderEvent{
		Type:          models.EventStatusChanged,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	})
	return order, nil
}

// newOrderNumber formats ORD-YYYYMMDD-XXXXXXXX.
func newOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), suffix)
}

func (s *orderService) Get(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.writer.load(ctx, orderNumber)
}

func (s *orderService) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, validationError(fmt.Sprintf("unknown order status %q", filter.Status), nil)
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.writer.orders.List(ctx, filter)
}

func (s *orderService) Transition(ctx context.Context, orderNumber string, target models.OrderStatus, comment string, force bool) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.String("order.number", orderNumber),
		attribute.String("order.target_status", string(target)),
	))
	defer span.End()

	if !target.IsValid() {
		return nil, validationError(fmt.Sprintf("unknown order status %q", target), nil)
	}

	var previous models.OrderStatus
	order, changed, err := s.writer.mutate(ctx, orderNumber, func(o *models.Order) (bool, error) {
		if o.Status == target && !o.Status.IsTerminal() {
			return false, nil
		}
		if err := s.checkTransition(o, target, force); err != nil {
			return false, err
		}
		previous = o.Status
		o.AppendStatus(target, s.now(), strings.TrimSpace(comment))
		if target == models.StatusDelivered && o.PaymentMethod == models.PaymentCOD {
			o.PaymentStatus = models.PaymentPaid
		}
		return true, nil
	}, func(o *models.Order) []models.OrderEvent {
		return []models.OrderEvent{{
			Type:           models.EventStatusChanged,
			OrderNumber:    o.OrderNumber,
			Status:         o.Status,
			PreviousStatus: previous,
			PaymentStatus:  o.PaymentStatus,
			DispatchStatus: o.DispatchStatus,
		}}
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !changed {
		return order, nil
	}

	metrics.StatusTransitions.WithLabelValues(string(previous), string(target)).Inc()
	log.WithFields(log.Fields{
		"order_number": orderNumber,
		"from":         previous,
		"to":           target,
		"forced":       force,
	}).Info("Order status changed")

	if target == models.StatusConfirmed {
		s.maybeAutoDispatch(ctx, orderNumber)
	}
	return order, nil
}

func (s *orderService) checkTransition(o *models.Order, target models.OrderStatus, force bool) error {
	reject := func(reason string) error {
		metrics.RejectedTransitions.WithLabelValues(string(o.Status), string(target)).Inc()
		return newError(KindInvalidTransition, CodeInvalidTransition,
			fmt.Sprintf("cannot move order %s from %s to %s: %s", o.OrderNumber, o.Status, target, reason), nil)
	}

	if o.Status.IsTerminal() {
		return reject("order is in a terminal state")
	}
	if models.CanTransition(o.Status, target) {
		return nil
	}
	if models.IsForwardSkip(o.Status, target) {
		if force && s.cfg.AllowStateSkip {
			return nil
		}
		return reject("skipping states requires an admin override")
	}
	return reject("transition not allowed")
}

// maybeAutoDispatch reads the dispatch settings at the moment the order is
// confirmed and books the preferred provider in the background. The
// transition has already committed and is never affected by the outcome.
func (s *orderService) maybeAutoDispatch(ctx context.Context, orderNumber string) {
	settings, err := s.dispatch.Settings(ctx)
	if err != nil {
		log.WithError(err).WithField("order_number", orderNumber).Error("Failed to read dispatch settings, skipping auto dispatch")
		return
	}
	if !settings.AutoAccept {
		return
	}

	provider := settings.PreferredProvider
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DispatchBudget)
		defer cancel()

		result, err := s.dispatch.Assign(bgCtx, orderNumber, provider)
		logger := log.WithFields(log.Fields{"order_number": orderNumber, "provider": provider})
		switch {
		case err != nil:
			logger.WithError(err).Error("Auto dispatch failed")
		case result.Unavailable:
			logger.WithField("reason", result.Reason).Warn("Auto dispatch found no courier")
		default:
			logger.Info("Auto dispatch assigned a courier")
		}
	}()
}

func (s *orderService) Dispatch(ctx context.Context, orderNumber string, provider models.CourierProvider) (*DispatchResult, error) {
	if provider == "" {
		settings, err := s.dispatch.Settings(ctx)
		if err != nil {
			return nil, err
		}
		provider = settings.PreferredProvider
	}
	return s.dispatch.Assign(ctx, orderNumber, provider)
}

func (s *orderService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background dispatches still running: %w", ctx.Err())
	}
}
