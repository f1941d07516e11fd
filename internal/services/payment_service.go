package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"order_service/internal/metrics"
	"order_service/internal/models"
	"order_service/internal/repository"

	log "github.com/sirupsen/logrus"
)

type PaymentCallback struct {
	OrderRef   string `json:"order_ref" validate:"required,max=128"`
	PaymentRef string `json:"payment_ref" validate:"required,max=128"`
	Signature  string `json:"signature" validate:"required,hexadecimal"`
}

//go:generate mockery --name=PaymentService --output=./mocks --case=underscore
type PaymentService interface {
	Sign(orderRef, paymentRef string) string
	// Verify checks the gateway signature in constant time.
	Verify(orderRef, paymentRef, signature string) error
	ConfirmPayment(ctx context.Context, callback PaymentCallback) (*models.Order, error)
	RecordFailure(ctx context.Context, orderNumber, reason string) (*models.Order, error)
}

type paymentService struct {
	secret []byte
	writer *OrderWriter
}

func NewPaymentService(secret string, writer *OrderWriter) PaymentService {
	if secret == "" {
		log.Warn("PAYMENT_WEBHOOK_SECRET is empty, every payment callback will be rejected")
	}
	return &paymentService{secret: []byte(secret), writer: writer}
}

func (s *paymentService) Sign(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *paymentService) Verify(orderRef, paymentRef, signature string) error {
	if len(s.secret) == 0 {
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		return newError(KindSignatureMismatch, CodeSignatureMismatch, "payment signature verification is not configured", nil)
	}

	expected := []byte(s.Sign(orderRef, paymentRef))
	provided := []byte(strings.ToLower(strings.TrimSpace(signature)))
	if !hmac.Equal(expected, provided) {
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		return newError(KindSignatureMismatch, CodeSignatureMismatch, "payment signature does not match", nil)
	}

	metrics.PaymentVerifications.WithLabelValues("verified").Inc()
	return nil
}

func (s *paymentService) ConfirmPayment(ctx context.Context, callback PaymentCallback) (*models.Order, error) {
	if err := validate.Struct(callback); err != nil {
		return nil, validationError("invalid payment callback", err)
	}
	if err := s.Verify(callback.OrderRef, callback.PaymentRef, callback.Signature); err != nil {
		log.WithFields(log.Fields{
			"order_ref":   callback.OrderRef,
			"payment_ref": callback.PaymentRef,
		}).Warn("Payment callback rejected")
		return nil, err
	}

	pending, err := s.writer.orders.GetByPaymentOrderRef(ctx, callback.OrderRef)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, CodeOrderNotFound, fmt.Sprintf("no order for payment reference %s", callback.OrderRef), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order for payment %s: %w", callback.OrderRef, err)
	}

	order, changed, err := s.writer.mutate(ctx, pending.OrderNumber, func(o *models.Order) (bool, error) {
		if o.PaymentStatus == models.PaymentPaid {
			if o.PaymentRef == callback.PaymentRef {
				return false, nil
			}
			return false, newError(KindConflict, CodeAlreadyPaid,
				fmt.Sprintf("order %s is already paid with a different payment", o.OrderNumber), nil)
		}
		o.PaymentStatus = models.PaymentPaid
		o.PaymentRef = callback.PaymentRef
		return true, nil
	}, paymentEvent)
	if err != nil {
		return nil, err
	}

	if changed {
		log.WithFields(log.Fields{
			"order_number": order.OrderNumber,
			"payment_ref":  callback.PaymentRef,
		}).Info("Payment confirmed")
	}
	return order, nil
}

func (s *paymentService) RecordFailure(ctx context.Context, orderNumber, reason string) (*models.Order, error) {
	order, changed, err := s.writer.mutate(ctx, orderNumber, func(o *models.Order) (bool, error) {
		if o.PaymentStatus == models.PaymentPaid || o.PaymentStatus == models.PaymentFailed {
			return false, nil
		}
		o.PaymentStatus = models.PaymentFailed
		return true, nil
	}, paymentEvent)
	if err != nil {
		return nil, err
	}

	if changed {
		log.WithFields(log.Fields{
			"order_number": orderNumber,
			"reason":       reason,
		}).Warn("Payment failed")
	}
	return order, nil
}

func paymentEvent(o *models.Order) []models.OrderEvent {
	return []models.OrderEvent{{
		Type:          models.EventPaymentUpdated,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
	}}
}
