package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order_service/internal/metrics"
	"order_service/internal/models"
	"order_service/internal/repository"
	"order_service/pkg/courier"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DispatchResult is either an assignment or the reason none could be made.
type DispatchResult struct {
	Assignment  *models.CourierAssignment `json:"assignment,omitempty"`
	Unavailable bool                      `json:"unavailable"`
	Reason      string                    `json:"reason,omitempty"`
}

type DispatchSettingsInput struct {
	AutoAccept        bool   `json:"auto_accept"`
	PreferredProvider string `json:"preferred_provider" validate:"required"`
	UpdatedBy         string `json:"updated_by" validate:"max=64"`
}

type DispatchService interface {
	// Assign books a courier for the order. Provider failures are reported as
	// an Unavailable result, never as an error.
	Assign(ctx context.Context, orderNumber string, provider models.CourierProvider) (*DispatchResult, error)
	Settings(ctx context.Context) (*models.DispatchSettings, error)
	UpdateSettings(ctx context.Context, input DispatchSettingsInput) (*models.DispatchSettings, error)
}

type dispatchService struct {
	writer    *OrderWriter
	settings  repository.SettingsRepository
	providers map[models.CourierProvider]CourierProvider
	timeout   time.Duration
	inflight  singleflight.Group
}

func NewDispatchService(writer *OrderWriter, settings repository.SettingsRepository, providers []CourierProvider, timeout time.Duration) DispatchService {
	byName := make(map[models.CourierProvider]CourierProvider, len(providers))
	for _, p := range providers {
		byName[models.CourierProvider(p.Name())] = p
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &dispatchService{
		writer:    writer,
		settings:  settings,
		providers: byName,
		timeout:   timeout,
	}
}

func (s *dispatchService) Assign(ctx context.Context, orderNumber string, provider models.CourierProvider) (*DispatchResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, validationError(fmt.Sprintf("unknown courier provider %q", provider), nil)
	}

	// one booking per order at a time within this process
	out, err, _ := s.inflight.Do(orderNumber, func() (interface{}, error) {
		return s.assign(ctx, orderNumber, p)
	})
	if err != nil {
		return nil, err
	}
	return out.(*DispatchResult), nil
}

func (s *dispatchService) assign(ctx context.Context, orderNumber string, p CourierProvider) (*DispatchResult, error) {
	provider := models.CourierProvider(p.Name())
	logger := log.WithFields(log.Fields{"order_number": orderNumber, "provider": provider})

	var existing *models.CourierAssignment
	var inProgress bool
	claimed, changed, err := s.writer.mutate(ctx, orderNumber, func(o *models.Order) (bool, error) {
		existing, inProgress = nil, false
		if o.Courier != nil {
			existing = o.Courier
			return false, nil
		}
		if o.Status.IsTerminal() {
			return false, newError(KindConflict, CodeNotDispatchable,
				fmt.Sprintf("order %s is %s and cannot be dispatched", o.OrderNumber, o.Status), nil)
		}
		if o.DispatchStatus == models.DispatchRequested && time.Since(o.UpdatedAt) < 2*s.timeout {
			inProgress = true
			return false, nil
		}
		if !p.IsEnabled() {
			o.DispatchStatus = models.DispatchUnavailable
			o.DispatchNote = fmt.Sprintf("%s is disabled", provider)
			return true, nil
		}
		o.DispatchStatus = models.DispatchRequested
		o.DispatchNote = fmt.Sprintf("requested from %s", provider)
		return true, nil
	}, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case existing != nil:
		logger.Debug("Order already has a courier")
		return &DispatchResult{Assignment: existing}, nil
	case inProgress:
		return &DispatchResult{Unavailable: true, Reason: "dispatch already in progress"}, nil
	case changed && claimed.DispatchStatus == models.DispatchUnavailable:
		metrics.DispatchOutcomes.WithLabelValues(string(provider), "disabled").Inc()
		logger.Info("Courier provider disabled, dispatch skipped")
		return &DispatchResult{Unavailable: true, Reason: claimed.DispatchNote}, nil
	}

	delivery, callErr := s.call(ctx, p, deliveryRequest(claimed))
	return s.record(ctx, orderNumber, provider, delivery, callErr)
}

type providerResult struct {
	delivery *courier.Delivery
	err      error
}

// call runs the provider request outside the order lock, bounded by the
// dispatch timeout.
func (s *dispatchService) call(ctx context.Context, p CourierProvider, req courier.DeliveryRequest) (*courier.Delivery, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resultCh := make(chan providerResult, 1)
	go func() {
		d, err := p.CreateDelivery(callCtx, req)
		resultCh <- providerResult{delivery: d, err: err}
	}()

	var res providerResult
	select {
	case res = <-resultCh:
	case <-callCtx.Done():
		res = providerResult{err: fmt.Errorf("%s did not respond within %s: %w", p.Name(), s.timeout, callCtx.Err())}
	}
	metrics.DispatchDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if res.err == nil && res.delivery == nil {
		res.err = errors.New("provider returned no delivery")
	}
	return res.delivery, res.err
}

func (s *dispatchService) record(ctx context.Context, orderNumber string, provider models.CourierProvider, delivery *courier.Delivery, callErr error) (*DispatchResult, error) {
	logger := log.WithFields(log.Fields{"order_number": orderNumber, "provider": provider})

	// persisting must not be cut short by the caller once a booking exists
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var result DispatchResult
	var closed bool
	_, _, err := s.writer.mutate(persistCtx, orderNumber, func(o *models.Order) (bool, error) {
		closed = false
		if o.Courier != nil {
			result = DispatchResult{Assignment: o.Courier}
			return false, nil
		}
		// the order may have been cancelled while the provider call was in flight
		if o.Status.IsTerminal() {
			closed = true
			reason := fmt.Sprintf("order %s before courier was booked", o.Status)
			result = DispatchResult{Unavailable: true, Reason: reason}
			o.DispatchStatus = models.DispatchUnavailable
			o.DispatchNote = reason
			return true, nil
		}
		if callErr != nil {
			reason := fmt.Sprintf("%s unavailable: %v", provider, callErr)
			result = DispatchResult{Unavailable: true, Reason: reason}
			o.DispatchStatus = models.DispatchUnavailable
			o.DispatchNote = reason
			return true, nil
		}
		o.Courier = &models.CourierAssignment{
			Provider:     provider,
			CourierName:  delivery.CourierName,
			CourierPhone: delivery.CourierPhone,
			TrackingURL:  delivery.TrackingURL,
			ProviderRef:  delivery.ProviderRef,
			VehicleType:  models.VehicleType(delivery.Vehicle),
			AssignedAt:   time.Now(),
		}
		o.DispatchStatus = models.DispatchAssigned
		o.DispatchNote = ""
		result = DispatchResult{Assignment: o.Courier}
		return true, nil
	}, func(o *models.Order) []models.OrderEvent {
		if o.Courier == nil {
			return nil
		}
		return []models.OrderEvent{{
			Type:           models.EventCourierAssigned,
			OrderNumber:    o.OrderNumber,
			Status:         o.Status,
			DispatchStatus: o.DispatchStatus,
			Courier:        o.Courier,
		}}
	})
	if err != nil {
		if callErr == nil {
			logger.WithError(err).WithField("provider_ref", delivery.ProviderRef).Error("Courier booked but assignment could not be saved")
		}
		return nil, err
	}

	if closed {
		metrics.DispatchOutcomes.WithLabelValues(string(provider), "order_closed").Inc()
		if callErr == nil {
			logger.WithField("provider_ref", delivery.ProviderRef).Warn("Courier booked for a closed order, booking must be voided with the provider")
		} else {
			logger.WithError(callErr).Info("Order closed during dispatch")
		}
		return &result, nil
	}

	if result.Unavailable {
		metrics.DispatchOutcomes.WithLabelValues(string(provider), "unavailable").Inc()
		logger.WithError(callErr).Warn("Courier dispatch unavailable")
	} else {
		metrics.DispatchOutcomes.WithLabelValues(string(provider), "assigned").Inc()
		logger.WithField("provider_ref", result.Assignment.ProviderRef).Info("Courier assigned")
	}
	return &result, nil
}

func deliveryRequest(o *models.Order) courier.DeliveryRequest {
	req := courier.DeliveryRequest{
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.Customer.Name,
		CustomerPhone: o.Customer.Phone,
		DropAddress:   o.Customer.Address,
		OrderValue:    o.TotalAmount,
	}
	for _, item := range o.Items {
		req.Items = append(req.Items, courier.Item{Name: item.Name, Quantity: item.Quantity})
	}
	return req
}

func defaultDispatchSettings() *models.DispatchSettings {
	return &models.DispatchSettings{
		AutoAccept:        false,
		PreferredProvider: models.ProviderUber,
		IsActive:          true,
	}
}

func (s *dispatchService) Settings(ctx context.Context) (*models.DispatchSettings, error) {
	settings, err := s.settings.GetDispatchSettings(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return defaultDispatchSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dispatch settings: %w", err)
	}
	return settings, nil
}

func (s *dispatchService) UpdateSettings(ctx context.Context, input DispatchSettingsInput) (*models.DispatchSettings, error) {
	if err := validate.Struct(input); err != nil {
		return nil, validationError("invalid dispatch settings", err)
	}
	provider, err := models.ParseCourierProvider(input.PreferredProvider)
	if err != nil {
		return nil, validationError(err.Error(), nil)
	}
	if _, ok := s.providers[provider]; !ok {
		return nil, validationError(fmt.Sprintf("courier provider %s is not configured", provider), nil)
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	settings.AutoAccept = input.AutoAccept
	settings.PreferredProvider = provider
	settings.UpdatedBy = input.UpdatedBy
	if err := s.settings.UpdateDispatchSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save dispatch settings: %w", err)
	}

	log.WithFields(log.Fields{
		"auto_accept":        settings.AutoAccept,
		"preferred_provider": settings.PreferredProvider,
		"updated_by":         settings.UpdatedBy,
	}).Info("Dispatch settings updated")
	return settings, nil
}
