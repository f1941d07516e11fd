package courier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

var ErrProviderDisabled = errors.New("courier provider is disabled")

type VehicleType string

const (
	TwoWheeler   VehicleType = "TWO_WHEELER"
	ThreeWheeler VehicleType = "THREE_WHEELER"
	FourWheeler  VehicleType = "FOUR_WHEELER"
	Unknown      VehicleType = "UNKNOWN"
)

type Item struct {
	Name     string
	Quantity int
}

type DeliveryRequest struct {
	OrderNumber   string
	CustomerName  string
	CustomerPhone string
	DropAddress   string
	PickupAddress string
	OrderValue    decimal.Decimal
	Items         []Item
}

// Delivery is a booking confirmed by a provider, already translated into the
// shared vocabulary.
type Delivery struct {
	ProviderRef  string
	CourierName  string
	CourierPhone string
	TrackingURL  string
	Vehicle      VehicleType
}

// Provider is a courier service that can book a delivery for an order.
type Provider interface {
	Name() string
	IsEnabled() bool
	CreateDelivery(ctx context.Context, req DeliveryRequest) (*Delivery, error)
}

// Breaker guards calls to a provider.
type Breaker interface {
	Execute(fn func() (interface{}, error)) (interface{}, error)
}

type passthrough struct{}

func (passthrough) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return fn()
}

type Config struct {
	Enabled       bool
	BaseURL       string
	APIKey        string
	PickupAddress string
	// Timeout bounds one booking including every retry.
	Timeout time.Duration
	Retries int
}

// AttemptTimeout splits Timeout evenly across the first attempt and its
// retries so a slow attempt cannot use up the whole budget.
func (c Config) AttemptTimeout() time.Duration {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	return timeout / time.Duration(retries+1)
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func newHTTPClient(cfg Config) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.AttemptTimeout()).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

func truncate(s string) string {
	const limit = 256
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
