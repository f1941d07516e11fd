package services

import (
	"context"
	"time"

	"order_service/internal/models"
	"order_service/pkg/courier"

	"github.com/go-playground/validator/v10"
)

//go:generate mockery --name=Locker --output=./mocks --case=underscore
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned func
	// releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

//go:generate mockery --name=TrackingCache --output=./mocks --case=underscore
type TrackingCache interface {
	GetTracking(ctx context.Context, orderNumber string, dest interface{}) error
	SetTracking(ctx context.Context, orderNumber string, view interface{}, ttl time.Duration) error
	SetTrackingIfAbsent(ctx context.Context, orderNumber string, view interface{}, ttl time.Duration) (bool, error)
	DeleteTracking(ctx context.Context, orderNumber string) error
}

//go:generate mockery --name=EventPublisher --output=./mocks --case=underscore
type EventPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

// CourierProvider is the booking contract implemented by the clients in pkg/courier.
//
//go:generate mockery --dir=../../pkg/courier --name=Provider --structname=CourierProvider --filename=courier_provider.go --output=./mocks
type CourierProvider = courier.Provider

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.OrderEvent) error {
	return nil
}

var validate = validator.New()
