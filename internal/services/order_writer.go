package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order_service/internal/models"
	"order_service/internal/repository"

	log "github.com/sirupsen/logrus"
)

const maxWriteAttempts = 3

// OrderWriter is the single write path for existing orders. Every mutation
// runs under the order's lock and is persisted with a version check, so the
// tracking view and events always follow commit order.
type OrderWriter struct {
	orders    repository.OrderRepository
	locker    Locker
	cache     TrackingCache
	publisher EventPublisher
	cacheTTL  time.Duration
	pollAfter int
}

type WriterOptions struct {
	// Cache is optional. Leave it nil to serve tracking reads from the repository.
	Cache            TrackingCache
	Publisher        EventPublisher
	CacheTTL         time.Duration
	PollAfterSeconds int
}

func NewOrderWriter(orders repository.OrderRepository, locker Locker, opts WriterOptions) *OrderWriter {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if opts.Publisher == nil {
		opts.Publisher = NoopPublisher{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &OrderWriter{
		orders:    orders,
		locker:    locker,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		cacheTTL:  opts.CacheTTL,
		pollAfter: clampPollSeconds(opts.PollAfterSeconds),
	}
}

// mutateFunc changes the order in place and reports whether anything changed.
type mutateFunc func(order *models.Order) (bool, error)

// commitFunc runs after a successful write, still under the lock.
type commitFunc func(order *models.Order) []models.OrderEvent

func (w *OrderWriter) load(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := w.orders.GetByNumber(ctx, orderNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, CodeOrderNotFound, fmt.Sprintf("order %s not found", orderNumber), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderNumber, err)
	}
	return order, nil
}

func (w *OrderWriter) mutate(ctx context.Context, orderNumber string, fn mutateFunc, onCommit commitFunc) (*models.Order, bool, error) {
	unlock, err := w.locker.Lock(ctx, orderNumber)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock order %s: %w", orderNumber, err)
	}
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		order, err := w.load(ctx, orderNumber)
		if err != nil {
			return nil, false, err
		}

		changed, err := fn(order)
		if err != nil {
			return order, false, err
		}
		if !changed {
			return order, false, nil
		}

		err = w.orders.Update(ctx, order)
		if errors.Is(err, repository.ErrVersionConflict) {
			log.WithFields(log.Fields{
				"order_number": orderNumber,
				"attempt":      attempt,
			}).Warn("Order version conflict, retrying")
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to save order %s: %w", orderNumber, err)
		}

		w.refreshCache(ctx, order)
		if onCommit != nil {
			for _, event := range onCommit(order) {
				w.publish(ctx, event)
			}
		}
		return order, true, nil
	}

	return nil, false, newError(KindConflict, CodeOrderConflict,
		fmt.Sprintf("order %s is being modified concurrently, retry", orderNumber), repository.ErrVersionConflict)
}

func (w *OrderWriter) refreshCache(ctx context.Context, order *models.Order) {
	if w.cache == nil {
		return
	}
	view := NewTrackingView(order, w.pollAfter)
	if err := w.cache.SetTracking(ctx, order.OrderNumber, view, w.cacheTTL); err != nil {
		log.WithError(err).WithField("order_number", order.OrderNumber).Warn("Failed to refresh tracking cache")
		// a stale entry must not outlive the commit
		if err := w.cache.DeleteTracking(ctx, order.OrderNumber); err != nil {
			log.WithError(err).WithField("order_number", order.OrderNumber).Error("Failed to evict tracking cache")
		}
	}
}

func (w *OrderWriter) publish(ctx context.Context, event models.OrderEvent) {
	if w.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := w.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":        event.Type,
			"order_number": event.OrderNumber,
		}).Error("Failed to publish order event")
	}
}
