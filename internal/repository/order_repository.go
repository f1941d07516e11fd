package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order_service/internal/models"

	"gorm.io/gorm"
)

type OrderFilter struct {
	Status models.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	// Create inserts the order with its items and first history entry. When
	// the order carries a coupon code the coupon's usage is incremented in the
	// same transaction; ErrCouponExhausted aborts the insert.
	Create(ctx context.Context, order *models.Order) error
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetByCheckoutKey(ctx context.Context, key string) (*models.Order, error)
	GetByPaymentOrderRef(ctx context.Context, ref string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// Update persists mutable fields, new history entries and a new courier
	// assignment if order.Version still matches the stored row.
	Update(ctx context.Context, order *models.Order) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.CouponCode != "" {
			res := tx.Model(&models.Coupon{}).
				Where("code = ? AND is_active = ? AND (usage_limit IS NULL OR used_count < usage_limit)", order.CouponCode, true).
				UpdateColumn("used_count", gorm.Expr("used_count + 1"))
			if res.Error != nil {
				return fmt.Errorf("failed to redeem coupon: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrCouponExhausted
			}
		}
		return tx.Create(order).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) && order.CheckoutKey != nil {
		return ErrDuplicateCheckout
	}
	return err
}

func (r *orderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		Preload("Courier")
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.first(ctx, "order_number = ?", orderNumber)
}

func (r *orderRepository) GetByCheckoutKey(ctx context.Context, key string) (*models.Order, error) {
	return r.first(ctx, "checkout_key = ?", key)
}

func (r *orderRepository) GetByPaymentOrderRef(ctx context.Context, ref string) (*models.Order, error) {
	return r.first(ctx, "payment_order_ref = ?", ref)
}

func (r *orderRepository) first(ctx context.Context, query string, arg interface{}) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).Where(query, arg).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	byStatus := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			return db.Where("status = ?", filter.Status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Scopes(byStatus).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := r.preloaded(ctx).
		Scopes(byStatus).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]interface{}{
				"status":          order.Status,
				"payment_status":  order.PaymentStatus,
				"payment_ref":     order.PaymentRef,
				"dispatch_status": order.DispatchStatus,
				"dispatch_note":   order.DispatchNote,
				"version":         order.Version + 1,
				"updated_at":      time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		for i := range order.StatusHistory {
			entry := &order.StatusHistory[i]
			if entry.ID != 0 {
				continue
			}
			entry.OrderID = order.ID
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to append status history: %w", err)
			}
		}

		if order.Courier != nil && order.Courier.ID == 0 {
			order.Courier.OrderID = order.ID
			if err := tx.Create(order.Courier).Error; err != nil {
				return fmt.Errorf("failed to save courier assignment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrVersionConflict
		}
		return err
	}
	order.Version++
	return nil
}
