package repository

import (
	"context"
	"errors"

	"order_service/internal/models"

	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	List(ctx context.Context) ([]models.Coupon, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	err := r.db.WithContext(ctx).Create(coupon).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCoupon
	}
	return err
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

// Update saves the editable fields. used_count is owned by order creation and
// is never written from here.
func (r *couponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	res := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ?", coupon.ID).
		Select("discount_type", "discount_value", "min_order_value", "max_discount", "is_active", "usage_limit", "expiry_date", "updated_at").
		Updates(coupon)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *couponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.WithContext(ctx).Order("code ASC").Find(&coupons).Error
	return coupons, err
}
