package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order_service/internal/metrics"
	"order_service/internal/models"
	"order_service/internal/repository"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// isCents reports whether amount has no more than two decimal places, the
// precision of every money column.
func isCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}

type CouponQuote struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type CouponInput struct {
	Code          string              `json:"code" validate:"required,alphanum,max=32"`
	DiscountType  models.DiscountType `json:"discount_type" validate:"required,oneof=PERCENTAGE FLAT"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MinOrderValue decimal.Decimal     `json:"min_order_value"`
	MaxDiscount   *decimal.Decimal    `json:"max_discount"`
	UsageLimit    *int                `json:"usage_limit" validate:"omitempty,min=1"`
	ExpiryDate    *time.Time          `json:"expiry_date"`
	IsActive      *bool               `json:"is_active"`
}

type CouponService interface {
	// Apply evaluates code against subtotal without redeeming it.
	Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*CouponQuote, error)
	Create(ctx context.Context, input CouponInput) (*models.Coupon, error)
	Update(ctx context.Context, code string, input CouponInput) (*models.Coupon, error)
	Deactivate(ctx context.Context, code string) error
	Get(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
}

type couponService struct {
	coupons repository.CouponRepository
	now     func() time.Time
}

func NewCouponService(coupons repository.CouponRepository) CouponService {
	return &couponService{coupons: coupons, now: time.Now}
}

// Evaluate computes the discount coupon grants on subtotal at the given time.
// It never mutates the coupon.
func Evaluate(coupon *models.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !coupon.IsActive {
		return decimal.Zero, newError(KindInapplicable, CodeCouponInactive, fmt.Sprintf("coupon %s is not active", coupon.Code), nil)
	}
	if coupon.ExpiredAt(now) {
		return decimal.Zero, newError(KindInapplicable, CodeCouponExpired, fmt.Sprintf("coupon %s has expired", coupon.Code), nil)
	}
	if subtotal.LessThan(coupon.MinOrderValue) {
		return decimal.Zero, newError(KindInapplicable, CodeCouponBelowMinimum,
			fmt.Sprintf("coupon %s requires a minimum order of %s", coupon.Code, coupon.MinOrderValue.StringFixed(2)), nil)
	}
	if coupon.Exhausted() {
		return decimal.Zero, newError(KindInapplicable, CodeCouponLimitReached, fmt.Sprintf("coupon %s has reached its usage limit", coupon.Code), nil)
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(hundred)
		if coupon.MaxDiscount.Valid && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
			discount = coupon.MaxDiscount.Decimal
		}
	case models.DiscountFlat:
		discount = coupon.DiscountValue
	default:
		return decimal.Zero, newError(KindInapplicable, CodeCouponInactive, fmt.Sprintf("coupon %s has an unknown discount type", coupon.Code), nil)
	}

	discount = discount.Round(2)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount, nil
}

func (s *couponService) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*CouponQuote, error) {
	if subtotal.IsNegative() {
		return nil, validationError("subtotal must not be negative", nil)
	}
	if !isCents(subtotal) {
		return nil, validationError("subtotal must have at most two decimal places", nil)
	}
	coupon, err := s.lookup(ctx, code)
	if err != nil {
		metrics.CouponRedemptions.WithLabelValues(CodeOf(err)).Inc()
		return nil, err
	}

	discount, err := Evaluate(coupon, subtotal, s.now())
	if err != nil {
		metrics.CouponRedemptions.WithLabelValues(CodeOf(err)).Inc()
		log.WithFields(log.Fields{
			"coupon":   coupon.Code,
			"subtotal": subtotal.String(),
			"reason":   CodeOf(err),
		}).Info("Coupon rejected")
		return nil, err
	}
	metrics.CouponRedemptions.WithLabelValues("applied").Inc()

	return &CouponQuote{
		Code:     coupon.Code,
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}, nil
}

func (s *couponService) lookup(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, validationError("coupon code is required", nil)
	}
	coupon, err := s.coupons.GetByCode(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, CodeCouponNotFound, fmt.Sprintf("coupon %s does not exist", normalized), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon %s: %w", normalized, err)
	}
	return coupon, nil
}

func (s *couponService) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	input.Code = models.NormalizeCouponCode(input.Code)
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{Code: input.Code, IsActive: true}
	applyCouponInput(coupon, input)

	err := s.coupons.Create(ctx, coupon)
	if errors.Is(err, repository.ErrDuplicateCoupon) {
		return nil, newError(KindConflict, CodeCouponExists, fmt.Sprintf("coupon %s already exists", coupon.Code), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	log.WithField("coupon", coupon.Code).Info("Coupon created")
	return coupon, nil
}

func (s *couponService) Update(ctx context.Context, code string, input CouponInput) (*models.Coupon, error) {
	coupon, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	input.Code = coupon.Code
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}
	if input.UsageLimit != nil && *input.UsageLimit < coupon.UsedCount {
		return nil, validationError(fmt.Sprintf("usage limit cannot be below the %d redemptions already made", coupon.UsedCount), nil)
	}

	applyCouponInput(coupon, input)
	if err := s.coupons.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to update coupon %s: %w", coupon.Code, err)
	}
	return coupon, nil
}

func (s *couponService) Deactivate(ctx context.Context, code string) error {
	coupon, err := s.lookup(ctx, code)
	if err != nil {
		return err
	}
	if !coupon.IsActive {
		return nil
	}
	coupon.IsActive = false
	if err := s.coupons.Update(ctx, coupon); err != nil {
		return fmt.Errorf("failed to deactivate coupon %s: %w", coupon.Code, err)
	}
	log.WithField("coupon", coupon.Code).Info("Coupon deactivated")
	return nil
}

func (s *couponService) Get(ctx context.Context, code string) (*models.Coupon, error) {
	return s.lookup(ctx, code)
}

func (s *couponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.coupons.List(ctx)
}

func validateCouponInput(input CouponInput) error {
	if err := validate.Struct(input); err != nil {
		return validationError("invalid coupon", err)
	}
	if !input.DiscountValue.IsPositive() {
		return validationError("discount value must be positive", nil)
	}
	if input.DiscountType == models.DiscountPercentage && input.DiscountValue.GreaterThan(hundred) {
		return validationError("percentage discount cannot exceed 100", nil)
	}
	if input.MinOrderValue.IsNegative() {
		return validationError("minimum order value must not be negative", nil)
	}
	if input.MaxDiscount != nil && !input.MaxDiscount.IsPositive() {
		return validationError("max discount must be positive", nil)
	}
	if !isCents(input.DiscountValue) || !isCents(input.MinOrderValue) || (input.MaxDiscount != nil && !isCents(*input.MaxDiscount)) {
		return validationError("coupon amounts must have at most two decimal places", nil)
	}
	return nil
}

func applyCouponInput(coupon *models.Coupon, input CouponInput) {
	coupon.DiscountType = input.DiscountType
	coupon.DiscountValue = input.DiscountValue
	coupon.MinOrderValue = input.MinOrderValue
	coupon.MaxDiscount = decimal.NullDecimal{}
	if input.MaxDiscount != nil {
		coupon.MaxDiscount = decimal.NewNullDecimal(*input.MaxDiscount)
	}
	coupon.UsageLimit = input.UsageLimit
	coupon.ExpiryDate = input.ExpiryDate
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
}
