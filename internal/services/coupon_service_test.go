package services

import (
	"context"
	"testing"
	"time"

	"order_service/internal/models"
	"order_service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int {
	return &i
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		coupon   models.Coupon
		subtotal string
		want     string
		code     string
	}{
		{
			name:     "percentage capped at max discount",
			coupon:   models.Coupon{Code: "WELCOME50", DiscountType: models.DiscountPercentage, DiscountValue: d("50"), MaxDiscount: decimal.NewNullDecimal(d("150")), IsActive: true},
			subtotal: "400",
			want:     "150",
		},
		{
			name:     "percentage below cap",
			coupon:   models.Coupon{Code: "TEN", DiscountType: models.DiscountPercentage, DiscountValue: d("10"), IsActive: true},
			subtotal: "333.33",
			want:     "33.33",
		},
		{
			name:     "flat larger than subtotal is capped at subtotal",
			coupon:   models.Coupon{Code: "FLAT500", DiscountType: models.DiscountFlat, DiscountValue: d("500"), IsActive: true},
			subtotal: "120",
			want:     "120",
		},
		{
			name:     "expiry in the future is fine",
			coupon:   models.Coupon{Code: "LATER", DiscountType: models.DiscountFlat, DiscountValue: d("20"), IsActive: true, ExpiryDate: &tomorrow},
			subtotal: "100",
			want:     "20",
		},
		{
			name:     "inactive",
			coupon:   models.Coupon{Code: "OFF", DiscountType: models.DiscountFlat, DiscountValue: d("20"), IsActive: false},
			subtotal: "100",
			code:     CodeCouponInactive,
		},
		{
			name:     "expired",
			coupon:   models.Coupon{Code: "OLD", DiscountType: models.DiscountFlat, DiscountValue: d("20"), IsActive: true, ExpiryDate: &yesterday},
			subtotal: "100",
			code:     CodeCouponExpired,
		},
		{
			name:     "below minimum",
			coupon:   models.Coupon{Code: "BIG", DiscountType: models.DiscountFlat, DiscountValue: d("20"), MinOrderValue: d("500"), IsActive: true},
			subtotal: "499.99",
			code:     CodeCouponBelowMinimum,
		},
		{
			name:     "usage limit reached",
			coupon:   models.Coupon{Code: "ONCE", DiscountType: models.DiscountFlat, DiscountValue: d("20"), IsActive: true, UsageLimit: intPtr(1), UsedCount: 1},
			subtotal: "100",
			code:     CodeCouponLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := tt.coupon
			got, err := Evaluate(&coupon, d(tt.subtotal), now)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, KindInapplicable, KindOf(err))
				assert.Equal(t, tt.code, CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "want %s got %s", tt.want, got)
			assert.Equal(t, tt.coupon.UsedCount, coupon.UsedCount)
		})
	}
}

func TestCouponService_ApplyNormalizesCode(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCouponService(store.Coupons())
	ctx := context.Background()

	_, err := svc.Create(ctx, CouponInput{Code: " welcome50 ", DiscountType: models.DiscountPercentage, DiscountValue: d("50"), MaxDiscount: ptrDecimal(d("150"))})
	require.NoError(t, err)

	quote, err := svc.Apply(ctx, "Welcome50", d("400"))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME50", quote.Code)
	assert.True(t, d("150").Equal(quote.Discount))
	assert.True(t, d("250").Equal(quote.Total))

	_, err = svc.Apply(ctx, "NOPE", d("400"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, CodeCouponNotFound, CodeOf(err))

	coupon, err := svc.Get(ctx, "welcome50")
	require.NoError(t, err)
	assert.Zero(t, coupon.UsedCount)
}

func TestEvaluate_DiscountStaysWithinSubtotal(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	coupons := []*models.Coupon{
		{Code: "FLAT10", DiscountType: models.DiscountFlat, DiscountValue: d("10"), IsActive: true},
		{Code: "ALMOST", DiscountType: models.DiscountPercentage, DiscountValue: d("99.99"), IsActive: true},
		{Code: "THIRD", DiscountType: models.DiscountPercentage, DiscountValue: d("33.33"), IsActive: true},
	}
	for _, coupon := range coupons {
		for _, subtotal := range []string{"0.01", "0.05", "0.99", "9.99", "10.01", "333.33"} {
			sub := d(subtotal)
			discount, err := Evaluate(coupon, sub, now)
			require.NoError(t, err)
			assert.True(t, discount.LessThanOrEqual(sub), "%s on %s gave %s", coupon.Code, subtotal, discount)
			assert.True(t, isCents(discount), "%s on %s gave %s", coupon.Code, subtotal, discount)
			assert.False(t, sub.Sub(discount).IsNegative())
		}
	}
}

func TestCouponService_ApplyRejectsSubCentSubtotal(t *testing.T) {
	svc := NewCouponService(repository.NewMemoryStore().Coupons())
	ctx := context.Background()
	_, err := svc.Create(ctx, CouponInput{Code: "FLAT10", DiscountType: models.DiscountFlat, DiscountValue: d("10")})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "FLAT10", d("0.005"))
	assert.Equal(t, KindValidation, KindOf(err))

	quote, err := svc.Apply(ctx, "FLAT10", d("0.05"))
	require.NoError(t, err)
	assert.True(t, d("0.05").Equal(quote.Discount))
	assert.True(t, quote.Total.IsZero())
}

func TestCouponService_CreateValidates(t *testing.T) {
	svc := NewCouponService(repository.NewMemoryStore().Coupons())
	ctx := context.Background()

	cases := []CouponInput{
		{Code: "", DiscountType: models.DiscountFlat, DiscountValue: d("10")},
		{Code: "BAD-CODE!", DiscountType: models.DiscountFlat, DiscountValue: d("10")},
		{Code: "ZERO", DiscountType: models.DiscountFlat, DiscountValue: d("0")},
		{Code: "HUGE", DiscountType: models.DiscountPercentage, DiscountValue: d("101")},
		{Code: "WHAT", DiscountType: "BOGO", DiscountValue: d("10")},
		{Code: "LIMIT", DiscountType: models.DiscountFlat, DiscountValue: d("10"), UsageLimit: intPtr(0)},
		{Code: "FRACTION", DiscountType: models.DiscountFlat, DiscountValue: d("10.005")},
		{Code: "MINFRACTION", DiscountType: models.DiscountFlat, DiscountValue: d("10"), MinOrderValue: d("99.999")},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		assert.Equal(t, KindValidation, KindOf(err), input.Code)
	}

	_, err := svc.Create(ctx, CouponInput{Code: "SAVE10", DiscountType: models.DiscountFlat, DiscountValue: d("10")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CouponInput{Code: "save10", DiscountType: models.DiscountFlat, DiscountValue: d("10")})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCouponService_UpdateAndDeactivate(t *testing.T) {
	svc := NewCouponService(repository.NewMemoryStore().Coupons())
	ctx := context.Background()

	_, err := svc.Create(ctx, CouponInput{Code: "SAVE10", DiscountType: models.DiscountFlat, DiscountValue: d("10")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "save10", CouponInput{DiscountType: models.DiscountFlat, DiscountValue: d("25"), UsageLimit: intPtr(5)})
	require.NoError(t, err)
	assert.True(t, d("25").Equal(updated.DiscountValue))
	assert.Equal(t, 5, *updated.UsageLimit)

	require.NoError(t, svc.Deactivate(ctx, "SAVE10"))
	_, err = svc.Apply(ctx, "SAVE10", d("100"))
	assert.Equal(t, CodeCouponInactive, CodeOf(err))

	assert.Equal(t, KindNotFound, KindOf(svc.Deactivate(ctx, "MISSING")))
}

func ptrDecimal(v decimal.Decimal) *decimal.Decimal {
	return &v
}
