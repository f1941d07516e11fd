package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	Code          string              `json:"code" gorm:"uniqueIndex;not null"`
	DiscountType  DiscountType        `json:"discount_type" gorm:"not null"`
	DiscountValue decimal.Decimal     `json:"discount_value" gorm:"type:decimal(10,2);not null"`
	MinOrderValue decimal.Decimal     `json:"min_order_value" gorm:"type:decimal(10,2);not null;default:0"`
	MaxDiscount   decimal.NullDecimal `json:"max_discount" gorm:"type:decimal(10,2)"`
	IsActive      bool                `json:"is_active" gorm:"default:true"`
	UsageLimit    *int                `json:"usage_limit"`
	UsedCount     int                 `json:"used_count" gorm:"not null;default:0"`
	ExpiryDate    *time.Time          `json:"expiry_date"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFlat       DiscountType = "FLAT"
)

func (t DiscountType) IsValid() bool {
	return t == DiscountPercentage || t == DiscountFlat
}

// NormalizeCouponCode makes lookups case-insensitive.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted reports whether the usage limit has been used up.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

func (c *Coupon) ExpiredAt(now time.Time) bool {
	return c.ExpiryDate != nil && c.ExpiryDate.Before(now)
}
