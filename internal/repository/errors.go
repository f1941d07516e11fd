package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrVersionConflict   = errors.New("record was modified concurrently")
	ErrCouponExhausted   = errors.New("coupon is no longer redeemable")
	ErrDuplicateCheckout = errors.New("checkout key already used")
	ErrDuplicateCoupon   = errors.New("coupon code already exists")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
