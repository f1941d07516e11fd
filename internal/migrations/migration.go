package migrations

import (
	"context"
	"errors"
	"fmt"

	"order_service/internal/database"
	"order_service/internal/models"
	"order_service/internal/repository"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RunMigrations migrates the schema and creates default data
func RunMigrations(db *gorm.DB) error {
	log.Info("Running database migrations...")

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	err := SeedDefaults(context.Background(), repository.NewSettingsRepository(db), repository.NewCouponRepository(db))
	if err != nil {
		log.WithError(err).Warn("Failed to create default data")
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// SeedDefaults creates the default dispatch settings and the WELCOME50
// coupon when they do not exist yet.
func SeedDefaults(ctx context.Context, settings repository.SettingsRepository, coupons repository.CouponRepository) error {
	if _, err := settings.GetDispatchSettings(ctx); errors.Is(err, repository.ErrNotFound) {
		log.Info("Creating default dispatch settings...")
		defaults := &models.DispatchSettings{
			AutoAccept:        false,
			PreferredProvider: models.ProviderUber,
			UpdatedBy:         "system",
		}
		if err := settings.UpdateDispatchSettings(ctx, defaults); err != nil {
			return fmt.Errorf("failed to create dispatch settings: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read dispatch settings: %w", err)
	}

	if _, err := coupons.GetByCode(ctx, "WELCOME50"); errors.Is(err, repository.ErrNotFound) {
		log.Info("Creating WELCOME50 coupon...")
		welcome := &models.Coupon{
			Code:          "WELCOME50",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(50),
			MinOrderValue: decimal.NewFromInt(199),
			MaxDiscount:   decimal.NewNullDecimal(decimal.NewFromInt(150)),
			IsActive:      true,
		}
		if err := coupons.Create(ctx, welcome); err != nil && !errors.Is(err, repository.ErrDuplicateCoupon) {
			return fmt.Errorf("failed to create WELCOME50 coupon: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read coupons: %w", err)
	}

	return nil
}
