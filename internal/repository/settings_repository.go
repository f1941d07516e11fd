package repository

import (
	"context"

	"order_service/internal/models"

	"gorm.io/gorm"
)

type SettingsRepository interface {
	GetDispatchSettings(ctx context.Context) (*models.DispatchSettings, error)
	UpdateDispatchSettings(ctx context.Context, settings *models.DispatchSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetDispatchSettings(ctx context.Context) (*models.DispatchSettings, error) {
	var settings models.DispatchSettings
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id DESC").First(&settings).Error
	if err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

func (r *settingsRepository) UpdateDispatchSettings(ctx context.Context, settings *models.DispatchSettings) error {
	settings.IsActive = true
	return r.db.WithContext(ctx).Save(settings).Error
}
