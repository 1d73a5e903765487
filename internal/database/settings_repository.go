package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"importer/internal/models"
)

// SettingsRepository handles store settings persistence.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrCreate returns the shop's settings, creating the default record on
// first read.
func (r *SettingsRepository) GetOrCreate(shop string) (*models.StoreSettings, error) {
	var settings models.StoreSettings
	err := r.db.First(&settings, "shop = ?", shop).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load settings for %s: %w", shop, err)
	}

	defaults := models.DefaultSettings(shop)
	if err := r.db.Create(defaults).Error; err != nil {
		return nil, fmt.Errorf("failed to create default settings for %s: %w", shop, err)
	}
	return defaults, nil
}

// Save updates the shop's settings record wholesale.
func (r *SettingsRepository) Save(settings *models.StoreSettings) error {
	if err := r.db.Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save settings for %s: %w", settings.Shop, err)
	}
	return nil
}
