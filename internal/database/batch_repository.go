package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"importer/internal/models"
)

// BatchRepository is the import batch ledger. A batch row is written exactly
// twice by its owning request: once at the start of a run and once at the
// end. There is no intermediate progress state.
type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Start records a new batch in processing state with the total pre-set and a
// snapshot of the settings in force.
func (r *BatchRepository) Start(shop string, total int, sourceURLs []string, settings *models.StoreSettings) (*models.ImportBatch, error) {
	urls, err := json.Marshal(sourceURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize source urls: %w", err)
	}
	snapshot, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize settings snapshot: %w", err)
	}

	batch := &models.ImportBatch{
		Shop:             shop,
		Status:           models.BatchStatusProcessing,
		TotalProducts:    total,
		SourceURLs:       string(urls),
		SettingsSnapshot: string(snapshot),
	}
	if err := r.db.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	return batch, nil
}

// Complete finalizes a batch with its outcome counts.
func (r *BatchRepository) Complete(id string, imported, failed int) error {
	now := time.Now()
	result := r.db.Model(&models.ImportBatch{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":            models.BatchStatusCompleted,
		"imported_products": imported,
		"failed_products":   failed,
		"completed_at":      &now,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to complete batch %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	return nil
}

// Fail marks a batch whose run was cancelled or timed out mid-publish.
func (r *BatchRepository) Fail(id string) error {
	now := time.Now()
	if err := r.db.Model(&models.ImportBatch{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.BatchStatusFailed,
		"completed_at": &now,
	}).Error; err != nil {
		return fmt.Errorf("failed to mark batch %s failed: %w", id, err)
	}
	return nil
}

func (r *BatchRepository) Get(shop, id string) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := r.db.First(&batch, "shop = ? AND id = ?", shop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", id, err)
	}
	return &batch, nil
}

func (r *BatchRepository) List(shop string) ([]models.ImportBatch, error) {
	var batches []models.ImportBatch
	if err := r.db.Where("shop = ?", shop).Order("created_at DESC").Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}
