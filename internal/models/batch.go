package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// ImportBatch is the audit record for one bulk import run. It is written
// exactly twice: created in processing state with the total pre-set, then
// finalized once with the outcome counts. There is no streaming progress.
type ImportBatch struct {
	ID               string      `json:"id" gorm:"primaryKey"`
	Shop             string      `json:"shop" gorm:"index;not null"`
	Status           BatchStatus `json:"status" gorm:"default:pending"`
	TotalProducts    int         `json:"total_products"`
	ImportedProducts int         `json:"imported_products"`
	FailedProducts   int         `json:"failed_products"`
	SourceURLs       string      `json:"source_urls"`
	SettingsSnapshot string      `json:"settings_snapshot"`
	CreatedAt        time.Time   `json:"created_at"`
	CompletedAt      *time.Time  `json:"completed_at"`
}

func (ImportBatch) TableName() string { return "import_batches" }

func (b *ImportBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
