package database

import (
	"fmt"

	"gorm.io/gorm"

	"importer/internal/models"
)

// NegativeWordRepository handles the per-shop denylist.
type NegativeWordRepository struct {
	db *gorm.DB
}

func NewNegativeWordRepository(db *gorm.DB) *NegativeWordRepository {
	return &NegativeWordRepository{db: db}
}

func (r *NegativeWordRepository) List(shop string) ([]models.NegativeWord, error) {
	var words []models.NegativeWord
	if err := r.db.Where("shop = ?", shop).Order("id").Find(&words).Error; err != nil {
		return nil, fmt.Errorf("failed to list negative words: %w", err)
	}
	return words, nil
}

// Words returns just the word strings, the form the optimizer consumes.
func (r *NegativeWordRepository) Words(shop string) ([]string, error) {
	records, err := r.List(shop)
	if err != nil {
		return nil, err
	}
	words := make([]string, len(records))
	for i, record := range records {
		words[i] = record.Word
	}
	return words, nil
}

func (r *NegativeWordRepository) Create(word *models.NegativeWord) error {
	if err := r.db.Create(word).Error; err != nil {
		return fmt.Errorf("failed to create negative word: %w", err)
	}
	return nil
}

func (r *NegativeWordRepository) Delete(shop string, id uint) error {
	if err := r.db.Delete(&models.NegativeWord{}, "shop = ? AND id = ?", shop, id).Error; err != nil {
		return fmt.Errorf("failed to delete negative word %d: %w", id, err)
	}
	return nil
}
