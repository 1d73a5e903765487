package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"importer/internal/models"
)

var ErrNotFound = errors.New("record not found")

// TemplateRepository handles prompt template persistence.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) List(shop string) ([]models.PromptTemplate, error) {
	var templates []models.PromptTemplate
	if err := r.db.Where("shop = ?", shop).Order("id").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRepository) Get(shop string, id uint) (*models.PromptTemplate, error) {
	var template models.PromptTemplate
	err := r.db.First(&template, "shop = ? AND id = ?", shop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %d: %w", id, err)
	}
	return &template, nil
}

func (r *TemplateRepository) Create(template *models.PromptTemplate) error {
	if err := r.db.Create(template).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) Update(template *models.PromptTemplate) error {
	if err := r.db.Save(template).Error; err != nil {
		return fmt.Errorf("failed to update template %d: %w", template.ID, err)
	}
	return nil
}

// Delete removes a template. In-flight batches are unaffected: they snapshot
// settings, not template content.
func (r *TemplateRepository) Delete(shop string, id uint) error {
	if err := r.db.Delete(&models.PromptTemplate{}, "shop = ? AND id = ?", shop, id).Error; err != nil {
		return fmt.Errorf("failed to delete template %d: %w", id, err)
	}
	return nil
}
