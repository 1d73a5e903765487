package models

import "time"

// PromptTemplate is a named pair of optimization instructions scoped to a
// shop. Batches snapshot settings rather than template content, so editing or
// deleting a template never rewrites history.
type PromptTemplate struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Shop              string    `json:"shop" gorm:"index;not null"`
	Name              string    `json:"name" gorm:"not null"`
	TitlePrompt       string    `json:"title_prompt"`
	DescriptionPrompt string    `json:"description_prompt"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (PromptTemplate) TableName() string { return "prompt_templates" }

// NegativeWord is a denylist entry enforced mechanically on all generated
// text, not merely passed as a prompt instruction.
type NegativeWord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Shop      string    `json:"shop" gorm:"index;not null"`
	Word      string    `json:"word" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (NegativeWord) TableName() string { return "negative_words" }
