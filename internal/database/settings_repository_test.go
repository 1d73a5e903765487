package database

import (
	"errors"
	"testing"

	"importer/internal/models"
)

func TestSettingsRepository_GetOrCreateSeedsDefaults(t *testing.T) {
	db := testDatabase(t)
	repo := NewSettingsRepository(db.DB)

	settings, err := repo.GetOrCreate("test-shop.myshopify.com")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if settings.PriceRounding != ".99" || settings.ProductStatus != "DRAFT" {
		t.Errorf("defaults: got rounding %q status %q", settings.PriceRounding, settings.ProductStatus)
	}
	if settings.InventoryQuantity != 100 {
		t.Errorf("inventory quantity: got %d, want 100", settings.InventoryQuantity)
	}

	settings.RetailPriceMultiplier = 2.5
	if err := repo.Save(settings); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := repo.GetOrCreate("test-shop.myshopify.com")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ID != settings.ID {
		t.Errorf("second read created a new row: %d vs %d", reloaded.ID, settings.ID)
	}
	if reloaded.RetailPriceMultiplier != 2.5 {
		t.Errorf("saved multiplier not persisted: got %v", reloaded.RetailPriceMultiplier)
	}
}

func TestNegativeWordRepository_Words(t *testing.T) {
	db := testDatabase(t)
	repo := NewNegativeWordRepository(db.DB)

	for _, w := range []string{"cheap", "dropshipping"} {
		if err := repo.Create(&models.NegativeWord{Shop: "test-shop.myshopify.com", Word: w}); err != nil {
			t.Fatalf("create %q: %v", w, err)
		}
	}
	if err := repo.Create(&models.NegativeWord{Shop: "other.myshopify.com", Word: "wholesale"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	words, err := repo.Words("test-shop.myshopify.com")
	if err != nil {
		t.Fatalf("words: %v", err)
	}
	if len(words) != 2 || words[0] != "cheap" || words[1] != "dropshipping" {
		t.Errorf("got %v", words)
	}
}

func TestTemplateRepository_CRUD(t *testing.T) {
	db := testDatabase(t)
	repo := NewTemplateRepository(db.DB)

	template := &models.PromptTemplate{
		Shop:        "test-shop.myshopify.com",
		Name:        "Minimalist",
		TitlePrompt: "Rewrite the title in a minimalist voice.",
	}
	if err := repo.Create(template); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.Get("test-shop.myshopify.com", template.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Name != "Minimalist" {
		t.Errorf("name: got %q", loaded.Name)
	}

	loaded.DescriptionPrompt = "Rewrite the description in a minimalist voice."
	if err := repo.Update(loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := repo.Delete("test-shop.myshopify.com", template.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get("test-shop.myshopify.com", template.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}
