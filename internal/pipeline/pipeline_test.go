package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"importer/internal/ai"
	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
	"importer/internal/models"
	"importer/internal/optimizer"
)

func testRunner(t *testing.T, cfg *config.Config) (*Runner, *database.Database) {
	t.Helper()
	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRunner(cfg, db, logger.New("error")), db
}

type countingGenerator struct {
	mu        sync.Mutex
	textCalls int
}

func (g *countingGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.textCalls++
	g.mu.Unlock()
	return "rewritten", nil
}

func (g *countingGenerator) GenerateImage(ctx context.Context, prompt string, reference *ai.InlineImage) ([]ai.InlineImage, error) {
	return nil, errors.New("image service unavailable")
}

func TestOptimize_MissingAPIKeyFailsFast(t *testing.T) {
	r, _ := testRunner(t, &config.Config{ShopifyStore: "test-shop"})

	products := []models.ScrapedProduct{{ExternalID: 1, Title: "Shirt"}}
	_, _, _, err := r.Optimize(context.Background(), "test-shop.myshopify.com", products, OptimizeOptions{OptimizeText: true})

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigurationError", err)
	}
	if cfgErr.Missing != "GEMINI_API_KEY" {
		t.Errorf("missing: got %q", cfgErr.Missing)
	}
}

func TestOptimize_EnhanceOnlyLeavesTextUntouched(t *testing.T) {
	r, _ := testRunner(t, &config.Config{ShopifyStore: "test-shop", GeminiAPIKey: "test-key"})
	gen := &countingGenerator{}
	r.generator = func() optimizer.Generator { return gen }

	products := []models.ScrapedProduct{
		{ExternalID: 1, Title: "Shirt", Description: "<p>Original.</p>"},
	}

	optimized, _, _, err := r.Optimize(context.Background(), "test-shop.myshopify.com", products, OptimizeOptions{
		EnhanceImages: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gen.textCalls != 0 {
		t.Errorf("text calls: got %d, want 0 for an enhancement-only run", gen.textCalls)
	}
	if optimized[0].Title != "Shirt" || optimized[0].Description != "<p>Original.</p>" {
		t.Errorf("content changed: %+v", optimized[0])
	}
}

func TestOptimize_TextToggleRewritesContent(t *testing.T) {
	r, _ := testRunner(t, &config.Config{ShopifyStore: "test-shop", GeminiAPIKey: "test-key"})
	gen := &countingGenerator{}
	r.generator = func() optimizer.Generator { return gen }

	products := []models.ScrapedProduct{{ExternalID: 1, Title: "Shirt"}}

	optimized, _, _, err := r.Optimize(context.Background(), "test-shop.myshopify.com", products, OptimizeOptions{
		OptimizeText: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gen.textCalls == 0 {
		t.Error("expected text generation calls")
	}
	if optimized[0].Title != "rewritten" {
		t.Errorf("title: got %q", optimized[0].Title)
	}
	if optimized[0].OriginalTitle != "Shirt" {
		t.Errorf("original title: got %q", optimized[0].OriginalTitle)
	}
}

func TestPublish_CancelledRunMarksBatchFailed(t *testing.T) {
	r, db := testRunner(t, &config.Config{ShopifyStore: "test-shop", ShopifyAccessToken: "token", ShopifyAPIVersion: "2024-04"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products := PassThrough([]models.ScrapedProduct{
		{ExternalID: 1, Title: "Shirt", Variants: []models.ProductVariant{{Price: "10.00"}}},
	})

	_, err := r.Publish(ctx, PublishRequest{Shop: "test-shop.myshopify.com", Products: products})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	batches, listErr := database.NewBatchRepository(db.DB).List("test-shop.myshopify.com")
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	if batches[0].Status != models.BatchStatusFailed {
		t.Errorf("status: got %q, want failed", batches[0].Status)
	}
	if batches[0].CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestScrape_UnresolvableURLReportsErrorWithoutAborting(t *testing.T) {
	r, _ := testRunner(t, &config.Config{ShopifyStore: "test-shop"})

	products, scrapeErrors := r.Scrape(context.Background(), []string{""}, "product")
	if len(products) != 0 {
		t.Errorf("products: got %d, want 0", len(products))
	}
	if len(scrapeErrors) != 1 {
		t.Errorf("errors: got %v, want one entry", scrapeErrors)
	}
}

func TestPassThrough(t *testing.T) {
	products := []models.ScrapedProduct{
		{ExternalID: 1, Title: "Shirt", Description: "<p>Desc</p>"},
		{ExternalID: 2, Title: "Hat"},
	}

	optimized := PassThrough(products)

	if len(optimized) != 2 {
		t.Fatalf("got %d, want 2", len(optimized))
	}
	if optimized[0].Title != "Shirt" || optimized[0].OriginalTitle != "Shirt" {
		t.Errorf("titles changed: %+v", optimized[0])
	}
	if optimized[0].Description != optimized[0].OriginalDescription {
		t.Errorf("descriptions diverge: %+v", optimized[0])
	}
}
