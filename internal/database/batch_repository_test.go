package database

import (
	"encoding/json"
	"errors"
	"testing"

	"importer/internal/models"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBatchRepository_StartAndComplete(t *testing.T) {
	db := testDatabase(t)
	repo := NewBatchRepository(db.DB)

	settings := models.DefaultSettings("test-shop.myshopify.com")
	batch, err := repo.Start("test-shop.myshopify.com", 4, []string{"https://source.example.com/collections/all"}, settings)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if batch.ID == "" {
		t.Fatal("start did not assign an id")
	}
	if batch.Status != models.BatchStatusProcessing {
		t.Errorf("status after start: got %q, want processing", batch.Status)
	}
	if batch.TotalProducts != 4 {
		t.Errorf("total: got %d, want 4", batch.TotalProducts)
	}

	var urls []string
	if err := json.Unmarshal([]byte(batch.SourceURLs), &urls); err != nil || len(urls) != 1 {
		t.Errorf("source urls not stored as JSON: %q", batch.SourceURLs)
	}
	var snapshot models.StoreSettings
	if err := json.Unmarshal([]byte(batch.SettingsSnapshot), &snapshot); err != nil || snapshot.PriceRounding != ".99" {
		t.Errorf("settings snapshot not stored: %q", batch.SettingsSnapshot)
	}

	if err := repo.Complete(batch.ID, 3, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}

	loaded, err := repo.Get("test-shop.myshopify.com", batch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != models.BatchStatusCompleted {
		t.Errorf("status after complete: got %q, want completed", loaded.Status)
	}
	if loaded.ImportedProducts != 3 || loaded.FailedProducts != 1 {
		t.Errorf("counts: got %d/%d, want 3/1", loaded.ImportedProducts, loaded.FailedProducts)
	}
	if loaded.CompletedAt == nil || loaded.CompletedAt.Before(loaded.CreatedAt) {
		t.Errorf("completed_at not set after created_at: %v vs %v", loaded.CompletedAt, loaded.CreatedAt)
	}
}

func TestBatchRepository_CompleteUnknownBatch(t *testing.T) {
	db := testDatabase(t)
	repo := NewBatchRepository(db.DB)

	err := repo.Complete("no-such-batch", 0, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestBatchRepository_Fail(t *testing.T) {
	db := testDatabase(t)
	repo := NewBatchRepository(db.DB)

	batch, err := repo.Start("test-shop.myshopify.com", 2, nil, models.DefaultSettings("test-shop.myshopify.com"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := repo.Fail(batch.ID); err != nil {
		t.Fatalf("fail: %v", err)
	}

	loaded, err := repo.Get("test-shop.myshopify.com", batch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != models.BatchStatusFailed {
		t.Errorf("status: got %q, want failed", loaded.Status)
	}
	if loaded.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestBatchRepository_ListScopedToShop(t *testing.T) {
	db := testDatabase(t)
	repo := NewBatchRepository(db.DB)

	if _, err := repo.Start("shop-a.myshopify.com", 1, nil, models.DefaultSettings("shop-a.myshopify.com")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := repo.Start("shop-b.myshopify.com", 1, nil, models.DefaultSettings("shop-b.myshopify.com")); err != nil {
		t.Fatalf("start: %v", err)
	}

	batches, err := repo.List("shop-a.myshopify.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(batches) != 1 || batches[0].Shop != "shop-a.myshopify.com" {
		t.Errorf("got %d batches for shop-a", len(batches))
	}
}
