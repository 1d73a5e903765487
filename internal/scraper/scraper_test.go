package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"importer/internal/logger"
	"importer/internal/models"
)

func testLogger() *logger.Logger {
	return logger.New("error")
}

func TestFetchProduct_Normalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/red-shirt.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected browser-like User-Agent header")
		}
		fmt.Fprint(w, `{
			"product": {
				"id": 123,
				"title": "Red Shirt",
				"handle": "red-shirt",
				"body_html": "<p>A shirt.</p>",
				"vendor": "Acme",
				"product_type": "Shirts",
				"tags": ["summer", "cotton"],
				"images": [{"src": "https://cdn.example.com/1.jpg", "alt": null, "position": 1}],
				"variants": [{
					"title": "Small",
					"price": "19.99",
					"compare_at_price": null,
					"sku": "RS-S",
					"grams": 200,
					"option1": "Small"
				}],
				"options": [{"name": "Size", "values": ["Small", "Large"]}]
			}
		}`)
	}))
	defer server.Close()

	s := New(testLogger(), WithBaseURL(server.URL))
	product, err := s.FetchProduct(context.Background(), "source.example.com", "red-shirt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if product.ExternalID != 123 {
		t.Errorf("external id: got %d, want 123", product.ExternalID)
	}
	if product.SourceStore != "source.example.com" {
		t.Errorf("source store: got %q", product.SourceStore)
	}
	if len(product.Tags) != 2 || product.Tags[0] != "summer" {
		t.Errorf("tags: got %v", product.Tags)
	}
	if len(product.Variants) != 1 {
		t.Fatalf("variants: got %d, want 1", len(product.Variants))
	}

	variant := product.Variants[0]
	if variant.Price != "19.99" {
		t.Errorf("price: got %q", variant.Price)
	}
	if variant.CompareAtPrice != nil {
		t.Errorf("compare at price: got %v, want nil", *variant.CompareAtPrice)
	}
	if variant.Weight != 0.2 || variant.WeightUnit != "kg" {
		t.Errorf("weight: got %v %s, want 0.2 kg", variant.Weight, variant.WeightUnit)
	}
	if variant.Option1 != "Small" {
		t.Errorf("option1: got %q", variant.Option1)
	}

	if len(product.Images) != 1 || product.Images[0].Alt != "" {
		t.Errorf("images: got %+v, want one image with empty alt", product.Images)
	}
}

func TestFetchProduct_TagsAsCommaString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"product": {"id": 1, "title": "X", "tags": "summer, cotton"}}`)
	}))
	defer server.Close()

	s := New(testLogger(), WithBaseURL(server.URL))
	product, err := s.FetchProduct(context.Background(), "source.example.com", "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(product.Tags) != 2 || product.Tags[1] != "cotton" {
		t.Errorf("tags: got %v, want [summer cotton]", product.Tags)
	}
}

func TestFetchProduct_RemoteFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := New(testLogger(), WithBaseURL(server.URL))
	_, err := s.FetchProduct(context.Background(), "source.example.com", "x")

	var fetchErr *RemoteFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %v, want RemoteFetchError", err)
	}
	if fetchErr.Status != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", fetchErr.Status)
	}
}

func collectionPage(count, offset int) string {
	products := make([]map[string]interface{}, count)
	for i := range products {
		products[i] = map[string]interface{}{
			"id":    offset + i + 1,
			"title": fmt.Sprintf("Product %d", offset+i+1),
		}
	}
	payload, _ := json.Marshal(map[string]interface{}{"products": products})
	return string(payload)
}

func TestFetchCollection_ExactPageMultipleNeedsTrailingEmptyPage(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, collectionPage(250, 0))
		case "2":
			fmt.Fprint(w, `{"products": []}`)
		default:
			t.Errorf("unexpected page: %s", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	s := New(testLogger(), WithBaseURL(server.URL))
	products, err := s.FetchCollection(context.Background(), "source.example.com", "all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requests != 2 {
		t.Errorf("requests: got %d, want exactly 2", requests)
	}
	if len(products) != 250 {
		t.Errorf("products: got %d, want 250", len(products))
	}
}

func TestFetchCollection_ShortPageEndsPagination(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, collectionPage(3, 0))
	}))
	defer server.Close()

	s := New(testLogger(), WithBaseURL(server.URL))
	products, err := s.FetchCollection(context.Background(), "source.example.com", "small")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requests != 1 {
		t.Errorf("requests: got %d, want 1", requests)
	}
	if len(products) != 3 {
		t.Errorf("products: got %d, want 3", len(products))
	}
}

func TestDeduplicate_FirstSeenWins(t *testing.T) {
	products := []models.ScrapedProduct{
		{ExternalID: 1, SourceStore: "a.example.com", Title: "First"},
		{ExternalID: 2, SourceStore: "a.example.com", Title: "Other"},
		{ExternalID: 1, SourceStore: "a.example.com", Title: "Duplicate"},
		{ExternalID: 1, SourceStore: "b.example.com", Title: "Different store"},
	}

	result := Deduplicate(products)

	if len(result) != 3 {
		t.Fatalf("got %d products, want 3", len(result))
	}
	if result[0].Title != "First" {
		t.Errorf("first occurrence should win, got %q", result[0].Title)
	}
	if result[1].Title != "Other" || result[2].Title != "Different store" {
		t.Errorf("order not preserved: %q, %q", result[1].Title, result[2].Title)
	}
}
