package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"importer/internal/logger"
	"importer/internal/models"
)

// catalogStub serves the GraphQL endpoint, minting sequential product ids and
// rejecting any productCreate whose title contains "reject".
type catalogStub struct {
	created       int
	mediaCalls    int
	variantCalls  int
	locationCalls int
	variantInputs []map[string]interface{}
	collectionIDs map[string][]string
}

func newCatalogStub() *catalogStub {
	return &catalogStub{collectionIDs: map[string][]string{}}
}

func (s *catalogStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch {
		case strings.Contains(req.Query, "productCreate("):
			input := req.Variables["input"].(map[string]interface{})
			title, _ := input["title"].(string)
			if strings.Contains(title, "reject") {
				writeJSON(w, map[string]interface{}{
					"data": map[string]interface{}{
						"productCreate": map[string]interface{}{
							"product":    nil,
							"userErrors": []map[string]interface{}{{"field": []string{"title"}, "message": "is not allowed"}},
						},
					},
				})
				return
			}
			s.created++
			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"productCreate": map[string]interface{}{
						"product": map[string]interface{}{
							"id": fmt.Sprintf("gid://shopify/Product/%d", s.created),
							"variants": map[string]interface{}{
								"nodes": []map[string]interface{}{{"id": fmt.Sprintf("gid://shopify/ProductVariant/%d", s.created)}},
							},
						},
						"userErrors": []interface{}{},
					},
				},
			})
		case strings.Contains(req.Query, "locations("):
			s.locationCalls++
			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"locations": map[string]interface{}{
						"nodes": []map[string]interface{}{{"id": "gid://shopify/Location/1"}},
					},
				},
			})
		case strings.Contains(req.Query, "productVariantsBulkUpdate("):
			s.variantCalls++
			if variants, ok := req.Variables["variants"].([]interface{}); ok && len(variants) > 0 {
				if input, ok := variants[0].(map[string]interface{}); ok {
					s.variantInputs = append(s.variantInputs, input)
				}
			}
			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"productVariantsBulkUpdate": map[string]interface{}{"userErrors": []interface{}{}},
				},
			})
		case strings.Contains(req.Query, "productCreateMedia("):
			s.mediaCalls++
			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"productCreateMedia": map[string]interface{}{"mediaUserErrors": []interface{}{}},
				},
			})
		case strings.Contains(req.Query, "collectionAddProductsV2("):
			id, _ := req.Variables["id"].(string)
			rawIDs, _ := req.Variables["productIds"].([]interface{})
			for _, raw := range rawIDs {
				if productID, ok := raw.(string); ok {
					s.collectionIDs[id] = append(s.collectionIDs[id], productID)
				}
			}
			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"collectionAddProductsV2": map[string]interface{}{"userErrors": []interface{}{}},
				},
			})
		default:
			t.Errorf("unexpected query: %s", req.Query)
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func testPublisher(t *testing.T, stub *catalogStub) *Publisher {
	t.Helper()
	server := httptest.NewServer(stub.handler(t))
	t.Cleanup(server.Close)

	client := NewClient("test-shop", "token", "2024-04", logger.New("error"))
	client.SetEndpoint(server.URL)

	p := New(client, logger.New("error"))
	p.pause = func(ctx context.Context, d time.Duration) {}
	return p
}

func optimizedProduct(title string) models.OptimizedProduct {
	return models.OptimizedProduct{
		ScrapedProduct: models.ScrapedProduct{
			ExternalID:  1,
			Title:       title,
			Description: "<p>Desc</p>",
			SourceStore: "source.example.com",
			Variants: []models.ProductVariant{
				{Title: "Default", Price: "19.99", SKU: "SKU-1", Weight: 0.2, WeightUnit: "kg"},
			},
			Images: []models.ProductImage{
				{Src: "https://cdn.example.com/1.jpg", Alt: "alt", Position: 1},
			},
		},
	}
}

func TestPublish_UserErrorFailsOnlyThatProduct(t *testing.T) {
	stub := newCatalogStub()
	p := testPublisher(t, stub)

	run := Run{
		Products: []models.OptimizedProduct{
			optimizedProduct("First"),
			optimizedProduct("reject me"),
			optimizedProduct("Third"),
			optimizedProduct("Fourth"),
		},
		Settings: *models.DefaultSettings("test-shop"),
	}

	result := p.Publish(context.Background(), run)

	if result.Imported != 3 || result.Failed != 1 || result.Total != 4 {
		t.Fatalf("got imported=%d failed=%d total=%d, want 3/1/4", result.Imported, result.Failed, result.Total)
	}
	want := []string{"gid://shopify/Product/1", "gid://shopify/Product/2", "gid://shopify/Product/3"}
	if len(result.CreatedProductIDs) != len(want) {
		t.Fatalf("created ids: got %v", result.CreatedProductIDs)
	}
	for i, id := range want {
		if result.CreatedProductIDs[i] != id {
			t.Errorf("created id %d: got %q, want %q", i, result.CreatedProductIDs[i], id)
		}
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "reject me") {
		t.Errorf("errors: got %v", result.Errors)
	}
	if stub.variantCalls != 3 || stub.mediaCalls != 3 {
		t.Errorf("sub-steps: %d variant, %d media calls, want 3 each", stub.variantCalls, stub.mediaCalls)
	}
}

func TestPublish_CollectionPassAfterCreations(t *testing.T) {
	stub := newCatalogStub()
	p := testPublisher(t, stub)

	run := Run{
		Products: []models.OptimizedProduct{
			optimizedProduct("First"),
			optimizedProduct("Second"),
		},
		Settings:      *models.DefaultSettings("test-shop"),
		CollectionIDs: []string{"gid://shopify/Collection/10"},
	}

	result := p.Publish(context.Background(), run)

	if result.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", result.Imported)
	}
	assigned := stub.collectionIDs["gid://shopify/Collection/10"]
	if len(assigned) != 2 || assigned[0] != "gid://shopify/Product/1" || assigned[1] != "gid://shopify/Product/2" {
		t.Errorf("collection assignment: got %v", assigned)
	}
}

func TestPublish_NoCollectionCallWhenNothingCreated(t *testing.T) {
	stub := newCatalogStub()
	p := testPublisher(t, stub)

	run := Run{
		Products:      []models.OptimizedProduct{optimizedProduct("reject me")},
		Settings:      *models.DefaultSettings("test-shop"),
		CollectionIDs: []string{"gid://shopify/Collection/10"},
	}

	result := p.Publish(context.Background(), run)

	if result.Imported != 0 || result.Failed != 1 {
		t.Fatalf("got imported=%d failed=%d", result.Imported, result.Failed)
	}
	if len(stub.collectionIDs) != 0 {
		t.Errorf("collection assignment happened despite no created products: %v", stub.collectionIDs)
	}
}

func TestPublish_DefaultInventoryQuantityReachesVariantUpdate(t *testing.T) {
	stub := newCatalogStub()
	p := testPublisher(t, stub)

	run := Run{
		Products: []models.OptimizedProduct{
			optimizedProduct("First"),
			optimizedProduct("Second"),
		},
		Settings: *models.DefaultSettings("test-shop"),
	}

	result := p.Publish(context.Background(), run)

	if result.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", result.Imported)
	}
	if len(stub.variantInputs) != 2 {
		t.Fatalf("variant updates: got %d, want 2", len(stub.variantInputs))
	}

	for i, input := range stub.variantInputs {
		quantities, ok := input["inventoryQuantities"].([]interface{})
		if !ok || len(quantities) != 1 {
			t.Fatalf("variant %d: inventoryQuantities missing: %v", i, input)
		}
		entry, ok := quantities[0].(map[string]interface{})
		if !ok {
			t.Fatalf("variant %d: malformed quantity entry: %v", i, quantities[0])
		}
		if got, _ := entry["availableQuantity"].(float64); got != 100 {
			t.Errorf("variant %d: available quantity %v, want default 100", i, entry["availableQuantity"])
		}
		if entry["locationId"] != "gid://shopify/Location/1" {
			t.Errorf("variant %d: location %v", i, entry["locationId"])
		}
	}

	// The location resolves once per client, not per product.
	if stub.locationCalls != 1 {
		t.Errorf("location lookups: got %d, want 1", stub.locationCalls)
	}
}

func TestCatalogWeightUnit(t *testing.T) {
	tests := []struct {
		unit string
		want string
	}{
		{"kg", "KILOGRAMS"},
		{"g", "GRAMS"},
		{"lb", "POUNDS"},
		{"oz", "OUNCES"},
		{"stone", "GRAMS"},
	}
	for _, tt := range tests {
		if got := catalogWeightUnit(tt.unit); got != tt.want {
			t.Errorf("catalogWeightUnit(%q) = %q, want %q", tt.unit, got, tt.want)
		}
	}
}
