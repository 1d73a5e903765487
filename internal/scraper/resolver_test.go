package scraper

import (
	"errors"
	"testing"
)

func TestResolve_CollectionPrefixWinsOverProductSuffix(t *testing.T) {
	target, err := Resolve("https://example.myshopify.com/collections/summer/products/red-shirt", TargetProduct)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Store != "example.myshopify.com" {
		t.Errorf("store: got %q, want %q", target.Store, "example.myshopify.com")
	}
	if target.Handle != "summer" {
		t.Errorf("handle: got %q, want %q", target.Handle, "summer")
	}
	if target.Type != TargetCollection {
		t.Errorf("type: got %q, want %q", target.Type, TargetCollection)
	}
}

func TestResolve_Paths(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		defaultType TargetType
		wantHandle  string
		wantType    TargetType
	}{
		{"product path", "https://shop.example.com/products/blue-mug", TargetCollection, "blue-mug", TargetProduct},
		{"collection path", "https://shop.example.com/collections/mugs", TargetProduct, "mugs", TargetCollection},
		{"bare handle uses default product", "https://shop.example.com/blue-mug", TargetProduct, "blue-mug", TargetProduct},
		{"bare handle uses default collection", "https://shop.example.com/mugs", TargetCollection, "mugs", TargetCollection},
		{"nested path takes last segment", "https://shop.example.com/pages/about/team", TargetProduct, "team", TargetProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := Resolve(tt.url, tt.defaultType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target.Handle != tt.wantHandle {
				t.Errorf("handle: got %q, want %q", target.Handle, tt.wantHandle)
			}
			if target.Type != tt.wantType {
				t.Errorf("type: got %q, want %q", target.Type, tt.wantType)
			}
		})
	}
}

func TestResolve_MissingSchemeParsesLikeExplicitScheme(t *testing.T) {
	withScheme, err := Resolve("https://shop.example.com/collections/sale", TargetProduct)
	if err != nil {
		t.Fatalf("unexpected error with scheme: %v", err)
	}
	withoutScheme, err := Resolve("shop.example.com/collections/sale", TargetProduct)
	if err != nil {
		t.Fatalf("unexpected error without scheme: %v", err)
	}
	if *withScheme != *withoutScheme {
		t.Errorf("targets differ: %+v vs %+v", withScheme, withoutScheme)
	}
}

func TestResolve_Errors(t *testing.T) {
	if _, err := Resolve("", TargetProduct); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("empty input: got %v, want ErrInvalidURL", err)
	}
	if _, err := Resolve("https://shop.example.com/", TargetProduct); !errors.Is(err, ErrUnresolvableHandle) {
		t.Errorf("bare host: got %v, want ErrUnresolvableHandle", err)
	}
}
