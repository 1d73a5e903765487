package scraper

import (
	"encoding/json"
	"strings"
)

// Raw shapes for the storefront JSON endpoints. Every field is optional;
// normalization applies zero-value defaults so downstream stages never branch
// on missing data.

type rawProductResponse struct {
	Product rawProduct `json:"product"`
}

type rawCollectionResponse struct {
	Products []rawProduct `json:"products"`
}

type rawProduct struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Handle      string       `json:"handle"`
	BodyHTML    string       `json:"body_html"`
	Vendor      string       `json:"vendor"`
	ProductType string       `json:"product_type"`
	Tags        flexTags     `json:"tags"`
	Images      []rawImage   `json:"images"`
	Variants    []rawVariant `json:"variants"`
	Options     []rawOption  `json:"options"`
}

type rawVariant struct {
	Title             string      `json:"title"`
	Price             flexDecimal `json:"price"`
	CompareAtPrice    flexDecimal `json:"compare_at_price"`
	SKU               string      `json:"sku"`
	Grams             float64     `json:"grams"`
	Weight            float64     `json:"weight"`
	WeightUnit        string      `json:"weight_unit"`
	InventoryQuantity int         `json:"inventory_quantity"`
	Option1           *string     `json:"option1"`
	Option2           *string     `json:"option2"`
	Option3           *string     `json:"option3"`
}

type rawImage struct {
	Src      string  `json:"src"`
	Alt      *string `json:"alt"`
	Position int     `json:"position"`
}

type rawOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// flexTags accepts both the array form the storefront endpoints return and
// the comma-separated string form the admin API uses.
type flexTags []string

func (t *flexTags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = nil
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	*t = parts
	return nil
}

// flexDecimal accepts a price as either a JSON string or a bare number and
// keeps the decimal-string form. null becomes the empty string.
type flexDecimal string

func (d *flexDecimal) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = flexDecimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = flexDecimal(n.String())
	return nil
}
