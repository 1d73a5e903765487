package models

import "strconv"

// ScrapedProduct is the canonical representation of one product pulled from
// an external storefront, regardless of which endpoint produced it.
type ScrapedProduct struct {
	ExternalID  int64            `json:"external_id"`
	Title       string           `json:"title"`
	Handle      string           `json:"handle"`
	Description string           `json:"description"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        []string         `json:"tags"`
	Images      []ProductImage   `json:"images"`
	Variants    []ProductVariant `json:"variants"`
	Options     []ProductOption  `json:"options"`
	SourceURL   string           `json:"source_url"`
	SourceStore string           `json:"source_store"`
}

// Key identifies a product across a scrape batch. Two scrape tasks observing
// the same product (e.g. via overlapping collections) produce the same key.
func (p *ScrapedProduct) Key() string {
	return p.SourceStore + "/" + strconv.FormatInt(p.ExternalID, 10)
}

type ProductVariant struct {
	Title             string  `json:"title"`
	Price             string  `json:"price"`
	CompareAtPrice    *string `json:"compare_at_price"`
	SKU               string  `json:"sku"`
	Weight            float64 `json:"weight"`
	WeightUnit        string  `json:"weight_unit"`
	InventoryQuantity int     `json:"inventory_quantity"`
	Option1           string  `json:"option1"`
	Option2           string  `json:"option2"`
	Option3           string  `json:"option3"`
}

type ProductImage struct {
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// OptimizedProduct is a ScrapedProduct whose title, description and alt texts
// may have been rewritten. The displaced originals are preserved so a run can
// always be audited or rolled back.
type OptimizedProduct struct {
	ScrapedProduct
	OriginalTitle       string `json:"original_title"`
	OriginalDescription string `json:"original_description"`
}

// EnhancedImage carries AI-regenerated image bytes for one product image,
// matched back to the source image by position.
type EnhancedImage struct {
	Position int    `json:"position"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}
