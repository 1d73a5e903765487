package models

import "time"

// StoreSettings is the per-shop configuration governing how imported products
// are repriced and published. One row per shop, created lazily with defaults
// on first read.
type StoreSettings struct {
	ID                       uint      `json:"id" gorm:"primaryKey"`
	Shop                     string    `json:"shop" gorm:"uniqueIndex;not null"`
	Vendor                   string    `json:"vendor"`
	Language                 string    `json:"language" gorm:"default:English"`
	Region                   string    `json:"region" gorm:"default:'United States'"`
	InventoryQuantity        int       `json:"inventory_quantity" gorm:"default:100"`
	InventoryPolicy          string    `json:"inventory_policy" gorm:"default:deny"`
	RetailPriceMultiplier    float64   `json:"retail_price_multiplier" gorm:"default:1"`
	RetailPriceManual        bool      `json:"retail_price_manual"`
	CompareAtPriceMultiplier float64   `json:"compare_at_price_multiplier" gorm:"default:0"`
	CompareAtPriceManual     bool      `json:"compare_at_price_manual"`
	PriceRounding            string    `json:"price_rounding" gorm:"default:'.99'"`
	ProductStatus            string    `json:"product_status" gorm:"default:DRAFT"`
	ChargeVAT                bool      `json:"charge_vat"`
	OptimizeAltText          bool      `json:"optimize_alt_text"`
	VariantPricing           bool      `json:"variant_pricing"`
	GenerateTags             bool      `json:"generate_tags"`
	GenerateProductType      bool      `json:"generate_product_type"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func (StoreSettings) TableName() string { return "store_settings" }

// DefaultSettings returns the settings a shop starts with.
func DefaultSettings(shop string) *StoreSettings {
	return &StoreSettings{
		Shop:                     shop,
		Language:                 "English",
		Region:                   "United States",
		InventoryQuantity:        100,
		InventoryPolicy:          "deny",
		RetailPriceMultiplier:    1,
		CompareAtPriceMultiplier: 0,
		PriceRounding:            ".99",
		ProductStatus:            "DRAFT",
	}
}
