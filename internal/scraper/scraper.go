package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"importer/internal/httpx"
	"importer/internal/logger"
	"importer/internal/models"
)

// collectionPageSize is the page-size ceiling the storefront endpoint allows.
// A short page ends pagination; a collection holding an exact multiple of 250
// products is detected by the trailing empty page.
const collectionPageSize = 250

// RemoteFetchError reports a non-2xx response from a storefront endpoint.
type RemoteFetchError struct {
	Status int
	URL    string
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("storefront fetch failed: %d for %s", e.Status, e.URL)
}

type Scraper struct {
	client  *http.Client
	baseURL string
	logger  *logger.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithBaseURL overrides the https://{store} base, used by tests to point at
// a mock storefront.
func WithBaseURL(base string) Option {
	return func(s *Scraper) { s.baseURL = base }
}

func New(log *logger.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		client: httpx.NewClient(30 * time.Second),
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchProduct fetches and normalizes a single product.
func (s *Scraper) FetchProduct(ctx context.Context, store, handle string) (*models.ScrapedProduct, error) {
	url := fmt.Sprintf("%s/products/%s.json", s.storeBase(store), handle)

	var resp rawProductResponse
	if err := s.fetchJSON(ctx, store, url, &resp); err != nil {
		return nil, err
	}

	product := normalizeProduct(resp.Product, store, url)
	return &product, nil
}

// FetchCollection paginates a collection's products endpoint. Pagination
// stops on the first page that is empty or shorter than the page-size
// ceiling, whichever comes first.
func (s *Scraper) FetchCollection(ctx context.Context, store, handle string) ([]models.ScrapedProduct, error) {
	var products []models.ScrapedProduct

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/collections/%s/products.json?limit=%d&page=%d",
			s.storeBase(store), handle, collectionPageSize, page)

		var resp rawCollectionResponse
		if err := s.fetchJSON(ctx, store, url, &resp); err != nil {
			return nil, err
		}

		s.logger.Debug("Fetched page %d of collection %s/%s: %d products", page, store, handle, len(resp.Products))

		if len(resp.Products) == 0 {
			break
		}
		for _, raw := range resp.Products {
			products = append(products, normalizeProduct(raw, store, url))
		}
		if len(resp.Products) < collectionPageSize {
			break
		}
	}

	return products, nil
}

func (s *Scraper) storeBase(store string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	return "https://" + store
}

func (s *Scraper) fetchJSON(ctx context.Context, store, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpx.SetBrowserHeaders(req, "https://"+store+"/")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteFetchError{Status: resp.StatusCode, URL: url}
	}

	body, err := httpx.ReadBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// normalizeProduct maps the loosely-typed storefront payload into the
// canonical representation, defaulting every optional field so downstream
// stages never see undefined values.
func normalizeProduct(raw rawProduct, store, sourceURL string) models.ScrapedProduct {
	product := models.ScrapedProduct{
		ExternalID:  raw.ID,
		Title:       raw.Title,
		Handle:      raw.Handle,
		Description: raw.BodyHTML,
		Vendor:      raw.Vendor,
		ProductType: raw.ProductType,
		Tags:        []string(raw.Tags),
		SourceURL:   sourceURL,
		SourceStore: store,
	}

	for i, img := range raw.Images {
		alt := ""
		if img.Alt != nil {
			alt = *img.Alt
		}
		position := img.Position
		if position == 0 {
			position = i + 1
		}
		product.Images = append(product.Images, models.ProductImage{
			Src:      img.Src,
			Alt:      alt,
			Position: position,
		})
	}

	for _, v := range raw.Variants {
		variant := models.ProductVariant{
			Title:             v.Title,
			Price:             string(v.Price),
			SKU:               v.SKU,
			Weight:            v.Weight,
			WeightUnit:        v.WeightUnit,
			InventoryQuantity: v.InventoryQuantity,
		}
		if variant.Price == "" {
			variant.Price = "0"
		}
		if variant.Weight == 0 && v.Grams > 0 {
			variant.Weight = v.Grams / 1000
			variant.WeightUnit = "kg"
		}
		if variant.WeightUnit == "" {
			variant.WeightUnit = "kg"
		}
		if compareAt := string(v.CompareAtPrice); compareAt != "" {
			variant.CompareAtPrice = &compareAt
		}
		if v.Option1 != nil {
			variant.Option1 = *v.Option1
		}
		if v.Option2 != nil {
			variant.Option2 = *v.Option2
		}
		if v.Option3 != nil {
			variant.Option3 = *v.Option3
		}
		product.Variants = append(product.Variants, variant)
	}

	for _, opt := range raw.Options {
		product.Options = append(product.Options, models.ProductOption{
			Name:   opt.Name,
			Values: opt.Values,
		})
	}

	return product
}

// Deduplicate keeps the first occurrence per (sourceStore, externalID) key,
// preserving encounter order otherwise.
func Deduplicate(products []models.ScrapedProduct) []models.ScrapedProduct {
	seen := make(map[string]struct{}, len(products))
	result := make([]models.ScrapedProduct, 0, len(products))
	for _, p := range products {
		key := p.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, p)
	}
	return result
}
