package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"importer/internal/logger"
	"importer/internal/models"
)

// interProductDelay spaces out product creations when the run also made AI
// calls, so the two services' rate limits do not compound.
const interProductDelay = 2 * time.Second

// Result is the aggregate outcome of one publish run. CreatedProductIDs
// preserves the input's relative order for the successful products.
type Result struct {
	Imported          int      `json:"imported"`
	Failed            int      `json:"failed"`
	Total             int      `json:"total"`
	CreatedProductIDs []string `json:"created_product_ids"`
	Errors            []string `json:"errors,omitempty"`
}

// Run configures a publish run.
type Run struct {
	Products       []models.OptimizedProduct
	EnhancedImages map[string][]models.EnhancedImage // keyed by ScrapedProduct.Key()
	Settings       models.StoreSettings
	CollectionIDs  []string
	UsedAI         bool
}

type Publisher struct {
	client *Client
	logger *logger.Logger
	// pause is swapped out by tests to avoid real sleeps.
	pause func(ctx context.Context, d time.Duration)
}

func New(client *Client, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: log,
		pause:  sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Publish creates each product in the remote catalog, strictly in input
// order, one at a time. A product's failure never aborts the run; variant
// and media sub-step failures are logged but leave the product counted as
// imported. Collection assignment happens as a separate pass after every
// creation attempt has settled.
func (p *Publisher) Publish(ctx context.Context, run Run) *Result {
	result := &Result{Total: len(run.Products)}

	for i, product := range run.Products {
		if i > 0 && run.UsedAI {
			p.pause(ctx, interProductDelay)
		}

		created, err := p.publishProduct(ctx, product, run)
		if err != nil {
			p.logger.Error("Failed to create product %q: %v", product.Title, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", product.Title, err))
			continue
		}

		result.Imported++
		result.CreatedProductIDs = append(result.CreatedProductIDs, created.ID)
	}

	for _, collectionID := range run.CollectionIDs {
		if len(result.CreatedProductIDs) == 0 {
			break
		}
		if err := p.client.AddProductsToCollection(ctx, collectionID, result.CreatedProductIDs); err != nil {
			p.logger.Error("Failed to assign products to collection %s: %v", collectionID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("collection %s: %v", collectionID, err))
		}
	}

	return result
}

func (p *Publisher) publishProduct(ctx context.Context, product models.OptimizedProduct, run Run) (*CreatedProduct, error) {
	input := ProductCreateInput{
		Title:           product.Title,
		DescriptionHTML: product.Description,
		Vendor:          product.Vendor,
		ProductType:     product.ProductType,
		Tags:            product.Tags,
		Status:          run.Settings.ProductStatus,
	}
	if run.Settings.Vendor != "" {
		input.Vendor = run.Settings.Vendor
	}

	created, userErrors, err := p.client.CreateProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(userErrors) > 0 {
		return nil, fmt.Errorf("creation rejected: %s", formatUserErrors(userErrors))
	}

	// Sub-step failures from here on are logged but do not fail the
	// product.
	if len(product.Variants) > 0 && created.DefaultVariantID != "" {
		variant := product.Variants[0]
		if variant.InventoryQuantity == 0 {
			variant.InventoryQuantity = run.Settings.InventoryQuantity
		}
		if err := p.client.UpdateDefaultVariant(ctx, created.ID, created.DefaultVariantID, variant, run.Settings); err != nil {
			p.logger.Warn("Variant update failed for %q (%s): %v", product.Title, created.ID, err)
		}
	}

	p.attachMedia(ctx, product, created.ID, run.EnhancedImages[product.Key()])

	return created, nil
}

// attachMedia attaches each product image, preferring an AI-enhanced
// rendition (via staged upload) over the remote source URL. Each image fails
// independently with no retry.
func (p *Publisher) attachMedia(ctx context.Context, product models.OptimizedProduct, productID string, enhanced []models.EnhancedImage) {
	enhancedByPosition := make(map[int]models.EnhancedImage, len(enhanced))
	for _, img := range enhanced {
		enhancedByPosition[img.Position] = img
	}

	for _, image := range product.Images {
		if replacement, ok := enhancedByPosition[image.Position]; ok {
			if err := p.attachEnhancedImage(ctx, productID, image, replacement); err != nil {
				p.logger.Warn("Enhanced media attach failed for %q image %d: %v", product.Title, image.Position, err)
			}
			continue
		}
		if err := p.client.CreateMedia(ctx, productID, image.Src, image.Alt); err != nil {
			p.logger.Warn("Media attach failed for %q image %d: %v", product.Title, image.Position, err)
		}
	}
}

func (p *Publisher) attachEnhancedImage(ctx context.Context, productID string, image models.ProductImage, enhanced models.EnhancedImage) error {
	filename := fmt.Sprintf("image-%d%s", image.Position, extensionFor(enhanced.MIMEType))

	target, err := p.client.CreateStagedUpload(ctx, filename, enhanced.MIMEType, len(enhanced.Data))
	if err != nil {
		return fmt.Errorf("staged upload slot: %w", err)
	}
	if err := p.client.UploadStagedImage(ctx, target, filename, enhanced.Data); err != nil {
		return fmt.Errorf("staged upload: %w", err)
	}
	if err := p.client.CreateMedia(ctx, productID, target.ResourceURL, image.Alt); err != nil {
		return fmt.Errorf("media creation: %w", err)
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "png"):
		return ".png"
	case strings.Contains(mimeType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
