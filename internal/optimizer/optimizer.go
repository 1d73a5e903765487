package optimizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"importer/internal/ai"
	"importer/internal/httpx"
	"importer/internal/logger"
	"importer/internal/models"
)

// batchSize is the number of products optimized concurrently. Batch N+1 does
// not start until every optimization in batch N has settled.
const batchSize = 3

// Generator is the slice of the AI client the optimizer needs.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string, reference *ai.InlineImage) ([]ai.InlineImage, error)
}

// Options control one optimization run.
type Options struct {
	TitlePrompt         string
	DescriptionPrompt   string
	NegativeWords       []string
	OptimizeAltText     bool
	GenerateTags        bool
	GenerateProductType bool
}

type Optimizer struct {
	generator Generator
	client    *http.Client
	logger    *logger.Logger
}

func New(generator Generator, log *logger.Logger) *Optimizer {
	return &Optimizer{
		generator: generator,
		client:    httpx.NewClient(30 * time.Second),
		logger:    log,
	}
}

// OptimizeProduct rewrites a product's title, description, and optionally its
// image alt texts. Each field is attempted independently and falls back to
// the original value on failure, so the call never fails as a whole. The
// returned warnings describe every degraded field.
func (o *Optimizer) OptimizeProduct(ctx context.Context, product models.ScrapedProduct, opts Options) (models.OptimizedProduct, []string) {
	optimized := models.OptimizedProduct{
		ScrapedProduct:      product,
		OriginalTitle:       product.Title,
		OriginalDescription: product.Description,
	}
	var warnings []string

	if title, err := o.generator.GenerateText(ctx, buildTitlePrompt(product, opts.TitlePrompt, opts.NegativeWords)); err != nil {
		o.logger.Warn("Title optimization failed for %q, keeping original: %v", product.Title, err)
		warnings = append(warnings, fmt.Sprintf("%s: title optimization failed", product.Title))
	} else if cleaned := SanitizeResponse(title, opts.NegativeWords); cleaned != "" {
		optimized.Title = cleaned
	}

	if description, err := o.generator.GenerateText(ctx, buildDescriptionPrompt(product, opts.DescriptionPrompt, opts.NegativeWords)); err != nil {
		o.logger.Warn("Description optimization failed for %q, keeping original: %v", product.Title, err)
		warnings = append(warnings, fmt.Sprintf("%s: description optimization failed", product.Title))
	} else if cleaned := SanitizeResponse(description, opts.NegativeWords); cleaned != "" {
		optimized.Description = cleaned
	}

	if opts.GenerateTags {
		if tags, err := o.generator.GenerateText(ctx, buildTagsPrompt(product, opts.NegativeWords)); err != nil {
			o.logger.Warn("Tag generation failed for %q, keeping original tags: %v", product.Title, err)
			warnings = append(warnings, fmt.Sprintf("%s: tag generation failed", product.Title))
		} else if parsed := parseTagList(SanitizeResponse(tags, opts.NegativeWords)); len(parsed) > 0 {
			optimized.Tags = parsed
		}
	}

	if opts.GenerateProductType {
		if productType, err := o.generator.GenerateText(ctx, buildProductTypePrompt(product, opts.NegativeWords)); err != nil {
			o.logger.Warn("Product type generation failed for %q, keeping original: %v", product.Title, err)
			warnings = append(warnings, fmt.Sprintf("%s: product type generation failed", product.Title))
		} else if cleaned := SanitizeResponse(productType, opts.NegativeWords); cleaned != "" {
			optimized.ProductType = cleaned
		}
	}

	if opts.OptimizeAltText && len(product.Images) > 0 {
		altWarnings := o.optimizeAltTexts(ctx, &optimized, opts)
		warnings = append(warnings, altWarnings...)
	}

	return optimized, warnings
}

// parseTagList splits a generated comma-separated tag list, dropping blanks.
func parseTagList(text string) []string {
	var tags []string
	for _, tag := range strings.Split(text, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// optimizeAltTexts rewrites alt text for every image concurrently. Each
// image fails independently and keeps its original alt text.
func (o *Optimizer) optimizeAltTexts(ctx context.Context, product *models.OptimizedProduct, opts Options) []string {
	warnings := make([]string, len(product.Images))

	var g errgroup.Group
	for i := range product.Images {
		i := i
		g.Go(func() error {
			prompt := buildAltTextPrompt(product.ScrapedProduct, product.Images[i], opts.NegativeWords)
			alt, err := o.generator.GenerateText(ctx, prompt)
			if err != nil {
				o.logger.Warn("Alt text optimization failed for %q image %d: %v", product.Title, product.Images[i].Position, err)
				warnings[i] = fmt.Sprintf("%s: alt text optimization failed for image %d", product.OriginalTitle, product.Images[i].Position)
				return nil
			}
			if cleaned := SanitizeResponse(alt, opts.NegativeWords); cleaned != "" {
				product.Images[i].Alt = cleaned
			}
			return nil
		})
	}
	g.Wait()

	var nonEmpty []string
	for _, w := range warnings {
		if w != "" {
			nonEmpty = append(nonEmpty, w)
		}
	}
	return nonEmpty
}

// OptimizeProducts runs products through optimization in fixed-size
// concurrent batches, waiting for every product in a batch to settle before
// starting the next. Output order matches input order.
func (o *Optimizer) OptimizeProducts(ctx context.Context, products []models.ScrapedProduct, opts Options) ([]models.OptimizedProduct, []string) {
	results := make([]models.OptimizedProduct, len(products))
	var warnings []string
	var mu sync.Mutex

	for start := 0; start < len(products); start += batchSize {
		end := start + batchSize
		if end > len(products) {
			end = len(products)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				optimized, productWarnings := o.OptimizeProduct(ctx, products[i], opts)
				mu.Lock()
				results[i] = optimized
				warnings = append(warnings, productWarnings...)
				mu.Unlock()
			}(i)
		}
		wg.Wait()
	}

	return results, warnings
}

// EnhanceImages regenerates a product's images through the AI image service.
// The first image gets hero treatment, later images lifestyle treatment.
// Every image fails independently; a failed image is simply not enhanced and
// the original remains in use downstream.
func (o *Optimizer) EnhanceImages(ctx context.Context, product models.ScrapedProduct) ([]models.EnhancedImage, []string) {
	var enhanced []models.EnhancedImage
	var warnings []string

	for _, image := range product.Images {
		reference, err := o.downloadImage(ctx, image.Src)
		if err != nil {
			o.logger.Warn("Failed to download image %d of %q: %v", image.Position, product.Title, err)
			warnings = append(warnings, fmt.Sprintf("%s: could not fetch image %d for enhancement", product.Title, image.Position))
			continue
		}

		generated, err := o.generator.GenerateImage(ctx, buildImagePrompt(image.Position), reference)
		if err != nil || len(generated) == 0 {
			o.logger.Warn("Image enhancement failed for %q image %d: %v", product.Title, image.Position, err)
			warnings = append(warnings, fmt.Sprintf("%s: enhancement failed for image %d", product.Title, image.Position))
			continue
		}

		enhanced = append(enhanced, models.EnhancedImage{
			Position: image.Position,
			MIMEType: generated[0].MIMEType,
			Data:     generated[0].Data,
		})
	}

	return enhanced, warnings
}

func (o *Optimizer) downloadImage(ctx context.Context, src string) (*ai.InlineImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned %d", resp.StatusCode)
	}

	data, err := httpx.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return &ai.InlineImage{MIMEType: mimeType, Data: data}, nil
}
