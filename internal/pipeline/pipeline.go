package pipeline

import (
	"context"
	"fmt"

	"importer/internal/ai"
	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
	"importer/internal/models"
	"importer/internal/optimizer"
	"importer/internal/pricing"
	"importer/internal/publisher"
	"importer/internal/scraper"
)

// ConfigurationError reports a missing required secret. It is the one error
// that fails a whole request up front: no partial progress is possible
// without the credential.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + e.Missing
}

// Runner drives the import pipeline. All collaborators are injected; there
// is no process-wide shared state, so one Runner per process serves
// independent requests safely.
type Runner struct {
	cfg       *config.Config
	scraper   *scraper.Scraper
	publisher *publisher.Publisher
	client    *publisher.Client
	settings  *database.SettingsRepository
	templates *database.TemplateRepository
	negatives *database.NegativeWordRepository
	batches   *database.BatchRepository
	logger    *logger.Logger
	// generator is swapped out by tests to avoid real AI calls.
	generator func() optimizer.Generator
}

func NewRunner(cfg *config.Config, db *database.Database, log *logger.Logger) *Runner {
	client := publisher.NewClient(cfg.ShopifyStore, cfg.ShopifyAccessToken, cfg.ShopifyAPIVersion, log)
	return &Runner{
		cfg:       cfg,
		scraper:   scraper.New(log),
		publisher: publisher.New(client, log),
		client:    client,
		settings:  database.NewSettingsRepository(db.DB),
		templates: database.NewTemplateRepository(db.DB),
		negatives: database.NewNegativeWordRepository(db.DB),
		batches:   database.NewBatchRepository(db.DB),
		logger:    log,
		generator: func() optimizer.Generator { return ai.NewClient(cfg.GeminiAPIKey, log) },
	}
}

// Client exposes the catalog client for collection/product proxy endpoints.
func (r *Runner) Client() *publisher.Client { return r.client }

// Scrape resolves and fetches every URL, deduplicates across sources, and
// reports per-URL failures without aborting siblings.
func (r *Runner) Scrape(ctx context.Context, urls []string, defaultType scraper.TargetType) ([]models.ScrapedProduct, []string) {
	var products []models.ScrapedProduct
	var scrapeErrors []string

	for _, raw := range urls {
		target, err := scraper.Resolve(raw, defaultType)
		if err != nil {
			r.logger.Warn("Skipping unresolvable url %q: %v", raw, err)
			scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: %v", raw, err))
			continue
		}

		switch target.Type {
		case scraper.TargetCollection:
			fetched, err := r.scraper.FetchCollection(ctx, target.Store, target.Handle)
			if err != nil {
				scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: %v", raw, err))
				continue
			}
			products = append(products, fetched...)
		default:
			fetched, err := r.scraper.FetchProduct(ctx, target.Store, target.Handle)
			if err != nil {
				scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: %v", raw, err))
				continue
			}
			products = append(products, *fetched)
		}
	}

	return scraper.Deduplicate(products), scrapeErrors
}

// OptimizeOptions selects how a run's content optimization behaves. Text
// rewriting and image enhancement toggle independently; an enhancement-only
// run leaves titles, descriptions and alt texts untouched.
type OptimizeOptions struct {
	TemplateID    *uint
	OptimizeText  bool
	EnhanceImages bool
}

// Optimize rewrites product content through the AI service. Missing API key
// fails fast; everything downstream degrades per-field instead of failing.
// The returned map carries AI-enhanced image renditions keyed by product.
func (r *Runner) Optimize(ctx context.Context, shop string, products []models.ScrapedProduct, opts OptimizeOptions) ([]models.OptimizedProduct, map[string][]models.EnhancedImage, []string, error) {
	if r.cfg.GeminiAPIKey == "" {
		return nil, nil, nil, &ConfigurationError{Missing: "GEMINI_API_KEY"}
	}

	settings, err := r.settings.GetOrCreate(shop)
	if err != nil {
		return nil, nil, nil, err
	}

	optimizeOpts := optimizer.Options{
		OptimizeAltText:     settings.OptimizeAltText,
		GenerateTags:        settings.GenerateTags,
		GenerateProductType: settings.GenerateProductType,
	}
	if opts.TemplateID != nil {
		template, err := r.templates.Get(shop, *opts.TemplateID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("template %d: %w", *opts.TemplateID, err)
		}
		optimizeOpts.TitlePrompt = template.TitlePrompt
		optimizeOpts.DescriptionPrompt = template.DescriptionPrompt
	}
	if words, err := r.negatives.Words(shop); err != nil {
		r.logger.Warn("Failed to load negative words for %s: %v", shop, err)
	} else {
		optimizeOpts.NegativeWords = words
	}

	opt := optimizer.New(r.generator(), r.logger)

	var optimized []models.OptimizedProduct
	var warnings []string
	if opts.OptimizeText {
		optimized, warnings = opt.OptimizeProducts(ctx, products, optimizeOpts)
	} else {
		optimized = PassThrough(products)
	}

	var enhanced map[string][]models.EnhancedImage
	if opts.EnhanceImages {
		enhanced = make(map[string][]models.EnhancedImage, len(products))
		for _, product := range products {
			images, imageWarnings := opt.EnhanceImages(ctx, product)
			warnings = append(warnings, imageWarnings...)
			if len(images) > 0 {
				enhanced[product.Key()] = images
			}
		}
	}

	return optimized, enhanced, warnings, nil
}

// PublishRequest is one publish run: already-scraped (and possibly
// optimized) products headed for the merchant's catalog.
type PublishRequest struct {
	Shop           string
	Products       []models.OptimizedProduct
	EnhancedImages map[string][]models.EnhancedImage
	SourceURLs     []string
	CollectionIDs  []string
	SourceCurrency string
	UsedAI         bool
}

// Summary is the aggregate outcome reported to the caller and persisted in
// the batch ledger.
type Summary struct {
	BatchID           string   `json:"batch_id"`
	Imported          int      `json:"imported"`
	Failed            int      `json:"failed"`
	Total             int      `json:"total"`
	CreatedProductIDs []string `json:"created_product_ids"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Publish reprices the products, records the batch, materializes each
// product in the catalog, and finalizes the ledger with the outcome.
func (r *Runner) Publish(ctx context.Context, req PublishRequest) (*Summary, error) {
	settings, err := r.settings.GetOrCreate(req.Shop)
	if err != nil {
		return nil, err
	}

	sourceCurrency := req.SourceCurrency
	if sourceCurrency == "" {
		sourceCurrency = "USD"
	}
	targetCurrency := pricing.CurrencyForRegion(settings.Region)

	for i := range req.Products {
		pricing.ApplyToProduct(&req.Products[i].ScrapedProduct, *settings, sourceCurrency, targetCurrency)
	}

	batch, err := r.batches.Start(req.Shop, len(req.Products), req.SourceURLs, settings)
	if err != nil {
		return nil, err
	}

	result := r.publisher.Publish(ctx, publisher.Run{
		Products:       req.Products,
		EnhancedImages: req.EnhancedImages,
		Settings:       *settings,
		CollectionIDs:  req.CollectionIDs,
		UsedAI:         req.UsedAI,
	})

	// A cancelled or timed-out run died wholesale; the ledger records the
	// abort instead of a completion with misleading counts.
	if ctxErr := ctx.Err(); ctxErr != nil {
		if err := r.batches.Fail(batch.ID); err != nil {
			r.logger.Error("Failed to mark batch %s failed: %v", batch.ID, err)
		}
		return nil, fmt.Errorf("import run aborted: %w", ctxErr)
	}

	if err := r.batches.Complete(batch.ID, result.Imported, result.Failed); err != nil {
		r.logger.Error("Failed to finalize batch %s: %v", batch.ID, err)
	}

	return &Summary{
		BatchID:           batch.ID,
		Imported:          result.Imported,
		Failed:            result.Failed,
		Total:             result.Total,
		CreatedProductIDs: result.CreatedProductIDs,
		Errors:            result.Errors,
	}, nil
}

// RunRequest is a full end-to-end import job: scrape, optionally optimize,
// reprice, publish.
type RunRequest struct {
	Shop           string   `json:"shop"`
	URLs           []string `json:"urls"`
	DefaultType    string   `json:"default_type"`
	Optimize       bool     `json:"optimize"`
	EnhanceImages  bool     `json:"enhance_images"`
	TemplateID     *uint    `json:"template_id"`
	CollectionIDs  []string `json:"collection_ids"`
	SourceCurrency string   `json:"source_currency"`
}

// Run executes the whole pipeline for one job.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*Summary, error) {
	defaultType := scraper.TargetProduct
	if req.DefaultType == string(scraper.TargetCollection) {
		defaultType = scraper.TargetCollection
	}

	products, scrapeErrors := r.Scrape(ctx, req.URLs, defaultType)
	if len(products) == 0 {
		return nil, fmt.Errorf("no products scraped from %d urls: %v", len(req.URLs), scrapeErrors)
	}

	var optimized []models.OptimizedProduct
	var enhanced map[string][]models.EnhancedImage
	var warnings []string

	if req.Optimize || req.EnhanceImages {
		var err error
		optimized, enhanced, warnings, err = r.Optimize(ctx, req.Shop, products, OptimizeOptions{
			TemplateID:    req.TemplateID,
			OptimizeText:  req.Optimize,
			EnhanceImages: req.EnhanceImages,
		})
		if err != nil {
			return nil, err
		}
	} else {
		optimized = PassThrough(products)
	}

	summary, err := r.Publish(ctx, PublishRequest{
		Shop:           req.Shop,
		Products:       optimized,
		EnhancedImages: enhanced,
		SourceURLs:     req.URLs,
		CollectionIDs:  req.CollectionIDs,
		SourceCurrency: req.SourceCurrency,
		UsedAI:         req.Optimize || req.EnhanceImages,
	})
	if err != nil {
		return nil, err
	}

	summary.Errors = append(scrapeErrors, summary.Errors...)
	summary.Warnings = warnings
	return summary, nil
}

// PassThrough wraps scraped products in the optimized shape without touching
// their content, for repricing-only runs.
func PassThrough(products []models.ScrapedProduct) []models.OptimizedProduct {
	optimized := make([]models.OptimizedProduct, len(products))
	for i, product := range products {
		optimized[i] = models.OptimizedProduct{
			ScrapedProduct:      product,
			OriginalTitle:       product.Title,
			OriginalDescription: product.Description,
		}
	}
	return optimized
}
