package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"importer/internal/config"
	"importer/internal/logger"
	"importer/internal/models"
	"importer/internal/pipeline"
	"importer/internal/scraper"
)

// ImportHandler exposes the scrape/optimize/publish pipeline over HTTP. Each
// endpoint returns an aggregate result with embedded per-item errors; the
// request itself only fails for whole-request problems like a missing API
// key.
type ImportHandler struct {
	runner *pipeline.Runner
	config *config.Config
	logger *logger.Logger
}

func NewImportHandler(runner *pipeline.Runner, cfg *config.Config, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		runner: runner,
		config: cfg,
		logger: log,
	}
}

func (h *ImportHandler) shop(c *gin.Context) string {
	if shop := c.Query("shop"); shop != "" {
		return shop
	}
	return h.config.ShopifyStore
}

type scrapeRequest struct {
	URLs        []string `json:"urls" binding:"required"`
	DefaultType string   `json:"default_type"`
}

// Scrape fetches and normalizes products from storefront URLs.
// POST /api/v1/import/scrape
func (h *ImportHandler) Scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	defaultType := scraper.TargetProduct
	if req.DefaultType == string(scraper.TargetCollection) {
		defaultType = scraper.TargetCollection
	}

	products, scrapeErrors := h.runner.Scrape(c.Request.Context(), req.URLs, defaultType)

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"errors":   scrapeErrors,
	})
}

type optimizeRequest struct {
	Products      []models.ScrapedProduct `json:"products" binding:"required"`
	TemplateID    *uint                   `json:"template_id"`
	OptimizeText  *bool                   `json:"optimize_text"`
	EnhanceImages bool                    `json:"enhance_images"`
}

// Optimize rewrites product content through the AI service.
// POST /api/v1/import/optimize
func (h *ImportHandler) Optimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	// Text rewriting defaults on; enhancement-only callers opt out.
	optimized, enhanced, warnings, err := h.runner.Optimize(c.Request.Context(), h.shop(c), req.Products, pipeline.OptimizeOptions{
		TemplateID:    req.TemplateID,
		OptimizeText:  req.OptimizeText == nil || *req.OptimizeText,
		EnhanceImages: req.EnhanceImages,
	})
	if err != nil {
		var configErr *pipeline.ConfigurationError
		if errors.As(err, &configErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": configErr.Error()})
			return
		}
		h.logger.Error("Optimization request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Optimization failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":        optimized,
		"enhanced_images": enhanced,
		"warnings":        warnings,
	})
}

type publishRequest struct {
	Products       []models.OptimizedProduct         `json:"products" binding:"required"`
	EnhancedImages map[string][]models.EnhancedImage `json:"enhanced_images"`
	SourceURLs     []string                          `json:"source_urls"`
	CollectionIDs  []string                          `json:"collection_ids"`
	SourceCurrency string                            `json:"source_currency"`
	UsedAI         bool                              `json:"used_ai"`
}

// Publish materializes products in the merchant's catalog and records the
// batch.
// POST /api/v1/import/publish
func (h *ImportHandler) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	summary, err := h.runner.Publish(c.Request.Context(), pipeline.PublishRequest{
		Shop:           h.shop(c),
		Products:       req.Products,
		EnhancedImages: req.EnhancedImages,
		SourceURLs:     req.SourceURLs,
		CollectionIDs:  req.CollectionIDs,
		SourceCurrency: req.SourceCurrency,
		UsedAI:         req.UsedAI,
	})
	if err != nil {
		h.logger.Error("Publish request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Publish failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Run executes the whole pipeline synchronously for one job.
// POST /api/v1/import/run
func (h *ImportHandler) Run(c *gin.Context) {
	var req pipeline.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	if req.Shop == "" {
		req.Shop = h.shop(c)
	}

	summary, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		var configErr *pipeline.ConfigurationError
		if errors.As(err, &configErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": configErr.Error()})
			return
		}
		h.logger.Error("Import run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import run failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
