package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
)

// BatchHandler exposes the import batch ledger for audit display. The ledger
// is read-only over HTTP; only the pipeline writes it.
type BatchHandler struct {
	repo   *database.BatchRepository
	config *config.Config
	logger *logger.Logger
}

func NewBatchHandler(db *gorm.DB, cfg *config.Config, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		repo:   database.NewBatchRepository(db),
		config: cfg,
		logger: log,
	}
}

func (h *BatchHandler) shop(c *gin.Context) string {
	if shop := c.Query("shop"); shop != "" {
		return shop
	}
	return h.config.ShopifyStore
}

func (h *BatchHandler) List(c *gin.Context) {
	batches, err := h.repo.List(h.shop(c))
	if err != nil {
		h.logger.Error("Failed to list batches: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch batches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batches})
}

func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.repo.Get(h.shop(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
			return
		}
		h.logger.Error("Failed to fetch batch: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch batch"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batch})
}
