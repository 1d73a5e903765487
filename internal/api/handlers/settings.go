package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
	"importer/internal/models"
)

type SettingsHandler struct {
	repo   *database.SettingsRepository
	config *config.Config
	logger *logger.Logger
}

func NewSettingsHandler(db *gorm.DB, cfg *config.Config, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		repo:   database.NewSettingsRepository(db),
		config: cfg,
		logger: log,
	}
}

func (h *SettingsHandler) shop(c *gin.Context) string {
	if shop := c.Query("shop"); shop != "" {
		return shop
	}
	return h.config.ShopifyStore
}

// Get returns the shop's settings, creating defaults on first read.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.repo.GetOrCreate(h.shop(c))
	if err != nil {
		h.logger.Error("Failed to load settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// Update saves the shop's settings wholesale.
func (h *SettingsHandler) Update(c *gin.Context) {
	shop := h.shop(c)

	settings, err := h.repo.GetOrCreate(shop)
	if err != nil {
		h.logger.Error("Failed to load settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}

	var updated models.StoreSettings
	if err := c.ShouldBindJSON(&updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated.ID = settings.ID
	updated.Shop = shop
	updated.CreatedAt = settings.CreatedAt

	if err := h.repo.Save(&updated); err != nil {
		h.logger.Error("Failed to save settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}
