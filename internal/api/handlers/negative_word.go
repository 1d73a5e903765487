package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
	"importer/internal/models"
)

type NegativeWordHandler struct {
	repo   *database.NegativeWordRepository
	config *config.Config
	logger *logger.Logger
}

func NewNegativeWordHandler(db *gorm.DB, cfg *config.Config, log *logger.Logger) *NegativeWordHandler {
	return &NegativeWordHandler{
		repo:   database.NewNegativeWordRepository(db),
		config: cfg,
		logger: log,
	}
}

func (h *NegativeWordHandler) shop(c *gin.Context) string {
	if shop := c.Query("shop"); shop != "" {
		return shop
	}
	return h.config.ShopifyStore
}

func (h *NegativeWordHandler) List(c *gin.Context) {
	words, err := h.repo.List(h.shop(c))
	if err != nil {
		h.logger.Error("Failed to list negative words: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch negative words"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": words})
}

func (h *NegativeWordHandler) Create(c *gin.Context) {
	var word models.NegativeWord
	if err := c.ShouldBindJSON(&word); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	word.Word = strings.TrimSpace(word.Word)
	if word.Word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Word must not be empty"})
		return
	}
	word.Shop = h.shop(c)

	if err := h.repo.Create(&word); err != nil {
		h.logger.Error("Failed to create negative word: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create negative word"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": word})
}

func (h *NegativeWordHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid negative word ID"})
		return
	}

	if err := h.repo.Delete(h.shop(c), uint(id)); err != nil {
		h.logger.Error("Failed to delete negative word: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete negative word"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
