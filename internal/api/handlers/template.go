package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
	"importer/internal/models"
)

type TemplateHandler struct {
	repo   *database.TemplateRepository
	config *config.Config
	logger *logger.Logger
}

func NewTemplateHandler(db *gorm.DB, cfg *config.Config, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		repo:   database.NewTemplateRepository(db),
		config: cfg,
		logger: log,
	}
}

func (h *TemplateHandler) shop(c *gin.Context) string {
	if shop := c.Query("shop"); shop != "" {
		return shop
	}
	return h.config.ShopifyStore
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.repo.List(h.shop(c))
	if err != nil {
		h.logger.Error("Failed to list templates: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
		return
	}

	template, err := h.repo.Get(h.shop(c), uint(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		h.logger.Error("Failed to fetch template: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var template models.PromptTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	template.Shop = h.shop(c)

	if err := h.repo.Create(&template); err != nil {
		h.logger.Error("Failed to create template: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": template})
}

func (h *TemplateHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
		return
	}

	template, err := h.repo.Get(h.shop(c), uint(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		h.logger.Error("Failed to fetch template: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch template"})
		return
	}

	var updated models.PromptTemplate
	if err := c.ShouldBindJSON(&updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	template.Name = updated.Name
	template.TitlePrompt = updated.TitlePrompt
	template.DescriptionPrompt = updated.DescriptionPrompt

	if err := h.repo.Update(template); err != nil {
		h.logger.Error("Failed to update template: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
		return
	}

	if err := h.repo.Delete(h.shop(c), uint(id)); err != nil {
		h.logger.Error("Failed to delete template: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
