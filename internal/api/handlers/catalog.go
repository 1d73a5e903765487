package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"importer/internal/logger"
	"importer/internal/publisher"
)

// CatalogHandler proxies read-only catalog lookups (collection pickers,
// product search) to the merchant's store.
type CatalogHandler struct {
	client *publisher.Client
	logger *logger.Logger
}

func NewCatalogHandler(client *publisher.Client, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		client: client,
		logger: log,
	}
}

func (h *CatalogHandler) ListCollections(c *gin.Context) {
	collections, err := h.client.ListCollections(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list collections: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch collections"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": collections})
}

func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	products, err := h.client.SearchProducts(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.logger.Error("Failed to search products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}
