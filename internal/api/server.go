package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"importer/internal/api/handlers"
	"importer/internal/api/middleware"
	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
	"importer/internal/pipeline"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Initialize the pipeline and handlers
	runner := pipeline.NewRunner(cfg, db, logger)

	importHandler := handlers.NewImportHandler(runner, cfg, logger)
	settingsHandler := handlers.NewSettingsHandler(db.DB, cfg, logger)
	templateHandler := handlers.NewTemplateHandler(db.DB, cfg, logger)
	negativeWordHandler := handlers.NewNegativeWordHandler(db.DB, cfg, logger)
	batchHandler := handlers.NewBatchHandler(db.DB, cfg, logger)
	catalogHandler := handlers.NewCatalogHandler(runner.Client(), logger)

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Import pipeline
		imports := v1.Group("/import")
		{
			imports.POST("/scrape", importHandler.Scrape)
			imports.POST("/optimize", importHandler.Optimize)
			imports.POST("/publish", importHandler.Publish)
			imports.POST("/run", importHandler.Run)
		}

		// Store settings
		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.Get)
			settings.PUT("", settingsHandler.Update)
		}

		// Prompt templates
		templates := v1.Group("/templates")
		{
			templates.GET("", templateHandler.List)
			templates.GET("/:id", templateHandler.Get)
			templates.POST("", templateHandler.Create)
			templates.PUT("/:id", templateHandler.Update)
			templates.DELETE("/:id", templateHandler.Delete)
		}

		// Negative words
		negativeWords := v1.Group("/negative-words")
		{
			negativeWords.GET("", negativeWordHandler.List)
			negativeWords.POST("", negativeWordHandler.Create)
			negativeWords.DELETE("/:id", negativeWordHandler.Delete)
		}

		// Import batches
		batches := v1.Group("/batches")
		{
			batches.GET("", batchHandler.List)
			batches.GET("/:id", batchHandler.Get)
		}

		// Catalog lookups
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/collections", catalogHandler.ListCollections)
			catalog.GET("/products", catalogHandler.SearchProducts)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}
