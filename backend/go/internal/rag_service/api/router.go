package api

import (
	"docsearch/backend/go/internal/config"
	"docsearch/backend/go/pkg/httpmiddleware"
	"docsearch/backend/go/pkg/logger"
	"docsearch/backend/go/pkg/ratelimiter"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with recovery, request logging and CORS
// installed, then registers every route.
func NewRouter(api *API, limiter *ratelimiter.Keyed, cfg config.HTTPConfig, log *logger.Logger) *gin.Engine {
	router := gin.New()
	// rate limits key on the socket peer, never on forwarded headers
	_ = router.SetTrustedProxies(nil)
	if cfg.MaxUploadMB > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadMB << 20
	}

	router.Use(gin.Recovery())
	router.Use(httpmiddleware.RequestLogger(log))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	RegisterRoutes(router, api, limiter)
	return router
}

// RegisterRoutes registers all the routes for the document search service.
func RegisterRoutes(router *gin.Engine, api *API, limiter *ratelimiter.Keyed) {
	router.GET("/health", api.HealthHandler)

	v1 := router.Group("/api")
	{
		v1.GET("/stats", api.StatsHandler)
		v1.GET("/ollama-status", api.OllamaStatusHandler)
	}

	// Ingest, search and ask share one budget per client.
	limited := v1.Group("")
	limited.Use(httpmiddleware.RateLimit(limiter))
	{
		limited.POST("/ingest", api.IngestHandler)
		limited.GET("/search", api.SearchHandler)
		limited.POST("/ask", api.AskHandler)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowCredentials = len(origins) > 0
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	cfg.ExposeHeaders = []string{"Retry-After"}
	return cfg
}
