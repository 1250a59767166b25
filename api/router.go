package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/use-agent/shelfscan/api/handler"
	"github.com/use-agent/shelfscan/api/middleware"
	"github.com/use-agent/shelfscan/cache"
	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/web"
)

// Service is the search pipeline as the API sees it.
type Service interface {
	handler.Searcher
	handler.Describer
}

// Deps are the runtime collaborators of the router. Cache and Metrics may
// be nil.
type Deps struct {
	Service   Service
	Cache     *cache.Cache
	Metrics   *metrics.Metrics
	StartTime time.Time
	Version   string
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Recovery → RequestID → AccessLog → CORS → RateLimit (if enabled) → Metrics
func NewRouter(cfg *config.Config, d Deps) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())

	if len(cfg.CORS.AllowedOrigins) > 0 {
		cc := corsConfig(cfg.CORS)
		if err := cc.Validate(); err != nil {
			return nil, fmt.Errorf("api: cors: %w", err)
		}
		r.Use(cors.New(cc))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit))
	}
	r.Use(d.Metrics.Middleware())

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", handler.Health(d.Service, d.Version, d.StartTime))
	apiGroup.GET("/scrape", handler.Scrape(d.Service, d.Cache, d.Metrics))

	r.GET("/cards", handler.Cards(d.Service, d.Cache, d.Metrics))

	if cfg.Metrics.Enabled && d.Metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(d.Metrics.Handler()))
	}

	web.Register(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r, nil
}

// corsConfig allows the configured origins with credentials. A lone "*"
// allows any origin without credentials, since browsers refuse a wildcard
// origin on credentialed responses.
func corsConfig(cfg config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cc
}
