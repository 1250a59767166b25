package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/shelfscan/cache"
	"github.com/use-agent/shelfscan/logging"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/models"
)

// Scrape returns a handler for GET /api/scrape?keyword=.
//
//	400 {"error":"Keyword not provided or invalid"}
//	200 {"success":true,"data":[...]}
//	500 {"error":"Failed to get data from Amazon","message":"<cause>"}
func Scrape(s Searcher, cc *cache.Cache, m *metrics.Metrics) gin.HandlerFunc {
	deps := searchDeps{searcher: s, cache: cc, metrics: m}

	return func(c *gin.Context) {
		keyword, ok := bindKeyword(c)
		if !ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgInvalidKeyword})
			return
		}

		slog.InfoContext(c.Request.Context(), "Searching for products", "keyword", keyword)

		products, err := deps.search(c, keyword)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "error during scraping", "keyword", keyword, logging.Err(err))
			_ = c.Error(err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SearchResponse{Success: true, Data: products})
	}
}

// respondError writes the fixed JSON error envelope for a pipeline failure.
// Input is validated before the search runs, so every failure here is a 500.
func respondError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   models.MsgScrapeFailed,
		Message: err.Error(),
	})
}
