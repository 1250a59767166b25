package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/shelfscan/cache"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/models"
)

// Searcher runs one product search. *scraper.Scraper implements it.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]models.Product, error)
	Site() string
}

// searchDeps is what the search-backed handlers share. cc and m may be nil.
type searchDeps struct {
	searcher Searcher
	cache    *cache.Cache
	metrics  *metrics.Metrics
}

// bindKeyword validates the keyword query parameter: present exactly once
// and not blank once trimmed.
func bindKeyword(c *gin.Context) (string, bool) {
	if len(c.QueryArray("keyword")) > 1 {
		return "", false
	}
	var q models.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return "", false
	}
	if !q.Normalize() {
		return "", false
	}
	return q.Keyword, true
}

// search serves keyword from the cache when possible and otherwise runs the
// pipeline, storing successful results.
func (d searchDeps) search(c *gin.Context, keyword string) ([]models.Product, error) {
	var key string
	if d.cache != nil {
		key = cache.Key(d.searcher.Site(), keyword)
		products, hit := d.cache.Get(key)
		d.metrics.ObserveCache(hit)
		if hit {
			slog.InfoContext(c.Request.Context(), "serving cached products", "keyword", keyword, "count", len(products))
			return products, nil
		}
	}

	products, err := d.searcher.Search(c.Request.Context(), keyword)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	if d.cache != nil {
		d.cache.Set(key, products)
	}
	return products, nil
}
