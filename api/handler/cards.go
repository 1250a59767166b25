package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/shelfscan/cache"
	"github.com/use-agent/shelfscan/logging"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/render"
)

const htmlContentType = "text/html; charset=utf-8"

// Cards returns a handler for GET /cards?keyword=. It runs the same search
// as Scrape and answers with the rendered product-card fragment.
func Cards(s Searcher, cc *cache.Cache, m *metrics.Metrics) gin.HandlerFunc {
	deps := searchDeps{searcher: s, cache: cc, metrics: m}

	return func(c *gin.Context) {
		keyword, ok := bindKeyword(c)
		if !ok {
			htmlError(c, http.StatusBadRequest, models.MsgInvalidKeyword)
			return
		}

		slog.InfoContext(c.Request.Context(), "Searching for products", "keyword", keyword, "format", "cards")

		products, err := deps.search(c, keyword)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "error during scraping", "keyword", keyword, logging.Err(err))
			_ = c.Error(err)
			htmlError(c, http.StatusInternalServerError, models.MsgScrapeFailed+": "+err.Error())
			return
		}

		out, err := render.Cards(products)
		if err != nil {
			_ = c.Error(err)
			htmlError(c, http.StatusInternalServerError, models.MsgScrapeFailed+": "+err.Error())
			return
		}
		c.Data(http.StatusOK, htmlContentType, []byte(out))
	}
}

func htmlError(c *gin.Context, status int, msg string) {
	c.Data(status, htmlContentType, []byte(`<p class="error">`+template.HTMLEscapeString(msg)+"</p>\n"))
}
