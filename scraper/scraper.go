package scraper

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/shelfscan/engine"
	"github.com/use-agent/shelfscan/logging"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/profile"
)

// Scraper runs the search pipeline: one outbound GET through the configured
// engine, HTML parsing, and per-card field extraction. It holds no
// per-request state and is safe for concurrent use.
type Scraper struct {
	engine  engine.Engine
	profile *profile.Compiled
	timeout time.Duration
	metrics *metrics.Metrics
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithTimeout bounds each search. Zero means no deadline beyond the caller's.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.timeout = d }
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scraper) { s.metrics = m }
}

// New creates a Scraper for the given engine and compiled site profile.
func New(eng engine.Engine, prof *profile.Compiled, opts ...Option) *Scraper {
	s := &Scraper{engine: eng, profile: prof}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EngineName reports which fetch engine is in use.
func (s *Scraper) EngineName() string { return s.engine.Name() }

// Site reports the storefront the profile targets.
func (s *Scraper) Site() string { return s.profile.Site }

// Close releases the engine.
func (s *Scraper) Close() error { return s.engine.Close() }

// Search fetches the results page for keyword and returns one Product per
// result card that could be extracted. A page without cards is not an error.
// Fetch and parse failures come back as *models.ScrapeError.
func (s *Scraper) Search(ctx context.Context, keyword string) (products []models.Product, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(time.Since(start), err) }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	searchURL := s.profile.SearchURL(keyword)
	slog.InfoContext(ctx, "accessing search page", "url", searchURL, "engine", s.engine.Name())

	fetchStart := time.Now()
	result, err := s.engine.Fetch(ctx, &engine.FetchRequest{
		URL:     searchURL,
		Headers: s.profile.Headers,
	})
	s.metrics.ObserveFetch(s.engine.Name(), time.Since(fetchStart), err)
	if err != nil {
		slog.ErrorContext(ctx, "error during scraping", "url", searchURL, logging.Err(err))
		return nil, classify(err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		slog.ErrorContext(ctx, "error parsing search page", "url", searchURL, logging.Err(err))
		return nil, models.ScrapingFailed(models.ErrCodeParse, err)
	}

	products, dropped := s.extractAll(ctx, doc)
	found := len(products) + dropped
	s.metrics.ObserveCards(found, dropped)

	slog.InfoContext(ctx, "found products",
		"count", found,
		"extracted", len(products),
		"dropped", dropped,
		"profile_version", s.profile.Version,
	)
	if found == 0 {
		// Usually a captcha interstitial or changed markup.
		slog.WarnContext(ctx, "no result cards on page",
			"page_title", result.Title,
			"final_url", result.FinalURL,
		)
	}

	return products, nil
}

// extractAll applies ExtractProduct to every result card. Cards that fail
// are logged and left out.
func (s *Scraper) extractAll(ctx context.Context, doc *goquery.Document) ([]models.Product, int) {
	products := []models.Product{}
	dropped := 0

	doc.FindMatcher(s.profile.ResultCard).Each(func(i int, card *goquery.Selection) {
		p, err := ExtractProduct(card, s.profile)
		if err != nil {
			dropped++
			slog.WarnContext(ctx, "error processing product", "index", i, logging.Err(err))
			return
		}
		products = append(products, p)
	})

	return products, dropped
}

// classify wraps a fetch error into the client-facing ScrapeError.
func classify(err error) *models.ScrapeError {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ScrapingFailed(models.ErrCodeTimeout, err)
	}
	return models.ScrapingFailed(models.ErrCodeFetch, err)
}
