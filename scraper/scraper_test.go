package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/engine"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/profile"
)

type stubEngine struct {
	html    string
	err     error
	delay   time.Duration
	lastReq *engine.FetchRequest
	closed  bool
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	e.lastReq = req
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return &engine.FetchResult{HTML: e.html, StatusCode: http.StatusOK, FinalURL: req.URL, EngineName: e.Name()}, nil
}

func (e *stubEngine) Close() error {
	e.closed = true
	return nil
}

func fixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("testdata/search.html")
	require.NoError(t, err)
	return string(raw)
}

func TestSearch_ExtractsCards(t *testing.T) {
	rq := require.New(t)
	eng := &stubEngine{html: fixture(t)}
	s := New(eng, compiledDefault(t))

	products, err := s.Search(context.Background(), "wireless headphones")
	rq.NoError(err)
	rq.Len(products, 3)
	rq.Equal("https://www.amazon.com/s?k=wireless%20headphones", eng.lastReq.URL)
	rq.Equal("en-US,en;q=0.9", eng.lastReq.Headers["Accept-Language"])
	rq.Equal("gzip, deflate, br", eng.lastReq.Headers["Accept-Encoding"])
	rq.Contains(eng.lastReq.Headers["User-Agent"], "Chrome/")

	rq.Equal(1234, products[0].ReviewCount)
	rq.Equal(models.DefaultTitle, products[2].Title)
}

func TestSearch_DropsFailingCard(t *testing.T) {
	rq := require.New(t)

	sel := compiledDefault(t)
	title := sel.Title
	sel.Title = cascadia.Selector(func(n *html.Node) bool {
		if n.Data == "h2" && asin(n.Parent) == "B0BX" {
			panic("broken card")
		}
		return title.Match(n)
	})

	m := metrics.New()
	products, err := New(&stubEngine{html: fixture(t)}, sel, WithMetrics(m)).Search(context.Background(), "headphones")
	rq.NoError(err)
	rq.Len(products, 2)
	rq.Contains(products[0].Title, "Sony WH-1000XM4")
	rq.Equal(models.DefaultTitle, products[1].Title)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	rq.Contains(w.Body.String(), "shelfscan_cards_dropped_total 1")
}

func asin(n *html.Node) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == "data-asin" {
			return a.Val
		}
	}
	return ""
}

func TestSearch_NoCardsIsEmptyNotNil(t *testing.T) {
	eng := &stubEngine{html: `<html><head><title>Robot Check</title></head><body><form>captcha</form></body></html>`}

	products, err := New(eng, compiledDefault(t)).Search(context.Background(), "lamp")
	require.NoError(t, err)
	require.NotNil(t, products)
	require.Empty(t, products)
}

func TestSearch_FetchErrorIsScrapingFailed(t *testing.T) {
	rq := require.New(t)
	eng := &stubEngine{err: &engine.StatusError{StatusCode: http.StatusServiceUnavailable}}

	_, err := New(eng, compiledDefault(t)).Search(context.Background(), "lamp")
	rq.EqualError(err, "Scraping failed: Request failed with status code 503")

	var se *models.ScrapeError
	rq.True(errors.As(err, &se))
	rq.Equal(models.ErrCodeFetch, se.Code)

	var statusErr *engine.StatusError
	rq.True(errors.As(err, &statusErr))
}

func TestSearch_Timeout(t *testing.T) {
	rq := require.New(t)
	eng := &stubEngine{html: fixture(t), delay: time.Second}
	s := New(eng, compiledDefault(t), WithTimeout(20*time.Millisecond))

	_, err := s.Search(context.Background(), "lamp")
	var se *models.ScrapeError
	rq.True(errors.As(err, &se))
	rq.Equal(models.ErrCodeTimeout, se.Code)
	rq.ErrorIs(err, context.DeadlineExceeded)
}

func TestSearch_OverHTTP(t *testing.T) {
	rq := require.New(t)
	page := fixture(t)

	var gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/s" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer upstream.Close()

	p, err := profile.Default()
	rq.NoError(err)
	p, err = p.WithBaseURL(upstream.URL)
	rq.NoError(err)
	compiled, err := p.Compile()
	rq.NoError(err)

	eng, err := engine.NewHTTPEngine()
	rq.NoError(err)
	s := New(eng, compiled)
	defer s.Close()

	products, err := s.Search(context.Background(), "usb c & hdmi")
	rq.NoError(err)
	rq.Len(products, 3)
	rq.Equal("k=usb%20c%20%26%20hdmi", gotQuery)
	rq.Equal("http", s.EngineName())
	rq.Equal("amazon.com", s.Site())
}

func TestNewFromConfig(t *testing.T) {
	rq := require.New(t)

	cfg := &config.Config{}
	cfg.Fetch.Engine = "http"
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Fetch.TLSFingerprint = true
	cfg.Target.BaseURL = "http://127.0.0.1:9"

	s, err := NewFromConfig(cfg, nil)
	rq.NoError(err)
	rq.Equal("http", s.EngineName())
	rq.Equal(5*time.Second, s.timeout)
	rq.Equal("http://127.0.0.1:9/s?k=x", s.profile.SearchURL("x"))
	rq.NoError(s.Close())

	cfg.Fetch.Engine = "carrier-pigeon"
	_, err = NewFromConfig(cfg, nil)
	rq.ErrorContains(err, "unknown fetch engine")

	cfg.Fetch.Engine = "http"
	cfg.Fetch.Proxy = "socks5://127.0.0.1:1080"
	_, err = NewFromConfig(cfg, nil)
	rq.ErrorContains(err, "unsupported proxy")
}

func TestClose(t *testing.T) {
	eng := &stubEngine{}
	require.NoError(t, New(eng, compiledDefault(t)).Close())
	require.True(t, eng.closed)
}
