package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/scraper"
)

const searchPage = `<html><head><title>Amazon.com : lamp</title></head><body>
<div data-component-type="s-search-result">
  <img class="s-image" src="https://m.media-amazon.com/images/I/lamp.jpg">
  <h2><span>Desk Lamp</span></h2>
  <i class="a-icon-star-small"><span>4.5 out of 5 stars</span></i>
  <span class="a-size-base s-underline-text">2,048</span>
</div>
<div data-component-type="s-search-result">
  <h2><span>Floor Lamp</span></h2>
</div>
</body></html>`

func testConfig(upstream string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	cfg.Target.BaseURL = upstream
	cfg.Fetch.Engine = "http"
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	return cfg
}

func newTestServer(t *testing.T, upstreamStatus int) (http.Handler, *config.Config) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if upstreamStatus != http.StatusOK {
			w.WriteHeader(upstreamStatus)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(searchPage))
	}))
	t.Cleanup(upstream.Close)

	cfg := testConfig(upstream.URL)
	m := metrics.New()
	sc, err := scraper.NewFromConfig(cfg, m)
	require.NoError(t, err)
	t.Cleanup(func() { sc.Close() })

	r, err := NewRouter(cfg, Deps{
		Service:   sc,
		Metrics:   m,
		StartTime: time.Now(),
		Version:   "test",
	})
	require.NoError(t, err)
	return r, cfg
}

func request(r http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_ScrapeEndToEnd(t *testing.T) {
	rq := require.New(t)
	r, _ := newTestServer(t, http.StatusOK)

	w := request(r, http.MethodGet, "/api/scrape?keyword=lamp", nil)
	rq.Equal(http.StatusOK, w.Code)
	rq.NotEmpty(w.Header().Get("X-Request-Id"))
	rq.JSONEq(`{
		"success": true,
		"data": [
			{"title":"Desk Lamp","imageUrl":"https://m.media-amazon.com/images/I/lamp.jpg","rating":4.5,"reviewCount":2048},
			{"title":"Floor Lamp","imageUrl":null,"rating":"No rating","reviewCount":0}
		]
	}`, w.Body.String())
}

func TestRouter_UpstreamFailure(t *testing.T) {
	rq := require.New(t)
	r, _ := newTestServer(t, http.StatusServiceUnavailable)

	w := request(r, http.MethodGet, "/api/scrape?keyword=lamp", nil)
	rq.Equal(http.StatusInternalServerError, w.Code)

	var body models.ErrorResponse
	rq.NoError(jsoniter.Unmarshal(w.Body.Bytes(), &body))
	rq.Equal("Failed to get data from Amazon", body.Error)
	rq.Equal("Scraping failed: Request failed with status code 503", body.Message)
}

func TestRouter_CORS(t *testing.T) {
	rq := require.New(t)
	r, _ := newTestServer(t, http.StatusOK)

	w := request(r, http.MethodGet, "/api/scrape?keyword=lamp", http.Header{"Origin": {"http://localhost:5173"}})
	rq.Equal("http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	rq.Equal("true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(r, http.MethodOptions, "/api/scrape?keyword=lamp", http.Header{
		"Origin":                        {"http://127.0.0.1:5173"},
		"Access-Control-Request-Method": {"GET"},
	})
	rq.Equal(http.StatusNoContent, w.Code)
	rq.Equal("http://127.0.0.1:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = request(r, http.MethodGet, "/api/scrape?keyword=lamp", http.Header{"Origin": {"https://evil.example"}})
	rq.Equal(http.StatusForbidden, w.Code)
	rq.Empty(w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_OtherRoutes(t *testing.T) {
	rq := require.New(t)
	r, _ := newTestServer(t, http.StatusOK)

	w := request(r, http.MethodGet, "/api/health", nil)
	rq.Equal(http.StatusOK, w.Code)
	rq.Contains(w.Body.String(), `"engine":"http"`)
	rq.Contains(w.Body.String(), `"site":"amazon.com"`)

	w = request(r, http.MethodGet, "/cards?keyword=lamp", nil)
	rq.Equal(http.StatusOK, w.Code)
	rq.Equal(2, strings.Count(w.Body.String(), `class="product-card"`))

	w = request(r, http.MethodGet, "/", nil)
	rq.Equal(http.StatusOK, w.Code)
	rq.Contains(w.Body.String(), "searchBtn")

	w = request(r, http.MethodGet, "/metrics", nil)
	rq.Equal(http.StatusOK, w.Code)
	rq.Contains(w.Body.String(), "shelfscan_http_requests_total")

	w = request(r, http.MethodGet, "/nope", nil)
	rq.Equal(http.StatusNotFound, w.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	rq := require.New(t)

	cfg := testConfig("http://127.0.0.1:9")
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 1
	r, err := NewRouter(cfg, Deps{Service: stubService{}, StartTime: time.Now()})
	rq.NoError(err)

	rq.Equal(http.StatusOK, request(r, http.MethodGet, "/api/health", nil).Code)
	w := request(r, http.MethodGet, "/api/health", nil)
	rq.Equal(http.StatusTooManyRequests, w.Code)
	rq.JSONEq(`{"error":"rate limit exceeded, please slow down"}`, w.Body.String())
}

func TestRouter_BadCORSOrigin(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:9")
	cfg.CORS.AllowedOrigins = []string{"localhost:5173"}

	_, err := NewRouter(cfg, Deps{Service: stubService{}})
	require.ErrorContains(t, err, "cors")
}

func TestCorsConfig_Wildcard(t *testing.T) {
	cc := corsConfig(config.CORSConfig{AllowedOrigins: []string{"*"}})
	require.True(t, cc.AllowAllOrigins)
	require.Empty(t, cc.AllowOrigins)
	require.False(t, cc.AllowCredentials)
	require.NoError(t, cc.Validate())
}

func TestRouter_WildcardOriginWithoutCredentials(t *testing.T) {
	rq := require.New(t)

	cfg := testConfig("http://127.0.0.1:9")
	cfg.CORS.AllowedOrigins = []string{"*"}
	r, err := NewRouter(cfg, Deps{Service: stubService{}, StartTime: time.Now()})
	rq.NoError(err)

	w := request(r, http.MethodGet, "/api/health", http.Header{"Origin": {"https://anywhere.example"}})
	rq.Equal(http.StatusOK, w.Code)
	rq.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	rq.Empty(w.Header().Get("Access-Control-Allow-Credentials"))
}
