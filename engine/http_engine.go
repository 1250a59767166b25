package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
)

// maxBody caps how much of a response is read.
const maxBody = 10 << 20

// HTTPEngine performs the outbound GET with plain net/http. HTTPS
// connections are dialled with a Chrome-like TLS fingerprint unless that is
// switched off.
type HTTPEngine struct {
	client *http.Client
}

// HTTPOption configures an HTTPEngine.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	fingerprint bool
	proxy       string
	transport   http.RoundTripper
}

// WithTLSFingerprint toggles the utls Chrome ClientHello. Default: on.
func WithTLSFingerprint(on bool) HTTPOption {
	return func(o *httpOptions) { o.fingerprint = on }
}

// WithProxy routes requests through an http(s) proxy. Proxied HTTPS uses the
// standard Go TLS stack because the CONNECT tunnel is set up by net/http.
func WithProxy(proxyURL string) HTTPOption {
	return func(o *httpOptions) { o.proxy = proxyURL }
}

// WithTransport replaces the base transport entirely.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(o *httpOptions) { o.transport = rt }
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine.
func NewHTTPEngine(opts ...HTTPOption) (*HTTPEngine, error) {
	o := httpOptions{fingerprint: true}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.transport
	if base == nil {
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			ForceAttemptHTTP2:   false,
			DisableCompression:  true, // bodies are decoded by decodeBody
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		}
		if o.proxy != "" {
			proxyURL, err := url.Parse(o.proxy)
			if err != nil || (proxyURL.Scheme != "http" && proxyURL.Scheme != "https") {
				return nil, fmt.Errorf("http_engine: unsupported proxy %q", o.proxy)
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		if o.fingerprint {
			transport.DialTLSContext = dialTLSChrome
		}
		base = transport
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport: NewLoggingRoundTripper(base),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}, nil
}

// dialTLSChrome establishes a TLS connection using the Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http_engine: build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http_engine: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}
	bodyStr := string(raw)

	return &FetchResult{
		HTML:       bodyStr,
		Title:      extractTitle(bodyStr),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

// Close drops idle keep-alive connections.
func (e *HTTPEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
