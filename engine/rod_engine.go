package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/logging"
)

// BrowserEngine renders the search page in headless Chromium. The browser is
// launched on first use and shared by all requests; each fetch gets its own
// tab.
type BrowserEngine struct {
	cfg config.BrowserConfig

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserEngine creates a BrowserEngine. No process is started yet.
func NewBrowserEngine(cfg config.BrowserConfig) *BrowserEngine {
	return &BrowserEngine{cfg: cfg}
}

func (e *BrowserEngine) Name() string { return "browser" }

// connect launches and connects to Chromium once.
func (e *BrowserEngine) connect() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		return e.browser, nil
	}

	l := launcher.New().
		Headless(e.cfg.Headless).
		NoSandbox(e.cfg.NoSandbox)
	if e.cfg.BrowserBin != "" {
		l = l.Bin(e.cfg.BrowserBin)
	}
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("browser_engine: launch: %w", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "pid", l.PID())

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("browser_engine: connect: %w", err)
	}

	e.browser = browser
	e.launcher = l
	return browser, nil
}

// discard forgets b if it is still the cached browser and hands back its
// launcher so the caller can kill the process. The next fetch relaunches.
func (e *BrowserEngine) discard(b *rod.Browser) *launcher.Launcher {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != b {
		return nil
	}
	l := e.launcher
	e.browser = nil
	e.launcher = nil
	return l
}

// dropIfDead checks whether b still answers CDP calls and discards it when
// it does not.
func (e *BrowserEngine) dropIfDead(b *rod.Browser) {
	if _, err := (proto.BrowserGetVersion{}).Call(b); err == nil {
		return
	}
	l := e.discard(b)
	if l == nil {
		return
	}
	slog.Warn("browser_engine: connection lost, browser will be relaunched")
	_ = b.Close()
	l.Kill()
}

func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	browser, err := e.connect()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if e.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		e.dropIfDead(browser)
		return nil, fmt.Errorf("browser_engine: open tab: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("browser_engine: close tab", logging.Err(closeErr))
		}
	}()

	if err := applyHeaders(page, req.Headers); err != nil {
		return nil, fmt.Errorf("browser_engine: set headers: %w", err)
	}

	p := page.Context(ctx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("browser_engine: navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("browser_engine: wait load: %w", err)
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			logging.Err(stableErr),
		)
	}

	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}
	if statusCode >= 400 {
		return nil, &StatusError{StatusCode: statusCode}
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("browser_engine: read html: %w", err)
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: statusCode,
		FinalURL:   finalURL,
		EngineName: e.Name(),
	}, nil
}

// Close shuts the browser down and kills its process if one was launched.
func (e *BrowserEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	if e.launcher != nil {
		e.launcher.Kill()
	}
	e.browser = nil
	e.launcher = nil
	return err
}

// applyHeaders maps the profile headers onto the tab. User-Agent and
// Accept-Language go through the UA override so navigator.* agrees with the
// wire; Accept-Encoding is left to Chromium.
func applyHeaders(page *rod.Page, headers map[string]string) error {
	extra := make(map[string]string, len(headers))
	override := proto.NetworkSetUserAgentOverride{}
	for k, v := range headers {
		switch http.CanonicalHeaderKey(k) {
		case "User-Agent":
			override.UserAgent = v
		case "Accept-Language":
			override.AcceptLanguage = v
		case "Accept-Encoding":
		default:
			extra[k] = v
		}
	}

	if override.UserAgent != "" {
		if err := override.Call(page); err != nil {
			return err
		}
	}
	if len(extra) > 0 {
		return proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(extra)}.Call(page)
	}
	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
