package scraper

import (
	"fmt"

	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/engine"
	"github.com/use-agent/shelfscan/metrics"
	"github.com/use-agent/shelfscan/profile"
)

// NewFromConfig loads and compiles the site profile, builds the configured
// engine and returns a ready Scraper. m may be nil.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics) (*Scraper, error) {
	prof, err := profile.Load(cfg.Target.ProfileFile)
	if err != nil {
		return nil, err
	}
	prof, err = prof.WithBaseURL(cfg.Target.BaseURL)
	if err != nil {
		return nil, err
	}
	compiled, err := prof.Compile()
	if err != nil {
		return nil, err
	}

	var eng engine.Engine
	switch cfg.Fetch.Engine {
	case "browser":
		eng = engine.NewBrowserEngine(cfg.Browser)
	case "http":
		eng, err = engine.NewHTTPEngine(
			engine.WithTLSFingerprint(cfg.Fetch.TLSFingerprint),
			engine.WithProxy(cfg.Fetch.Proxy),
		)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("scraper: unknown fetch engine %q", cfg.Fetch.Engine)
	}

	return New(eng, compiled,
		WithTimeout(cfg.Fetch.Timeout),
		WithMetrics(m),
	), nil
}
