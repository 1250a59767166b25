// Package profile holds the versioned description of a target storefront:
// where its search page lives, which headers to send, and the CSS selectors
// that locate result cards and their fields.
package profile

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed amazon.yaml
var defaultProfile []byte

// Profile is the on-disk form of a site profile.
type Profile struct {
	Version   int       `yaml:"version"`
	Site      string    `yaml:"site"`
	Search    Search    `yaml:"search"`
	Selectors Selectors `yaml:"selectors"`
}

// Search describes the storefront's search endpoint.
type Search struct {
	BaseURL    string            `yaml:"base_url"`
	Path       string            `yaml:"path"`
	QueryParam string            `yaml:"query_param"`
	Headers    map[string]string `yaml:"headers"`
}

// Selectors are CSS selectors; all but ResultCard are evaluated inside one card.
type Selectors struct {
	ResultCard  string `yaml:"result_card"`
	Title       string `yaml:"title"`
	Image       string `yaml:"image"`
	ImageAttr   string `yaml:"image_attr"`
	Rating      string `yaml:"rating"`
	ReviewCount string `yaml:"review_count"`
}

// Default returns the embedded amazon.com profile.
func Default() (*Profile, error) {
	return Parse(defaultProfile)
}

// Load reads a profile from path. An empty path yields the embedded default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate reports the first missing or malformed field.
func (p *Profile) Validate() error {
	required := []struct {
		name, value string
	}{
		{"site", p.Site},
		{"search.base_url", p.Search.BaseURL},
		{"search.query_param", p.Search.QueryParam},
		{"selectors.result_card", p.Selectors.ResultCard},
		{"selectors.title", p.Selectors.Title},
		{"selectors.image", p.Selectors.Image},
		{"selectors.image_attr", p.Selectors.ImageAttr},
		{"selectors.rating", p.Selectors.Rating},
		{"selectors.review_count", p.Selectors.ReviewCount},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("profile: %s is required", f.name)
		}
	}

	u, err := url.Parse(p.Search.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("profile: search.base_url %q is not an absolute http(s) URL", p.Search.BaseURL)
	}
	return nil
}

// WithBaseURL returns a copy of p pointing at a different storefront host.
func (p *Profile) WithBaseURL(baseURL string) (*Profile, error) {
	if baseURL == "" {
		return p, nil
	}
	cp := *p
	cp.Search.BaseURL = baseURL
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// SearchURL builds the search page URL for keyword. The keyword is escaped
// like JavaScript's encodeURIComponent, so spaces become %20 rather than "+".
func (p *Profile) SearchURL(keyword string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(keyword), "+", "%20")
	return strings.TrimRight(p.Search.BaseURL, "/") + p.Search.Path + "?" + p.Search.QueryParam + "=" + escaped
}
