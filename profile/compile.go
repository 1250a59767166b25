package profile

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Compiled holds parsed selectors, ready to be matched against a document.
// cascadia.Selector satisfies goquery.Matcher, so these plug into FindMatcher.
type Compiled struct {
	Site      string
	Version   int
	Headers   map[string]string
	ImageAttr string

	ResultCard  cascadia.Selector
	Title       cascadia.Selector
	Image       cascadia.Selector
	Rating      cascadia.Selector
	ReviewCount cascadia.Selector

	profile *Profile
}

// Compile parses every selector once. A malformed selector is reported with
// the field it belongs to.
func (p *Profile) Compile() (*Compiled, error) {
	c := &Compiled{
		Site:      p.Site,
		Version:   p.Version,
		Headers:   p.Search.Headers,
		ImageAttr: p.Selectors.ImageAttr,
		profile:   p,
	}

	fields := []struct {
		name string
		src  string
		dst  *cascadia.Selector
	}{
		{"result_card", p.Selectors.ResultCard, &c.ResultCard},
		{"title", p.Selectors.Title, &c.Title},
		{"image", p.Selectors.Image, &c.Image},
		{"rating", p.Selectors.Rating, &c.Rating},
		{"review_count", p.Selectors.ReviewCount, &c.ReviewCount},
	}
	for _, f := range fields {
		sel, err := cascadia.Compile(f.src)
		if err != nil {
			return nil, fmt.Errorf("profile: selectors.%s %q: %w", f.name, f.src, err)
		}
		*f.dst = sel
	}

	return c, nil
}

// SearchURL builds the search page URL for keyword.
func (c *Compiled) SearchURL(keyword string) string {
	return c.profile.SearchURL(keyword)
}
