package scraper

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/profile"
)

var (
	reRating    = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)
	reNonDigits = regexp.MustCompile(`[^0-9]`)
)

// errEmptyCard is returned for a card selection that matched no node.
var errEmptyCard = errors.New("empty result card")

// ExtractProduct maps one result card to a Product. Missing fields get their
// defaults; only a malformed card yields an error.
func ExtractProduct(card *goquery.Selection, sel *profile.Compiled) (p models.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract card: %v", r)
		}
	}()

	if card.Length() == 0 {
		return models.Product{}, errEmptyCard
	}

	return models.Product{
		Title:       extractTitle(card, sel),
		ImageURL:    extractImageURL(card, sel),
		Rating:      extractRating(card, sel),
		ReviewCount: extractReviewCount(card, sel),
	}, nil
}

func extractTitle(card *goquery.Selection, sel *profile.Compiled) string {
	el := card.FindMatcher(sel.Title).First()
	if el.Length() == 0 {
		return models.DefaultTitle
	}
	if title := strings.TrimSpace(el.Text()); title != "" {
		return title
	}
	return models.DefaultTitle
}

func extractImageURL(card *goquery.Selection, sel *profile.Compiled) *string {
	el := card.FindMatcher(sel.Image).First()
	if el.Length() == 0 {
		return nil
	}
	src, ok := el.Attr(sel.ImageAttr)
	if !ok {
		return nil
	}
	return &src
}

func extractRating(card *goquery.Selection, sel *profile.Compiled) models.Rating {
	el := card.FindMatcher(sel.Rating).First()
	if el.Length() == 0 {
		return models.Rating{}
	}
	return ParseRating(el.Text())
}

func extractReviewCount(card *goquery.Selection, sel *profile.Compiled) int {
	el := card.FindMatcher(sel.ReviewCount).First()
	if el.Length() == 0 {
		return 0
	}
	return ParseReviewCount(el.Text())
}

// ParseRating reads the first decimal number in text, e.g. 4.5 from
// "4.5 out of 5 stars". Text without a number yields NoRating.
func ParseRating(text string) models.Rating {
	m := reRating.FindString(strings.TrimSpace(text))
	if m == "" {
		return models.Rating{}
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return models.Rating{}
	}
	return models.RatingOf(v)
}

// ParseReviewCount strips every non-digit and parses the rest, so
// "1,234 reviews" yields 1234. Empty or overflowing input yields 0.
func ParseReviewCount(text string) int {
	digits := reNonDigits.ReplaceAllString(text, "")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
