package scraper

import (
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/profile"
)

func compiledDefault(t *testing.T) *profile.Compiled {
	t.Helper()
	p, err := profile.Default()
	require.NoError(t, err)
	c, err := p.Compile()
	require.NoError(t, err)
	return c
}

func cardFrom(t *testing.T, fragment string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div data-component-type="s-search-result">` + fragment + `</div>`))
	require.NoError(t, err)
	return doc.Find(`[data-component-type="s-search-result"]`).First()
}

func TestExtractProduct_Fixture(t *testing.T) {
	rq := require.New(t)
	sel := compiledDefault(t)

	raw, err := os.ReadFile("testdata/search.html")
	rq.NoError(err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	rq.NoError(err)

	cards := doc.FindMatcher(sel.ResultCard)
	rq.Equal(3, cards.Length())

	full, err := ExtractProduct(cards.Eq(0), sel)
	rq.NoError(err)
	rq.Equal("Sony WH-1000XM4 Wireless Premium Noise Canceling Overhead Headphones", full.Title)
	rq.NotNil(full.ImageURL)
	rq.Equal("https://m.media-amazon.com/images/I/51aXvjzcukL._AC_UY218_.jpg", *full.ImageURL)
	rq.Equal(models.RatingOf(4.6), full.Rating)
	rq.Equal(1234, full.ReviewCount)

	sparse, err := ExtractProduct(cards.Eq(1), sel)
	rq.NoError(err)
	rq.Equal("Generic Earbuds", sparse.Title)
	rq.Nil(sparse.ImageURL)
	rq.False(sparse.Rating.Valid)
	rq.Equal(models.NoRating, sparse.Rating.String())
	rq.Equal(87, sparse.ReviewCount)

	empty, err := ExtractProduct(cards.Eq(2), sel)
	rq.NoError(err)
	rq.Equal(models.DefaultTitle, empty.Title)
	rq.Nil(empty.ImageURL, "image element without src has no URL")
	rq.False(empty.Rating.Valid)
	rq.Zero(empty.ReviewCount)
}

func TestExtractProduct_MissingEverything(t *testing.T) {
	rq := require.New(t)

	p, err := ExtractProduct(cardFrom(t, `<p>nothing useful</p>`), compiledDefault(t))
	rq.NoError(err)
	rq.Equal(models.Product{Title: models.DefaultTitle}, p)
}

func TestExtractProduct_EmptySrcIsKept(t *testing.T) {
	p, err := ExtractProduct(cardFrom(t, `<img class="s-image" src="">`), compiledDefault(t))
	require.NoError(t, err)
	require.NotNil(t, p.ImageURL)
	require.Equal(t, "", *p.ImageURL)
}

func TestExtractProduct_EmptySelection(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p></p>`))
	require.NoError(t, err)

	_, err = ExtractProduct(doc.Find("article"), compiledDefault(t))
	require.ErrorIs(t, err, errEmptyCard)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want models.Rating
	}{
		{"4.5 out of 5 stars", models.RatingOf(4.5)},
		{"  3 out of 5 stars", models.RatingOf(3)},
		{"0.0 out of 5 stars", models.RatingOf(0)},
		{".5 stars", models.RatingOf(0.5)},
		{"Not yet rated", models.Rating{}},
		{"", models.Rating{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ParseRating(tt.in))
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1,234 reviews", 1234},
		{"(87)", 87},
		{"12.5K", 125},
		{"no reviews", 0},
		{"", 0},
		{"99999999999999999999999", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ParseReviewCount(tt.in))
		})
	}
}
