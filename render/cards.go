package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/use-agent/shelfscan/models"
)

// PlaceholderImage is shown when a product has no image URL or the image
// fails to load. It is fully percent-encoded so html/template's URL
// normalizer leaves it unchanged.
const PlaceholderImage = "data:image/svg+xml;charset=UTF-8,%3Csvg%20xmlns%3D%22http%3A%2F%2Fwww.w3.org%2F2000%2Fsvg%22%20width%3D%22288%22%20height%3D%22225%22%20viewBox%3D%220%200%20288%20225%22%3E%3Crect%20fill%3D%22%23f5f5f5%22%20width%3D%22288%22%20height%3D%22225%22%2F%3E%3Ctext%20fill%3D%22%23aaa%22%20font-family%3D%22sans-serif%22%20font-size%3D%2220%22%20text-anchor%3D%22middle%22%20x%3D%22144%22%20y%3D%22112%22%3EImage%20unavailable%3C%2Ftext%3E%3C%2Fsvg%3E"

// EmptyMessage is rendered instead of cards when there are no products.
const EmptyMessage = "No products found for this keyword."

// The onerror handler is literal template text, so html/template leaves the
// data URI alone.
var cardsTmpl = template.Must(template.New("cards").Funcs(template.FuncMap{
	"placeholder": func() template.URL { return template.URL(PlaceholderImage) },
}).Parse(`{{if not .}}<p>` + EmptyMessage + `</p>
{{else}}{{range .}}<div class="product-card">
  <img src="{{if .HasImage}}{{.ImageURL}}{{else}}{{placeholder}}{{end}}" alt="{{.Title}}" class="product-image" onerror="this.onerror=null;this.src='` + PlaceholderImage + `';">
  <div class="product-info">
    <h3 class="product-title">{{.Title}}</h3>
    <div class="rating">
      <span class="stars">{{.Stars}}</span>
      <span class="review-count">({{.ReviewCount}} reviews)</span>
    </div>
  </div>
</div>
{{end}}{{end}}`))

type card struct {
	Title       string
	ImageURL    string
	HasImage    bool
	Stars       string
	ReviewCount int
}

func toCards(products []models.Product) []card {
	cards := make([]card, 0, len(products))
	for _, p := range products {
		c := card{
			Title:       p.Title,
			Stars:       Stars(p.Rating),
			ReviewCount: p.ReviewCount,
		}
		if p.ImageURL != nil && *p.ImageURL != "" {
			c.ImageURL = *p.ImageURL
			c.HasImage = true
		}
		cards = append(cards, c)
	}
	return cards
}

// Cards renders products as the product-card HTML fragment used by the
// browser page. All product text is escaped.
func Cards(products []models.Product) (string, error) {
	var buf bytes.Buffer
	if err := cardsTmpl.Execute(&buf, toCards(products)); err != nil {
		return "", fmt.Errorf("render cards: %w", err)
	}
	return buf.String(), nil
}
