package render

import (
	"math"
	"strings"

	"github.com/use-agent/shelfscan/models"
)

const (
	fullStar  = "★"
	halfStar  = "½"
	emptyStar = "☆"
)

// Stars renders a rating as glyphs: one full star per whole point, a half
// mark when the fractional part is at least .5, and empty stars up to
// 5 - ceil(r). A missing rating renders as the literal "No rating".
//
// Values outside 0..5 are clamped so the repeat counts never go negative.
func Stars(r models.Rating) string {
	if !r.Valid || math.IsNaN(r.Value) {
		return models.NoRating
	}
	v := math.Min(math.Max(r.Value, 0), 5)

	whole := math.Floor(v)
	var b strings.Builder
	b.WriteString(strings.Repeat(fullStar, int(whole)))
	if v-whole >= 0.5 {
		b.WriteString(halfStar)
	}
	b.WriteString(strings.Repeat(emptyStar, 5-int(math.Ceil(v))))
	return b.String()
}
