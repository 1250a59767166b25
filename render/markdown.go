package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/use-agent/shelfscan/models"
)

// mdConverter is goroutine-safe and shared by all Markdown calls.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// Terminals and chat clients want one row per product rather than the card
// markup, so Markdown goes through a table instead of Cards.
var tableTmpl = template.Must(template.New("table").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`{{if not .}}<p>` + EmptyMessage + `</p>{{else}}<table>
<thead><tr><th>#</th><th>Title</th><th>Rating</th><th>Reviews</th><th>Image</th></tr></thead>
<tbody>
{{range $i, $c := .}}<tr><td>{{inc $i}}</td><td>{{$c.Title}}</td><td>{{$c.Stars}}</td><td>{{$c.ReviewCount}}</td><td>{{if $c.HasImage}}<a href="{{$c.ImageURL}}">image</a>{{end}}</td></tr>
{{end}}</tbody>
</table>{{end}}`))

// Markdown renders products as a Markdown table (or the empty-result
// sentence) for the CLI and the MCP tool.
func Markdown(products []models.Product) (string, error) {
	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, toCards(products)); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	md, err := mdConverter.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}
