package main

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/shelfscan/models"
)

type stubSearcher struct {
	products []models.Product
	err      error
	keyword  string
}

func (s *stubSearcher) Search(_ context.Context, keyword string) ([]models.Product, error) {
	s.keyword = keyword
	return s.products, s.err
}

func (s *stubSearcher) Site() string { return "amazon.com" }

func call(t *testing.T, s *stubSearcher, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = "search_products"
	req.Params.Arguments = args

	res, err := handleSearchProducts(s)(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return res, text.Text
}

func TestSearchProducts_Markdown(t *testing.T) {
	rq := require.New(t)
	s := &stubSearcher{products: []models.Product{
		{Title: "Desk Lamp", Rating: models.RatingOf(4), ReviewCount: 12},
	}}

	res, text := call(t, s, map[string]any{"keyword": "  lamp "})
	rq.False(res.IsError)
	rq.Equal("lamp", s.keyword)
	rq.Contains(text, "Search: lamp")
	rq.Contains(text, "Products: 1")
	rq.Contains(text, "Desk Lamp")
	rq.Contains(text, "★★★★☆")
}

func TestSearchProducts_JSON(t *testing.T) {
	res, text := call(t, &stubSearcher{}, map[string]any{"keyword": "lamp", "format": "json"})
	require.False(t, res.IsError)
	require.JSONEq(t, `[]`, text)
}

func TestSearchProducts_Errors(t *testing.T) {
	rq := require.New(t)

	res, text := call(t, &stubSearcher{}, map[string]any{})
	rq.True(res.IsError)
	rq.Equal("keyword is required", text)

	res, text = call(t, &stubSearcher{}, map[string]any{"keyword": "   "})
	rq.True(res.IsError)
	rq.Equal("Keyword not provided or invalid", text)

	res, text = call(t, &stubSearcher{err: errors.New("Request failed with status code 503")}, map[string]any{"keyword": "lamp"})
	rq.True(res.IsError)
	rq.Equal("Failed to get data from Amazon: Request failed with status code 503", text)
}

func TestSearchProductsTool(t *testing.T) {
	tool := searchProductsTool()
	require.Equal(t, "search_products", tool.Name)
	require.Contains(t, tool.InputSchema.Required, "keyword")
}
