package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/shelfscan/api/handler"
	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/logging"
	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/render"
	"github.com/use-agent/shelfscan/scraper"
)

var version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout is the MCP transport.
	logging.InitStderr(cfg.Log)

	sc, err := scraper.NewFromConfig(cfg, nil)
	if err != nil {
		slog.Error("failed to initialise scraper", logging.Err(err))
		os.Exit(1)
	}
	defer sc.Close()

	s := server.NewMCPServer(
		"shelfscan",
		version,
		server.WithToolCapabilities(false),
	)
	s.AddTool(searchProductsTool(), handleSearchProducts(sc))

	if err := server.ServeStdio(s, server.WithErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))); err != nil {
		slog.Error("MCP server error", logging.Err(err))
		sc.Close()
		os.Exit(1)
	}
}

func searchProductsTool() mcp.Tool {
	return mcp.NewTool("search_products",
		mcp.WithDescription("Search the storefront for a keyword and return the products on the first results page with title, image URL, star rating and review count."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("The product search keyword, e.g. 'wireless headphones'"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default, a table) or 'json' (the raw product records)"),
			mcp.Enum("markdown", "json"),
		),
	)
}

func handleSearchProducts(s handler.Searcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := request.RequireString("keyword")
		if err != nil {
			return mcp.NewToolResultError("keyword is required"), nil
		}
		q := models.SearchQuery{Keyword: keyword}
		if !q.Normalize() {
			return mcp.NewToolResultError(models.MsgInvalidKeyword), nil
		}

		products, err := s.Search(ctx, q.Keyword)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", models.MsgScrapeFailed, err)), nil
		}

		switch request.GetString("format", "markdown") {
		case "json":
			if products == nil {
				products = []models.Product{}
			}
			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(products, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to encode products: %v", err)), nil
			}
			return mcp.NewToolResultText(string(out)), nil
		default:
			md, err := render.Markdown(products)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to render products: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Search: %s\nProducts: %d\n\n%s", q.Keyword, len(products), md)), nil
		}
	}
}
