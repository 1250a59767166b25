package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/logging"
	"github.com/use-agent/shelfscan/models"
	"github.com/use-agent/shelfscan/render"
	"github.com/use-agent/shelfscan/scraper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Output formats for the search command.
const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
	formatCards    = "cards"
)

func newSearchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Run one search and print the products",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.TrimSpace(strings.Join(args, " "))
			if keyword == "" {
				return errors.New(models.MsgInvalidKeyword)
			}
			switch format {
			case formatJSON, formatMarkdown, formatCards:
			default:
				return fmt.Errorf("unknown format %q (want json, markdown or cards)", format)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			// stdout carries the results.
			logging.InitStderr(cfg.Log)

			sc, err := scraper.NewFromConfig(cfg, nil)
			if err != nil {
				return fmt.Errorf("failed to initialise scraper: %w", err)
			}
			defer sc.Close()

			products, err := sc.Search(cmd.Context(), keyword)
			if err != nil {
				return err
			}
			return writeProducts(cmd.OutOrStdout(), format, products)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, markdown or cards")
	return cmd
}

// writeProducts prints products in the requested format.
func writeProducts(w io.Writer, format string, products []models.Product) error {
	switch format {
	case formatMarkdown:
		md, err := render.Markdown(products)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	case formatCards:
		out, err := render.Cards(products)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		if products == nil {
			products = []models.Product{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(products)
	}
}
