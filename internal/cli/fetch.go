package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"finfeed/internal/models"
	"finfeed/internal/news"
)

type fetchFlags struct {
	company   string
	providers string
	limit     int
	language  string
	country   string
}

func newFetchCommand(a *app) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch news for a company and store the raw responses",
		Long: `Fetch news for a company from the configured providers and fold the raw
API responses into the company's history document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.company, "company", "c", "", "company name or ticker symbol (required)")
	cmd.Flags().StringVar(&flags.providers, "provider", "", "comma-separated providers to fetch from (default from config)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of articles per provider")
	cmd.Flags().StringVar(&flags.language, "language", "", "language code for providers that support it (e.g. en, fr)")
	cmd.Flags().StringVar(&flags.country, "country", "", "country code for providers that support it (e.g. us, in)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

// runFetch fetches from each requested provider and folds every raw response
// into the company's document with a single merge. A failed provider is
// fatal when it was the only one requested, otherwise it is logged and its
// stored payload slot keeps its previous value.
func (a *app) runFetch(out io.Writer, flags fetchFlags) error {
	names := a.cfg.ProviderNames()
	if flags.providers != "" {
		names = splitCSV(flags.providers)
	}

	if len(names) == 0 {
		return errors.New("no providers requested")
	}

	// Resolve every provider up front so an unknown name fails before the
	// first network call.
	providers := make([]news.Provider, 0, len(names))

	for _, name := range names {
		provider, err := a.registry.Get(name)
		if err != nil {
			return err
		}

		providers = append(providers, provider)
	}

	responses := make(map[string]json.RawMessage, len(providers))

	var failed int

	for _, provider := range providers {
		fmt.Fprintf(out, "Fetching news for %s from %s...\n", flags.company, provider.Name())

		articles, raw, err := provider.Fetch(flags.company, a.fetchOptions(provider.Name(), flags))
		if err != nil {
			if len(providers) == 1 {
				return err
			}

			a.log.Error("Fetch failed", "provider", provider.Name(), "error", err)

			failed++

			continue
		}

		responses[provider.Name()] = raw

		if len(articles) == 0 {
			fmt.Fprintf(out, "No articles found for %s.\n", flags.company)
			continue
		}

		fmt.Fprintf(out, "Found %d articles.\n", len(articles))
		printArticles(out, articles)
	}

	if failed == len(providers) {
		return fmt.Errorf("all providers failed for %s", flags.company)
	}

	path, err := a.rawStore().Merge(flags.company, responses["newsapi"], responses["gnews"])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRaw responses stored at: %s\n", path)

	return nil
}

// fetchOptions resolves the per-provider fetch options, flags first, then
// the configured values.
func (a *app) fetchOptions(provider string, flags fetchFlags) news.FetchOptions {
	opts := news.FetchOptions{
		Limit:    flags.limit,
		Language: flags.language,
		Country:  flags.country,
	}

	if opts.Limit <= 0 {
		switch provider {
		case "newsapi":
			opts.Limit = a.cfg.Limits.NewsAPI
		case "gnews":
			opts.Limit = a.cfg.Limits.GNews
		}
	}

	if opts.Language == "" {
		opts.Language = a.cfg.Language
	}

	if opts.Country == "" {
		opts.Country = a.cfg.Country
	}

	return opts
}

// printArticles lists fetched articles: numbered, with source and URL.
func printArticles(out io.Writer, articles []models.Article) {
	for i, article := range articles {
		fmt.Fprintf(out, "\n%d. %s\n", i+1, article.Title)
		fmt.Fprintf(out, "   Source: %s\n", orDefault(article.SourceName, "Unknown"))
		fmt.Fprintf(out, "   URL: %s\n", orDefault(article.URL, models.NoURL))
	}
}

// splitCSV splits a comma-separated flag value, dropping empty entries.
func splitCSV(value string) []string {
	var parts []string

	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	return parts
}
