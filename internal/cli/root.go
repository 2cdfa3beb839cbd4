// Package cli implements the finfeed command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"finfeed/internal/config"
	"finfeed/internal/logger"
	"finfeed/internal/models"
	"finfeed/internal/news"
	"finfeed/internal/normalizer"
	"finfeed/internal/storage"
	"finfeed/internal/summarizer"
)

// Version is reported by the version subcommand.
const Version = "1.0.0"

// app carries the dependencies shared by every command: configuration,
// logger, and the provider registry. It is populated once per invocation,
// after the persistent flags are parsed.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *news.Registry

	// completer, when set, replaces the OpenAI-backed chat completer.
	// Tests use it to summarize without network access.
	completer summarizer.ChatCompleter

	// Persistent flag values.
	configPath string
	rawDir     string

	// resolvedConfigPath is where config set persists changes.
	resolvedConfigPath string
}

// Execute runs the finfeed CLI. Errors are returned to the caller; main
// prints them and sets the exit code.
func Execute() error {
	// Load .env early so provider API keys are available.
	_ = godotenv.Load()

	return newRootCommand(&app{}).Execute()
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "finfeed",
		Short: "Financial news agent for collecting and analyzing stock news",
		Long: `finfeed fetches financial news for a company or ticker from NewsAPI and
GNews, stores the raw responses as an append-only history per symbol, and
processes them into normalized article batches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/finfeed/config.yaml)")
	root.PersistentFlags().StringVar(&a.rawDir, "raw-dir", "", "directory for raw API responses (default ./data/raw_data)")

	root.AddCommand(
		newFetchCommand(a),
		newProcessCommand(a),
		newShowCommand(a),
		newListCommand(a),
		newSummarizeCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)

	return root
}

// init loads the configuration and builds the logger and the provider
// registry the commands share.
func (a *app) init() error {
	path := a.configPath
	if path == "" {
		var err error

		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.resolvedConfigPath = path
	a.log = logger.NewLoggerWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	a.registry = news.NewRegistry(
		news.NewNewsAPIClient(os.Getenv("NEWS_API_KEY")),
		news.NewGNewsClient(os.Getenv("GNEWS_API_KEY")),
	)

	return nil
}

// rawStore returns the raw response store, honoring the --raw-dir flag.
// The override is never written back to a.cfg.
func (a *app) rawStore() *storage.RawStore {
	dir := a.cfg.RawDir
	if a.rawDir != "" {
		dir = a.rawDir
	}

	return storage.NewRawStore(dir, a.log)
}

func (a *app) processedStore(dir string) *storage.ProcessedStore {
	if dir == "" {
		dir = a.cfg.ProcessedDir
	}

	return storage.NewProcessedStore(dir, a.log)
}

// loadRawDocument loads the stored raw document for a company, translating
// a missing document into guidance to fetch first.
func (a *app) loadRawDocument(company string) (*storage.RawDocument, error) {
	doc, err := a.rawStore().Load(company)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("no stored data found for %s, fetch news first", company)
	}

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// combinedArticles normalizes every article stored in the document,
// NewsAPI's first, GNews's after.
func combinedArticles(doc *storage.RawDocument) []models.Article {
	articles := normalizer.NormalizeAll(normalizer.ExtractRecords(doc.NewsAPI), normalizer.SourceNewsAPI)

	return append(articles, normalizer.NormalizeAll(normalizer.ExtractRecords(doc.GNews), normalizer.SourceGNews)...)
}

// orDefault renders an optional article field with a display fallback.
func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}

	return *s
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "finfeed version %s\n", Version)
		},
	}
}
