package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"finfeed/internal/storage"
)

type processFlags struct {
	company      string
	output       string
	processedDir string
}

func newProcessCommand(a *app) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Normalize stored news for a company into a processed document",
		Long: `Process the stored raw responses for a company: normalize the articles from
both providers into the canonical shape and fold the batch into the company's
processed history document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProcess(cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.company, "company", "c", "", "company name or ticker symbol (required)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output JSON file path (default <processed-dir>/<SYMBOL>.json)")
	cmd.Flags().StringVar(&flags.processedDir, "processed-dir", "", "directory for processed documents (default ./data/processed)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func (a *app) runProcess(out io.Writer, flags processFlags) error {
	doc, err := a.loadRawDocument(flags.company)
	if err != nil {
		return err
	}

	articles := combinedArticles(doc)
	if len(articles) == 0 {
		return fmt.Errorf("no articles found in stored data for %s", flags.company)
	}

	fmt.Fprintf(out, "Found %d articles for %s.\n", len(articles), flags.company)

	batch := &storage.ArticleBatch{
		Company:      flags.company,
		ArticleCount: len(articles),
		Timestamp:    time.Now().Format(time.RFC3339),
		Articles:     articles,
	}

	path, err := a.processedStore(flags.processedDir).Merge(flags.output, batch)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Processed data saved to %s\n", path)

	return nil
}
