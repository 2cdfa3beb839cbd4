package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"finfeed/internal/summarizer"
)

type summarizeFlags struct {
	company string
	output  string
	model   string
}

func newSummarizeCommand(a *app) *cobra.Command {
	var flags summarizeFlags

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize stored news for a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSummarize(cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.company, "company", "c", "", "company name or ticker symbol (required)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "file to write the summary JSON to")
	cmd.Flags().StringVar(&flags.model, "model", "", "model to summarize with (defaults to the configured model)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func (a *app) runSummarize(out io.Writer, flags summarizeFlags) error {
	doc, err := a.loadRawDocument(flags.company)
	if err != nil {
		return err
	}

	articles := combinedArticles(doc)
	if len(articles) == 0 {
		return fmt.Errorf("no articles found in stored data for %s", flags.company)
	}

	fmt.Fprintf(out, "Summarizing %d articles for %s...\n", len(articles), flags.company)

	blocks := make([]string, 0, len(articles))
	for _, article := range articles {
		blocks = append(blocks, article.Text())
	}

	summary, err := a.newSummarizer(flags.model).Summarize(strings.Join(blocks, "\n\n"))
	if err != nil {
		return fmt.Errorf("summarizing articles for %s: %w", flags.company, err)
	}

	fmt.Fprintf(out, "\nSummary: %s\n", summary.Summary)
	if len(summary.KeyPoints) > 0 {
		fmt.Fprintln(out, "\nKey points:")
		for _, point := range summary.KeyPoints {
			fmt.Fprintf(out, "- %s\n", point)
		}
	}
	fmt.Fprintf(out, "\nSentiment: %s\n", summary.Sentiment)
	fmt.Fprintf(out, "Potential impact: %s\n", summary.PotentialImpact)

	if flags.output != "" {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		if err := os.WriteFile(flags.output, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("writing summary to %s: %w", flags.output, err)
		}
		fmt.Fprintf(out, "\nSummary saved to %s\n", flags.output)
	}

	return nil
}

// newSummarizer builds a summarizer for one run. The completer on the app
// takes precedence over a freshly constructed OpenAI client.
func (a *app) newSummarizer(model string) *summarizer.Summarizer {
	completer := a.completer
	if completer == nil {
		if model == "" {
			model = a.cfg.Summarizer.Model
		}
		completer = summarizer.NewOpenAIChatCompleter(os.Getenv("OPENAI_API_KEY"), model)
	}
	return summarizer.NewSummarizer(completer, a.log)
}
