package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"finfeed/internal/models"
	"finfeed/internal/normalizer"
	"finfeed/pkg/textutil"
)

// Table column widths, in display cells.
const (
	titleWidth = 60
	urlWidth   = 48
)

// Values accepted by the --source flag.
const (
	sourceAll     = "all"
	sourceNewsAPI = "newsapi"
	sourceGNews   = "gnews"
)

type showFlags struct {
	company string
	source  string
}

func newShowCommand(a *app) *cobra.Command {
	var flags showFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored news for a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.company, "company", "c", "", "company name or ticker symbol (required)")
	cmd.Flags().StringVar(&flags.source, "source", sourceAll, "news source to display (all, newsapi, or gnews)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func (a *app) runShow(out io.Writer, flags showFlags) error {
	if flags.source != sourceAll && flags.source != sourceNewsAPI && flags.source != sourceGNews {
		return fmt.Errorf("unknown source %q (expected all, newsapi, or gnews)", flags.source)
	}

	doc, err := a.loadRawDocument(flags.company)
	if err != nil {
		return err
	}

	if flags.source == sourceAll || flags.source == sourceNewsAPI {
		articles := normalizer.NormalizeAll(normalizer.ExtractRecords(doc.NewsAPI), normalizer.SourceNewsAPI)
		renderArticleTable(out, "NewsAPI Articles", articles)
	}

	if flags.source == sourceAll || flags.source == sourceGNews {
		articles := normalizer.NormalizeAll(normalizer.ExtractRecords(doc.GNews), normalizer.SourceGNews)
		renderArticleTable(out, "Google News Articles", articles)
	}

	return nil
}

// renderArticleTable prints one provider's articles as a bordered table.
func renderArticleTable(out io.Writer, heading string, articles []models.Article) {
	fmt.Fprintf(out, "\n%s (%d)\n", heading, len(articles))

	if len(articles) == 0 {
		fmt.Fprintln(out, "No articles stored.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleWidth},
		{Number: 5, WidthMax: urlWidth},
	})
	t.AppendHeader(table.Row{"#", "Title", "Source", "Published", "URL"})

	for i, article := range articles {
		t.AppendRow(table.Row{
			i + 1,
			textutil.Truncate(textutil.NormalizeWhitespace(article.Title), titleWidth),
			orDefault(article.SourceName, "Unknown"),
			orDefault(article.PublishedAt, "Unknown"),
			textutil.Truncate(orDefault(article.URL, models.NoURL), urlWidth),
		})
	}

	t.Render()
}
