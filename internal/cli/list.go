package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"finfeed/internal/storage"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies with stored news data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd.OutOrStdout())
		},
	}
}

func (a *app) runList(out io.Writer) error {
	symbols, err := storage.ListSymbols(a.rawStore().Dir())
	if err != nil {
		return fmt.Errorf("listing stored companies: %w", err)
	}

	if len(symbols) == 0 {
		fmt.Fprintln(out, "No stored data found for any company.")
		return nil
	}

	fmt.Fprintf(out, "Found data for %d companies:\n", len(symbols))
	for _, symbol := range symbols {
		fmt.Fprintf(out, "- %s\n", symbol)
	}

	return nil
}
