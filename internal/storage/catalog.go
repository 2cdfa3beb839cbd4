package storage

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ListSymbols returns the symbols that have a stored document in dir,
// derived from the *.json filenames directly inside it. The result is
// sorted; a missing directory yields an empty list, not an error.
func ListSymbols(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var symbols []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		symbols = append(symbols, strings.TrimSuffix(name, ".json"))
	}

	sort.Strings(symbols)

	return symbols, nil
}
