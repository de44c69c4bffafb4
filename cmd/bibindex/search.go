// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibindex/internal/cite"
	"github.com/pdiddy/bibindex/internal/index"
	"github.com/pdiddy/bibindex/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [title words...]",
	Short: "Find publications whose title contains all the given words",
	Long: `Search runs a full-text match against publication titles. Every word
must appear in the title; punctuation is matched literally, never as query
syntax. Results are ordered by relevance.

Use --save to write the search and its results to a YAML file, and --load to
print a saved search without opening the store.`,
	RunE: runSearch,
}

var bibtexCmd = &cobra.Command{
	Use:   "bibtex [dblp-key...]",
	Short: "Print BibTeX entries for DBLP keys",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBibTeX,
}

func init() {
	searchCmd.Flags().Int("max-results", 10, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("yaml", false, "output results as YAML")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML")
	searchCmd.Flags().Bool("bibtex", false, "output results as BibTeX")
	searchCmd.Flags().String("save", "", "save the search and its results to a YAML file")
	searchCmd.Flags().String("load", "", "print the results of a saved search file")
	searchCmd.MarkFlagsMutuallyExclusive("json", "yaml", "csl", "bibtex")
	searchCmd.MarkFlagsMutuallyExclusive("save", "load")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(bibtexCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	savePath, _ := cmd.Flags().GetString("save")
	loadPath, _ := cmd.Flags().GetString("load")

	var recs []types.Record
	if loadPath != "" {
		qf, err := index.ReadQueryFile(loadPath)
		if err != nil {
			return err
		}
		recs = qf.Results
	} else {
		if len(args) == 0 {
			return fmt.Errorf("provide title words to search for, or --load a saved search")
		}
		var err error
		recs, err = searchStore(cmd, strings.Join(args, " "), maxResults, savePath)
		if err != nil {
			return err
		}
	}
	return formatSearchOutput(cmd, recs)
}

func searchStore(cmd *cobra.Command, title string, maxResults int, savePath string) ([]types.Record, error) {
	store, err := index.Open(loadConfig().Store)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	recs, err := store.SearchPublications(cmd.Context(), title, maxResults)
	if err != nil {
		return nil, err
	}

	if savePath != "" {
		buildID, err := store.BuildID(cmd.Context())
		if err != nil {
			return nil, err
		}
		params := index.QueryParams{Title: title, MaxResults: maxResults}
		if err := index.WriteQueryFile(savePath, params, buildID, recs); err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "Saved search to %s\n", savePath)
	}
	return recs, nil
}

func formatSearchOutput(cmd *cobra.Command, recs []types.Record) error {
	switch {
	case flagSet(cmd, "json"):
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case flagSet(cmd, "yaml"):
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(recs)
	case flagSet(cmd, "csl"):
		return cite.FormatCSL(recs, os.Stdout)
	case flagSet(cmd, "bibtex"):
		for _, r := range recs {
			fmt.Println(cite.BibTeX(r))
		}
		return nil
	}
	return formatSearchTable(recs)
}

func flagSet(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func formatSearchTable(recs []types.Record) error {
	if len(recs) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-50s  %-4s  %s\n", "Rank", "Key", "Title", "Year", "Venue")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range recs {
		year := ""
		if r.Year != nil {
			year = strconv.Itoa(*r.Year)
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-50s  %-4s  %s\n",
			i+1, truncate(r.Key, 30), truncate(r.Title, 50), year, truncate(r.Venue, 20))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(recs))
	return nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func runBibTeX(cmd *cobra.Command, args []string) error {
	store, err := index.Open(loadConfig().Store)
	if err != nil {
		return err
	}
	defer store.Close()

	var missing []string
	for _, key := range args {
		bib, ok, err := store.GetBibTeX(cmd.Context(), key)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, key)
			continue
		}
		fmt.Println(bib)
	}
	if len(missing) > 0 {
		return fmt.Errorf("no record for key(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
