// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibindex/internal/index"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export selected records with their BibTeX to YAML or JSON",
	Long: `Export writes the records named by --key and those matching --query,
each with its BibTeX entry, to stdout or to --out. Keys with no stored record
are reported after the export and make the command fail.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("query", "", "title search selecting records to export")
	exportCmd.Flags().StringSlice("key", nil, "DBLP key to export (repeatable)")
	exportCmd.Flags().Int("limit", 0, "maximum query matches to export (0 = all)")
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	query, _ := cmd.Flags().GetString("query")
	keys, _ := cmd.Flags().GetStringSlice("key")
	limit, _ := cmd.Flags().GetInt("limit")
	outPath, _ := cmd.Flags().GetString("out")

	if query == "" && len(keys) == 0 {
		return fmt.Errorf("selection required: provide --query or --key")
	}
	format, err := index.ParseExportFormat(formatName)
	if err != nil {
		return err
	}

	store, err := index.Open(loadConfig().Store)
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	opts := index.ExportOptions{Query: query, Keys: keys, MaxResults: limit}
	res, err := store.Export(cmd.Context(), w, format, opts)
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported %d record(s) to %s\n", res.Exported, outPath)
	}
	if len(res.Missing) > 0 {
		return fmt.Errorf("no record for key(s): %s", strings.Join(res.Missing, ", "))
	}
	return nil
}
