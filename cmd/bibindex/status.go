package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibindex/internal/index"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a store exists and what it holds",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := index.Status(cmd.Context(), loadConfig().Store)
	if err != nil {
		return err
	}

	if flagSet(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	if !st.Present {
		fmt.Println("No store found. Run `bibindex ingest` to build one.")
		return nil
	}
	out := map[string]any{
		"ingested_at":  st.IngestedAt.Format("2006-01-02 15:04:05 MST"),
		"record_count": st.RecordCount,
		"build_id":     st.BuildID,
		"size_mb":      fmt.Sprintf("%.1f", st.SizeMB()),
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(out)
}
