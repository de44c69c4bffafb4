package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibindex/internal/acquire"
	"github.com/pdiddy/bibindex/internal/index"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Download the DBLP DTD and XML dump into the cache",
	Long: `Dump fetches dblp.dtd and dblp.xml.gz into the cache directory. Files
already present are kept unless --force is given. A failed download leaves any
cached copy untouched.`,
	RunE: runDump,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the store from the cached dump",
	Long: `Build extracts articles and conference papers from the cached dump and
writes a fresh store with a full-text title index. The new store replaces the
old one in a single step; readers never see a partial store.`,
	RunE: runBuild,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download the dump if needed and build the store",
	RunE:  runIngest,
}

func init() {
	dumpCmd.Flags().Bool("force", false, "download even when the files are cached")
	ingestCmd.Flags().Bool("force", false, "download even when the files are cached")
	ingestCmd.Flags().Bool("skip-download", false, "build from the cached dump without contacting DBLP")
	for _, c := range []*cobra.Command{buildCmd, ingestCmd} {
		c.Flags().Int("batch-size", 0, "records per insert transaction (default 50000)")
	}

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(ingestCmd)
}

// signalContext returns a context cancelled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	force, _ := cmd.Flags().GetBool("force")
	cfg := loadConfig()

	res, err := acquire.EnsurePresent(ctx, httpClient(cfg.Dump), cfg.Dump, force, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("downloaded: %d, cached: %d\n", res.Downloaded, res.Skipped)
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg := loadConfig()
	if n, _ := cmd.Flags().GetInt("batch-size"); n > 0 {
		cfg.Index.BatchSize = n
	}

	_, err := index.Build(ctx, cfg.Store, cfg.Dump, cfg.Index, os.Stdout)
	return err
}

func runIngest(cmd *cobra.Command, args []string) error {
	skip, _ := cmd.Flags().GetBool("skip-download")
	if !skip {
		if err := runDump(cmd, args); err != nil {
			return err
		}
	}
	return runBuild(cmd, args)
}
