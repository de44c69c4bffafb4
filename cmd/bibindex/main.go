// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibindex CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the bibindex CLI.
var rootCmd = &cobra.Command{
	Use:   "bibindex",
	Short: "Local full-text index over the DBLP bibliography",
	Long: `bibindex downloads the DBLP XML dump, extracts journal articles and
conference papers into a local SQLite store with a full-text title index, and
answers title searches and BibTeX lookups offline.

Run "bibindex ingest" once to download and build the store, then use search,
bibtex, status, export, or serve.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bibindex.yaml or ~/.config/bibindex/bibindex.yaml)")
	rootCmd.PersistentFlags().String("cache-dir", "", "directory holding the dump and the store (default .cache)")
	viper.BindPFlag(keyCacheDir, rootCmd.PersistentFlags().Lookup("cache-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibindex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bibindex"))
		}
	}

	viper.SetEnvPrefix("BIBINDEX")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
