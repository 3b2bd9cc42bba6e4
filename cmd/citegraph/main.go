// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citegraph CLI.
// See docs/ARCHITECTURE § CLI Surface.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/citegraph/internal/secrets"
	"github.com/pdiddy/citegraph/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the citegraph CLI.
var rootCmd = &cobra.Command{
	Use:   "citegraph",
	Short: "Build deduplicated citation graphs around a master paper",
	Long: `citegraph ingests a seed paper and incrementally assembles a deduplicated
citation graph by querying OpenAlex and Semantic Scholar, merging their
records into one canonical entity set, and enriching it in background
phases. The assembled graph exports to normalized sqlite tables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citegraph.yaml or ~/.config/citegraph/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citegraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citegraph"))
		}
	}

	viper.SetEnvPrefix("CITEGRAPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger. Debug level with --verbose.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// sessionConfig assembles the session configuration from the config file,
// environment, and loaded secrets. Secrets fill only unset fields.
func sessionConfig() types.SessionConfig {
	var cfg types.SessionConfig

	cfg.OpenAlex.Email = viper.GetString("openalex.email")
	cfg.OpenAlex.Timeout = viper.GetDuration("openalex.timeout")
	cfg.OpenAlex.PerPage = viper.GetInt("openalex.per_page")
	cfg.OpenAlex.BatchSize = viper.GetInt("openalex.batch_size")
	cfg.OpenAlex.MaxPagesPerChunk = viper.GetInt("openalex.max_pages_per_chunk")
	cfg.OpenAlex.RequestsPerSecond = viper.GetFloat64("openalex.requests_per_second")
	cfg.OpenAlex.CacheTTL = viper.GetDuration("openalex.cache_ttl")

	cfg.SemanticScholar.APIKey = viper.GetString("semantic_scholar.api_key")
	cfg.SemanticScholar.Timeout = viper.GetDuration("semantic_scholar.timeout")
	cfg.SemanticScholar.PageLimit = viper.GetInt("semantic_scholar.page_limit")
	cfg.SemanticScholar.RequestsPerSecond = viper.GetFloat64("semantic_scholar.requests_per_second")

	cfg.Graph.StubCreationThreshold = viper.GetInt("graph.stub_creation_threshold")
	cfg.Graph.FlushInterval = viper.GetDuration("graph.flush_interval")
	cfg.Export.Path = viper.GetString("export.path")

	if cfg.OpenAlex.Email == "" {
		cfg.OpenAlex.Email = loadedSecrets["openalex-email"]
	}
	if cfg.SemanticScholar.APIKey == "" {
		cfg.SemanticScholar.APIKey = loadedSecrets["semantic-scholar-api-key"]
	}

	cfg.Defaults()
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
