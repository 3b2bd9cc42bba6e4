// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/citegraph/internal/export"
	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/pipeline"
	"github.com/pdiddy/citegraph/internal/semanticscholar"
)

var buildCmd = &cobra.Command{
	Use:   "build [identifier]",
	Short: "Build a citation graph around a master paper",
	Long: `Build seeds a session from a paper identifier (bare DOI or OpenAlex work
id) or a title (--title), fetches its first-degree citations, enriches the
graph from Semantic Scholar, reconciles duplicate authors, and leaves the
session active. --extend runs the optional second-degree expansion.

With --json, coalesced graph delta batches are printed to stdout as JSON
lines as they are produced. With --export, the final graph is written to a
sqlite database.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("title", "", "resolve the master paper by title search")
	buildCmd.Flags().Int("extend", 0, "number of second-degree extension rounds to run")
	buildCmd.Flags().String("export", "", "export the final graph to this sqlite file")
	buildCmd.Flags().Bool("json", false, "print graph delta batches as JSON lines")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	extendRounds, _ := cmd.Flags().GetInt("extend")
	outPath, _ := cmd.Flags().GetString("export")
	streamJSON, _ := cmd.Flags().GetBool("json")

	seed := pipeline.Seed{Title: title}
	if len(args) > 0 {
		seed.Identifier = args[0]
	}
	if seed.Identifier == "" && seed.Title == "" {
		return fmt.Errorf("provide a paper identifier or --title")
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	cfg := sessionConfig()
	oa := openalex.New(cfg.OpenAlex, logger)
	s2 := semanticscholar.New(cfg.SemanticScholar, logger)

	sess := pipeline.NewSession(cfg, oa, s2, logger)

	// The stream must be drained even when nobody wants it, or a heavy
	// fan-out phase eventually blocks on the batch channel.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		enc := json.NewEncoder(os.Stdout)
		for batch := range sess.Events() {
			if !streamJSON {
				continue
			}
			if err := enc.Encode(batch); err != nil {
				logger.Warn("encoding delta batch", zap.Error(err))
			}
		}
	}()

	ctx := context.Background()
	runErr := sess.Run(ctx, seed)
	for i := 0; runErr == nil && i < extendRounds; i++ {
		runErr = sess.Extend(ctx)
	}

	if runErr == nil && outPath != "" {
		if err := export.Write(ctx, sess.Snapshot(), outPath); err != nil {
			runErr = fmt.Errorf("exporting graph: %w", err)
		} else {
			logger.Info("graph exported", zap.String("path", outPath))
		}
	}

	sess.Close()
	wg.Wait()
	return runErr
}
