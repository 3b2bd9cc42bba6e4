// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/citegraph/internal/export"
	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/pipeline"
	"github.com/pdiddy/citegraph/internal/semanticscholar"
)

var exportCmd = &cobra.Command{
	Use:   "export [identifier]",
	Short: "Build a citation graph and write it straight to a file",
	Long: `Export runs a full session for the given seed (identifier or --title)
without streaming deltas and writes the resulting graph to a file. The
output path defaults to export.path from the config file; --format picks
sqlite (default) or yaml.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("title", "", "resolve the master paper by title search")
	exportCmd.Flags().Int("extend", 0, "number of second-degree extension rounds to run")
	exportCmd.Flags().String("out", "", "output file (overrides export.path)")
	exportCmd.Flags().String("format", "sqlite", "output format: sqlite or yaml")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	extendRounds, _ := cmd.Flags().GetInt("extend")
	outPath, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	if format != "sqlite" && format != "yaml" {
		return fmt.Errorf("unknown export format %q", format)
	}

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
	if outPath == "" {
		outPath = cfg.Export.Path
	}

	oa := openalex.New(cfg.OpenAlex, logger)
	s2 := semanticscholar.New(cfg.SemanticScholar, logger)
	sess := pipeline.NewSession(cfg, oa, s2, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sess.Events() {
		}
	}()

	ctx := context.Background()
	runErr := sess.Run(ctx, seed)
	for i := 0; runErr == nil && i < extendRounds; i++ {
		runErr = sess.Extend(ctx)
	}

	if runErr == nil {
		snap := sess.Snapshot()
		if format == "yaml" {
			runErr = export.WriteYAML(snap, outPath)
		} else {
			runErr = export.Write(ctx, snap, outPath)
		}
		if runErr != nil {
			runErr = fmt.Errorf("exporting graph: %w", runErr)
		} else {
			logger.Info("graph exported",
				zap.String("path", outPath), zap.String("format", format))
		}
	}

	sess.Close()
	<-done
	return runErr
}
