package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/storage"
)

type generateOptions struct {
	configPath  string
	out         string
	workers     int
	metricsFile string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build a route catalog from the configured topology",
		Long: `Load the nodes and links files named in the configuration, enumerate routes
from the origin to every base station and write the catalog.

The catalog is written to --out (or output.path) and saved to the configured
storage backend under storage.key. A path ending in .sz is snappy-compressed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (YAML)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Catalog output file (overrides output.path)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent demand points (overrides build.workers)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Prometheus textfile to write (overrides metrics.file)")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	s, err := newSession(opts.configPath)
	if err != nil {
		return err
	}
	if opts.out != "" {
		s.cfg.Output.Path = opts.out
	}
	if opts.workers > 0 {
		s.cfg.Build.Workers = opts.workers
	}
	if opts.metricsFile != "" {
		s.cfg.Metrics.File = opts.metricsFile
	}
	defer s.flushMetrics()

	ctx := cmd.Context()
	cat, _, err := s.build(ctx)
	if err != nil {
		return err
	}

	if path := outputPath(s.cfg.Output.Path, s.cfg.Output.Compress); path != "" {
		if err := catalog.WriteFile(path, cat); err != nil {
			return err
		}
		s.logger.Info("catalog written", logging.File(path), logging.Count(cat.Len()))
	}

	opt := s.cfg.StorageOptions()
	opt.Metrics = s.metrics
	opt.Logger = s.logger
	store, err := storage.Open(ctx, opt)
	if err != nil {
		return err
	}
	defer store.Close()
	if opt.Backend != storage.BackendNone {
		if err := store.Save(ctx, s.cfg.Storage.Key, cat); err != nil {
			return err
		}
		s.logger.Info("catalog saved", logging.Backend(opt.Backend), logging.String("key", s.cfg.Storage.Key))
	}

	printSummary(cmd.OutOrStdout(), cat)
	return nil
}

// outputPath adds the compressed suffix when compression is requested
func outputPath(path string, compress bool) string {
	if path == "" || !compress || strings.HasSuffix(path, catalog.CompressedSuffix) {
		return path
	}
	return path + catalog.CompressedSuffix
}

func printSummary(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintf(w, "Run:          %s\n", cat.RunID())
	fmt.Fprintf(w, "Routes:       %d\n", cat.Len())
	fmt.Fprintf(w, "Destinations: %d\n", len(cat.Targets()))
	fmt.Fprintf(w, "Units used:   %d\n", len(cat.UnitsUsed()))

	counts := cat.StageCounts()
	stages := make([]int, 0, len(counts))
	for n := range counts {
		stages = append(stages, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stages)))
	for _, n := range stages {
		fmt.Fprintf(w, "  %d-stage:    %d\n", n, counts[n])
	}
}
