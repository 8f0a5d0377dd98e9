package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearline-kyc/sow-cli/internal/loader"
	"github.com/clearline-kyc/sow-cli/internal/model"
)

var (
	batchDir         string
	batchOutDir      string
	batchLimit       int
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract sources of wealth from every narrative in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := initPipeline("batch")
		if err != nil {
			return err
		}

		files, err := listNarratives(batchDir)
		if err != nil {
			return err
		}

		if batchOutDir != "" {
			if err := os.MkdirAll(batchOutDir, 0755); err != nil {
				return eris.Wrapf(err, "create output dir %s", batchOutDir)
			}
		}

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.MaxConcurrentCases
		}

		return processBatch(ctx, files, batchLimit, concurrency, func(ctx context.Context, path string) (*model.ExtractionResult, error) {
			narrative, err := loader.Load(path)
			if err != nil {
				return nil, err
			}
			result, err := p.Run(ctx, caseIDFromPath(path), narrative)
			if err != nil {
				return nil, err
			}
			return result, writeResult(result, outPathFor(batchOutDir, path))
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of narrative documents (required)")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for result JSON files (stdout when empty)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of documents to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent extractions (default from config)")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// listNarratives returns the supported documents under dir, sorted for
// stable processing order.
func listNarratives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read dir %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if loader.Supported(path) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// caseIDFromPath derives a case identifier from the document filename.
func caseIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outPathFor maps a narrative path to its result path, or empty for stdout.
func outPathFor(outDir, path string) string {
	if outDir == "" {
		return ""
	}
	return filepath.Join(outDir, caseIDFromPath(path)+".json")
}

// runFunc is the callback signature for extracting one document.
type runFunc func(ctx context.Context, path string) (*model.ExtractionResult, error)

// processBatch applies limit, then processes documents concurrently. An
// individual failure is logged and counted without aborting the batch.
func processBatch(ctx context.Context, files []string, limit, concurrency int, run runFunc) error {
	if len(files) == 0 {
		zap.L().Info("no narrative documents found")
		return nil
	}

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("documents", len(files)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, path := range files {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", path))

			result, err := run(gctx, path)
			if err != nil {
				failed.Add(1)
				log.Error("extraction failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("extraction complete",
				zap.Int("sources", result.Summary.TotalSourcesIdentified),
				zap.Float64("completeness", result.Summary.OverallCompletenessScore),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
