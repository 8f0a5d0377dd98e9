package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// defaultDispatchConcurrency bounds concurrent extraction calls per case.
const defaultDispatchConcurrency = 11

// ResultsByType holds the raw extractor output for every source type. The
// map always contains a key for every known type; a failed or empty unit is
// an empty slice.
type ResultsByType map[model.SourceType][]model.Record

// Dispatch fans one narrative out to every per-type extractor concurrently.
// A failed unit degrades to an empty slice rather than failing the case;
// failed reports how many units degraded.
func Dispatch(ctx context.Context, ex extract.Extractor, narrative string, holder model.AccountHolder, concurrency int) (results ResultsByType, usage anthropic.TokenUsage, failed int) {
	if concurrency <= 0 {
		concurrency = defaultDispatchConcurrency
	}

	types := model.AllSourceTypes()
	results = make(ResultsByType, len(types))
	for _, st := range types {
		results[st] = nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, st := range types {
		g.Go(func() error {
			records, callUsage, err := ex.ExtractRecords(gctx, st, narrative, holder)

			mu.Lock()
			defer mu.Unlock()
			usage.Add(callUsage)
			if err != nil {
				failed++
				zap.L().Warn("dispatch: extractor degraded",
					zap.String("source_type", string(st)),
					zap.Error(err),
				)
				return nil
			}
			results[st] = records
			return nil
		})
	}

	// Units never return errors; Wait only observes context cancellation.
	_ = g.Wait()

	return results, usage, failed
}
