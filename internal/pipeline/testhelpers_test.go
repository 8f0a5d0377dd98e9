package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/internal/schema"
	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// fakeExtractor is a programmable Extractor double.
type fakeExtractor struct {
	mu sync.Mutex

	records    map[model.SourceType][]model.Record
	recordsErr map[model.SourceType]error
	delays     map[model.SourceType]time.Duration

	meta    model.ExtractionMetadata
	metaErr error

	resolveFn  func(review extract.EntityReview) ([]model.Correction, error)
	reviews    []extract.EntityReview
	followUps  []string
	followErr  error
	gapsSeen   []extract.EntityGaps
	warmCalled bool
}

func (f *fakeExtractor) Warm(ctx context.Context, narrative string) (anthropic.TokenUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warmCalled = true
	return anthropic.TokenUsage{}, nil
}

func (f *fakeExtractor) ExtractRecords(ctx context.Context, st model.SourceType, narrative string, holder model.AccountHolder) ([]model.Record, anthropic.TokenUsage, error) {
	if d := f.delays[st]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, anthropic.TokenUsage{}, ctx.Err()
		}
	}
	usage := anthropic.TokenUsage{InputTokens: 10, OutputTokens: 5}
	if err := f.recordsErr[st]; err != nil {
		return nil, usage, err
	}
	return f.records[st], usage, nil
}

func (f *fakeExtractor) ExtractMetadata(ctx context.Context, narrative string) (model.ExtractionMetadata, anthropic.TokenUsage, error) {
	return f.meta, anthropic.TokenUsage{InputTokens: 10}, f.metaErr
}

func (f *fakeExtractor) ResolveEntity(ctx context.Context, narrative string, review extract.EntityReview) ([]model.Correction, anthropic.TokenUsage, error) {
	f.mu.Lock()
	f.reviews = append(f.reviews, review)
	f.mu.Unlock()
	if f.resolveFn == nil {
		return nil, anthropic.TokenUsage{}, nil
	}
	corrections, err := f.resolveFn(review)
	return corrections, anthropic.TokenUsage{InputTokens: 10}, err
}

func (f *fakeExtractor) GenerateFollowUps(ctx context.Context, narrative string, gaps []extract.EntityGaps, maxQuestions int) ([]string, anthropic.TokenUsage, error) {
	f.mu.Lock()
	f.gapsSeen = gaps
	f.mu.Unlock()
	return f.followUps, anthropic.TokenUsage{InputTokens: 10}, f.followErr
}

func mustRegistry(t interface{ Fatal(args ...any) }) *schema.Registry {
	reg, err := schema.Load()
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

// entityFor builds a merged entity from a single record, for stage tests
// that start mid-pipeline.
func entityFor(t interface{ Fatal(args ...any) }, id string, st model.SourceType, fields map[string]string) model.SourceEntity {
	return buildEntity(id, st, fields, mustRegistry(t))
}
