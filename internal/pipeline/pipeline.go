// Package pipeline orchestrates the source-of-wealth extraction stages:
// metadata, concurrent per-type dispatch, merge and identity assignment,
// deterministic validation, adaptive resolution, deduplication, overlap
// linking, summary, and follow-up generation.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/internal/schema"
	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// degradedFollowUp is the single question emitted when extraction fails
// outright.
const degradedFollowUp = "Automated extraction failed for this declaration; please review the source document manually."

// Options tunes the orchestrator.
type Options struct {
	// DispatchConcurrency bounds the per-type extraction fan-out.
	DispatchConcurrency int

	// ResolveConcurrency bounds concurrent adaptive resolution calls.
	ResolveConcurrency int

	// Model is used for cost attribution logging only.
	Model string
}

// Pipeline runs the full extraction for one narrative.
type Pipeline struct {
	ex   extract.Extractor
	reg  *schema.Registry
	opts Options
}

// New creates a Pipeline.
func New(ex extract.Extractor, reg *schema.Registry, opts Options) *Pipeline {
	return &Pipeline{ex: ex, reg: reg, opts: opts}
}

// Run executes every stage for one narrative. Catastrophic extraction
// failure yields a minimal degraded result rather than an error; the error
// return covers context cancellation only.
func (p *Pipeline) Run(ctx context.Context, caseID, narrative string) (*model.ExtractionResult, error) {
	if caseID == "" {
		caseID = uuid.NewString()
	}
	log := zap.L().With(zap.String("case_id", caseID))
	log.Info("pipeline: starting extraction")
	start := time.Now()

	var usage anthropic.TokenUsage
	result := &model.ExtractionResult{
		Metadata: model.ExtractionMetadata{
			CaseID:        caseID,
			AccountHolder: model.AccountHolder{Name: "Unknown", Type: model.AccountIndividual},
			Currency:      extract.DefaultCurrency,
		},
	}

	// Warm the prompt cache so the fan-out hits one cached narrative.
	if warmUsage, err := p.ex.Warm(ctx, narrative); err != nil {
		log.Debug("pipeline: cache warm failed", zap.Error(err))
	} else {
		usage.Add(warmUsage)
	}

	meta, metaUsage, metaErr := p.ex.ExtractMetadata(ctx, narrative)
	usage.Add(metaUsage)
	if metaErr != nil {
		log.Warn("pipeline: metadata extraction degraded", zap.Error(metaErr))
	} else {
		meta.CaseID = caseID
		if meta.AccountHolder.Name == "" {
			meta.AccountHolder.Name = "Unknown"
		}
		result.Metadata = meta
	}

	results, dispatchUsage, failed := Dispatch(ctx, p.ex, narrative, result.Metadata.AccountHolder, p.opts.DispatchConcurrency)
	usage.Add(dispatchUsage)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if failed == len(model.AllSourceTypes()) && metaErr != nil {
		log.Error("pipeline: extraction failed for every source type")
		result.Degraded = true
		result.RecommendedFollowUpQuestions = []string{degradedFollowUp}
		result.TokenUsage = toModelUsage(usage)
		return result, nil
	}

	entities := Merge(results, p.reg, result.Metadata.AccountHolder)
	log.Info("pipeline: merged", zap.Int("entities", len(entities)), zap.Int("degraded_types", failed))

	issues := FindIssues(entities, narrative)
	if len(issues) > 0 {
		log.Info("pipeline: validation issues found", zap.Int("issues", len(issues)))
		corrections, resolveUsage := Resolve(ctx, p.ex, narrative, entities, issues, p.opts.ResolveConcurrency)
		usage.Add(resolveUsage)
		entities = ApplyCorrections(entities, corrections)
	}

	entities = Deduplicate(entities, p.reg)
	entities = LinkOverlaps(entities)

	result.SourcesOfWealth = entities
	result.Summary = Summarize(entities)
	result.RecommendedFollowUpQuestions = p.followUps(ctx, narrative, entities, &usage, log)
	result.TokenUsage = toModelUsage(usage)

	usage.LogCost(p.opts.Model, "extraction")
	log.Info("pipeline: extraction complete",
		zap.Int("sources", len(entities)),
		zap.Float64("completeness", result.Summary.OverallCompletenessScore),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// followUps tries the adaptive generator and falls back to templates.
func (p *Pipeline) followUps(ctx context.Context, narrative string, entities []model.SourceEntity, usage *anthropic.TokenUsage, log *zap.Logger) []string {
	gaps := CollectGaps(entities)
	if len(gaps) == 0 {
		return nil
	}

	questions, callUsage, err := p.ex.GenerateFollowUps(ctx, narrative, gaps, maxFollowUps)
	usage.Add(callUsage)
	if err != nil || len(questions) == 0 {
		log.Warn("pipeline: follow-up generation degraded to templates", zap.Error(err))
		return FallbackFollowUps(gaps)
	}
	return questions
}

func toModelUsage(u anthropic.TokenUsage) model.TokenUsage {
	return model.TokenUsage{
		InputTokens:         int(u.InputTokens),
		OutputTokens:        int(u.OutputTokens),
		CacheCreationTokens: int(u.CacheCreationInputTokens),
		CacheReadTokens:     int(u.CacheReadInputTokens),
	}
}
