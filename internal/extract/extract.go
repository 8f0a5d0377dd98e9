// Package extract holds the LLM-backed extraction capabilities: per-type
// record extraction, account metadata, flagged-field resolution, and
// follow-up question drafting. Everything rides one narrow Anthropic client
// so the pipeline can swap in a mock.
package extract

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"

	"github.com/rotisserie/eris"

	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/internal/resilience"
	"github.com/clearline-kyc/sow-cli/internal/schema"
	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// Extractor is the extraction capability set consumed by the pipeline.
type Extractor interface {
	// Warm populates the prompt cache for a narrative before fan-out.
	Warm(ctx context.Context, narrative string) (anthropic.TokenUsage, error)

	// ExtractRecords pulls every declared source of the given type out of
	// the narrative. An empty slice means the narrative declares none.
	ExtractRecords(ctx context.Context, st model.SourceType, narrative string, holder model.AccountHolder) ([]model.Record, anthropic.TokenUsage, error)

	// ExtractMetadata pulls the account-holder context out of the narrative.
	ExtractMetadata(ctx context.Context, narrative string) (model.ExtractionMetadata, anthropic.TokenUsage, error)

	// ResolveEntity re-reads the narrative for one entity whose fields
	// failed verification and returns a correction per flagged field.
	ResolveEntity(ctx context.Context, narrative string, review EntityReview) ([]model.Correction, anthropic.TokenUsage, error)

	// GenerateFollowUps drafts customer-facing questions for the gaps in
	// the extracted sources.
	GenerateFollowUps(ctx context.Context, narrative string, gaps []EntityGaps, maxQuestions int) ([]string, anthropic.TokenUsage, error)
}

// EntityReview describes one flagged entity for ResolveEntity.
type EntityReview struct {
	SourceID    string
	SourceType  model.SourceType
	Description string

	// Anchors are the entity's verified fields, in a stable order.
	Anchors []AnchorField

	// Flagged are the fields that failed deterministic validation.
	Flagged []model.ValidationIssue

	// Siblings are one-line digests of the other extracted entities.
	Siblings []string
}

// AnchorField is one verified field used to locate the right passage.
type AnchorField struct {
	Name  string
	Value string
}

// EntityGaps describes one entity's missing fields for follow-up drafting.
type EntityGaps struct {
	SourceID    string
	SourceType  model.SourceType
	Description string
	Missing     []model.MissingField
}

// Options configures the LLM extractor.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature *float64

	// RequestsPerSecond and Burst bound direct API throughput.
	RequestsPerSecond float64
	Burst             int

	Retry   resilience.RetryConfig
	Breaker resilience.CircuitBreakerConfig
}

// LLM implements Extractor against the Anthropic API.
type LLM struct {
	client  anthropic.Client
	reg     *schema.Registry
	opts    Options
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

// New creates an LLM extractor.
func New(client anthropic.Client, reg *schema.Registry, opts Options) *LLM {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = int(opts.RequestsPerSecond)
		if opts.Burst < 1 {
			opts.Burst = 1
		}
	}
	return &LLM{
		client:  client,
		reg:     reg,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		breaker: resilience.NewCircuitBreaker(opts.Breaker),
	}
}

// Warm implements Extractor.
func (s *LLM) Warm(ctx context.Context, narrative string) (anthropic.TokenUsage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return anthropic.TokenUsage{}, err
	}
	return anthropic.WarmCache(ctx, s.client, s.opts.Model, s.systemBlocks(narrative))
}

// ExtractRecords implements Extractor.
func (s *LLM) ExtractRecords(ctx context.Context, st model.SourceType, narrative string, holder model.AccountHolder) ([]model.Record, anthropic.TokenUsage, error) {
	prompt, err := buildRecordPrompt(s.reg, st, holder)
	if err != nil {
		return nil, anthropic.TokenUsage{}, err
	}

	resp, err := s.callModel(ctx, "extract_records", string(st), narrative, prompt)
	if err != nil {
		return nil, anthropic.TokenUsage{}, err
	}

	records, err := model.UnmarshalRecords(st, []byte(cleanJSON(resp.Text())))
	if err != nil {
		return nil, resp.Usage, eris.Wrapf(err, "extract: parse %s records", st)
	}
	return records, resp.Usage, nil
}

// systemBlocks builds the cached system prompt shared by every call for one
// narrative.
func (s *LLM) systemBlocks(narrative string) []anthropic.SystemBlock {
	return anthropic.BuildCachedSystemBlocks(systemPreamble + narrative)
}

// callModel sends one request with rate limiting, circuit breaking, and
// transient-only retry.
func (s *LLM) callModel(ctx context.Context, operation, sourceType, narrative, prompt string) (*anthropic.MessageResponse, error) {
	retryCfg := s.opts.Retry
	if retryCfg.OnRetry == nil {
		retryCfg.OnRetry = resilience.RetryLogger(operation, sourceType)
	}

	req := anthropic.MessageRequest{
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		System:      s.systemBlocks(narrative),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: s.opts.Temperature,
	}

	return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			resp, err := s.client.CreateMessage(ctx, req)
			if err != nil {
				if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
					return nil, resilience.NewTransientError(err, code)
				}
				return nil, err
			}
			return resp, nil
		})
	})
}

// parseObject unmarshals a cleaned JSON object response into out.
func parseObject(resp *anthropic.MessageResponse, operation string, out any) error {
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), out); err != nil {
		return eris.Wrapf(err, "extract: parse %s response", operation)
	}
	return nil
}
