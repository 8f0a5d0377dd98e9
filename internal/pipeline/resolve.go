package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// defaultResolveConcurrency bounds concurrent resolution calls per case.
const defaultResolveConcurrency = 4

// Resolve re-examines every entity with validation issues. One request per
// flagged entity carries all of its flagged fields; entities run
// concurrently. A failed entity degrades to unresolved corrections for its
// fields.
func Resolve(ctx context.Context, ex extract.Extractor, narrative string, entities []model.SourceEntity, issues []model.ValidationIssue, concurrency int) (map[model.FieldRef]model.Correction, anthropic.TokenUsage) {
	if concurrency <= 0 {
		concurrency = defaultResolveConcurrency
	}

	byID := make(map[string][]model.ValidationIssue)
	for _, issue := range issues {
		byID[issue.SourceID] = append(byID[issue.SourceID], issue)
	}

	corrections := make(map[model.FieldRef]model.Correction)
	var usage anthropic.TokenUsage
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range entities {
		entity := entities[i]
		flagged, ok := byID[entity.SourceID]
		if !ok {
			continue
		}

		review := buildReview(entity, flagged, entities)

		g.Go(func() error {
			resolved, callUsage, err := ex.ResolveEntity(gctx, narrative, review)

			mu.Lock()
			defer mu.Unlock()
			usage.Add(callUsage)

			if err != nil {
				zap.L().Warn("resolve: entity degraded to unresolved",
					zap.String("source_id", entity.SourceID),
					zap.Error(err),
				)
				for _, issue := range flagged {
					ref := model.FieldRef{SourceID: issue.SourceID, FieldName: issue.FieldName}
					corrections[ref] = model.Correction{
						SourceID:  issue.SourceID,
						FieldName: issue.FieldName,
						Value:     issue.CurrentValue,
						Status:    model.CorrectionUnresolved,
					}
				}
				return nil
			}

			for _, c := range resolved {
				corrections[model.FieldRef{SourceID: c.SourceID, FieldName: c.FieldName}] = c
			}
			return nil
		})
	}

	_ = g.Wait()
	return corrections, usage
}

// buildReview assembles the per-entity resolution request: verified fields
// as anchors, a digest of the sibling entities, and the flagged fields.
func buildReview(entity model.SourceEntity, flagged []model.ValidationIssue, all []model.SourceEntity) extract.EntityReview {
	flaggedNames := make(map[string]bool, len(flagged))
	for _, issue := range flagged {
		flaggedNames[issue.FieldName] = true
	}

	names := make([]string, 0, len(entity.ExtractedFields))
	for name := range entity.ExtractedFields {
		names = append(names, name)
	}
	sort.Strings(names)

	var anchors []extract.AnchorField
	for _, name := range names {
		value := strings.TrimSpace(entity.ExtractedFields[name])
		if value == "" || flaggedNames[name] {
			continue
		}
		anchors = append(anchors, extract.AnchorField{Name: name, Value: value})
	}

	var siblings []string
	for _, other := range all {
		if other.SourceID == entity.SourceID {
			continue
		}
		siblings = append(siblings, fmt.Sprintf("%s (%s): %s",
			other.SourceID, other.SourceType.DisplayName(), other.Description))
	}

	return extract.EntityReview{
		SourceID:    entity.SourceID,
		SourceType:  entity.SourceType,
		Description: entity.Description,
		Anchors:     anchors,
		Flagged:     flagged,
		Siblings:    siblings,
	}
}

// ApplyCorrections folds resolved corrections back into the entities.
// Copy-on-write: touched entities are cloned; only corrections that change
// a value are material. Idempotent.
func ApplyCorrections(entities []model.SourceEntity, corrections map[model.FieldRef]model.Correction) []model.SourceEntity {
	out := make([]model.SourceEntity, len(entities))
	for i, entity := range entities {
		updated := entity
		cloned := false
		for name := range entity.ExtractedFields {
			c, ok := corrections[model.FieldRef{SourceID: entity.SourceID, FieldName: name}]
			if !ok || c.Status != model.CorrectionCorrected {
				continue
			}
			if c.Value == entity.ExtractedFields[name] {
				continue
			}
			if !cloned {
				updated = entity.Clone()
				cloned = true
			}
			updated.ExtractedFields[name] = c.Value
			zap.L().Info("resolve: field corrected",
				zap.String("source_id", entity.SourceID),
				zap.String("field", name),
			)
		}
		out[i] = updated
	}
	return out
}
