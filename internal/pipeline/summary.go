package pipeline

import (
	"fmt"
	"strings"

	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/model"
)

// Follow-up caps. The adaptive generator gets more room than the
// deterministic fallback because it can prioritize.
const (
	maxFollowUps         = 15
	fallbackPerEntityCap = 2
	fallbackTotalCap     = 10
)

// Summarize computes the case-level completeness rollup. An empty source
// list means nothing was declared and nothing is missing, which scores 1.0.
func Summarize(entities []model.SourceEntity) model.ExtractionSummary {
	summary := model.ExtractionSummary{
		TotalSourcesIdentified: len(entities),
	}
	if len(entities) == 0 {
		summary.OverallCompletenessScore = 1.0
		return summary
	}

	var total float64
	for _, entity := range entities {
		total += entity.CompletenessScore
		if len(entity.MissingFields) == 0 {
			summary.FullyCompleteSources++
		} else {
			summary.SourcesWithMissingFields++
		}
	}
	summary.OverallCompletenessScore = total / float64(len(entities))
	return summary
}

// CollectGaps gathers the follow-up-worthy missing fields per entity,
// excluding gaps marked not applicable.
func CollectGaps(entities []model.SourceEntity) []extract.EntityGaps {
	var gaps []extract.EntityGaps
	for _, entity := range entities {
		var missing []model.MissingField
		for _, m := range entity.MissingFields {
			if skipReason(m.Reason) {
				continue
			}
			missing = append(missing, m)
		}
		if len(missing) == 0 {
			continue
		}
		gaps = append(gaps, extract.EntityGaps{
			SourceID:    entity.SourceID,
			SourceType:  entity.SourceType,
			Description: entity.Description,
			Missing:     missing,
		})
	}
	return gaps
}

func skipReason(reason string) bool {
	reason = strings.ToLower(reason)
	return strings.Contains(reason, "not applicable") || strings.Contains(reason, "error")
}

// FallbackFollowUps drafts template questions when the adaptive generator
// is unavailable. At most two per entity, ten in total.
func FallbackFollowUps(gaps []extract.EntityGaps) []string {
	var questions []string
	for _, g := range gaps {
		perEntity := 0
		for _, m := range g.Missing {
			if perEntity == fallbackPerEntityCap || len(questions) == fallbackTotalCap {
				break
			}
			questions = append(questions, templateQuestion(g.Description, m.FieldName))
			perEntity++
		}
		if len(questions) == fallbackTotalCap {
			break
		}
	}
	return questions
}

// fieldPhrasings maps field-name fragments to a question stem, checked in
// order so the most specific phrasing wins.
var fieldPhrasings = []struct {
	fragment string
	stem     string
}{
	{"date", "when this took place"},
	{"amount", "the exact amount involved"},
	{"value", "the exact value involved"},
	{"proceeds", "the exact proceeds received"},
	{"compensation", "the annual compensation figure"},
	{"price", "the purchase price"},
	{"name", "the full name of the person or organization involved"},
	{"relationship", "your relationship to the person involved"},
	{"country", "the country this relates to"},
	{"jurisdiction", "the jurisdiction this relates to"},
	{"percentage", "the ownership percentage"},
	{"verification", "any documentation verifying this"},
}

func templateQuestion(description, fieldName string) string {
	lower := strings.ToLower(fieldName)
	for _, p := range fieldPhrasings {
		if strings.Contains(lower, p.fragment) {
			return fmt.Sprintf("Regarding %q, please confirm %s.", description, p.stem)
		}
	}
	readable := strings.ReplaceAll(lower, "_", " ")
	return fmt.Sprintf("Regarding %q, please provide details of the %s.", description, readable)
}
