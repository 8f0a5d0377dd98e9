package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// ResolveEntity implements Extractor. One request covers every flagged
// field of a single entity; the verified fields anchor the model to the
// right passage and the sibling digest stops it from absorbing facts that
// belong to other entities.
func (s *LLM) ResolveEntity(ctx context.Context, narrative string, review EntityReview) ([]model.Correction, anthropic.TokenUsage, error) {
	prompt := buildCorrectionPrompt(review)

	resp, err := s.callModel(ctx, "resolve_entity", string(review.SourceType), narrative, prompt)
	if err != nil {
		return nil, anthropic.TokenUsage{}, err
	}

	var raw struct {
		Corrections []struct {
			FieldName        string   `json:"field_name"`
			Value            string   `json:"value"`
			Status           string   `json:"status"`
			SupportingQuotes []string `json:"supporting_quotes"`
		} `json:"corrections"`
	}
	if err := parseObject(resp, "correction", &raw); err != nil {
		return nil, resp.Usage, err
	}

	// Only fields that were actually flagged may be corrected.
	flagged := make(map[string]bool, len(review.Flagged))
	for _, issue := range review.Flagged {
		flagged[issue.FieldName] = true
	}

	corrections := make([]model.Correction, 0, len(raw.Corrections))
	for _, c := range raw.Corrections {
		if !flagged[c.FieldName] {
			continue
		}
		status := model.CorrectionStatus(c.Status)
		switch status {
		case model.CorrectionCorrected, model.CorrectionConfirmed, model.CorrectionUnresolved:
		default:
			status = model.CorrectionUnresolved
		}
		corrections = append(corrections, model.Correction{
			SourceID:         review.SourceID,
			FieldName:        c.FieldName,
			Value:            strings.TrimSpace(c.Value),
			Status:           status,
			SupportingQuotes: c.SupportingQuotes,
		})
	}
	return corrections, resp.Usage, nil
}

func buildCorrectionPrompt(review EntityReview) string {
	var anchors strings.Builder
	for _, a := range review.Anchors {
		fmt.Fprintf(&anchors, "  %s: %s\n", a.Name, a.Value)
	}
	if anchors.Len() == 0 {
		anchors.WriteString("  (none)\n")
	}

	var flagged strings.Builder
	for _, issue := range review.Flagged {
		fmt.Fprintf(&flagged, "  %s: %q (%s)\n", issue.FieldName, issue.CurrentValue, issue.Message)
	}

	siblings := "  (none)"
	if len(review.Siblings) > 0 {
		siblings = "  " + strings.Join(review.Siblings, "\n  ")
	}

	return fmt.Sprintf(correctionPrompt,
		review.SourceID,
		review.SourceType.DisplayName(),
		review.Description,
		strings.TrimRight(anchors.String(), "\n"),
		strings.TrimRight(flagged.String(), "\n"),
		siblings,
	)
}
