package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// GenerateFollowUps implements Extractor.
func (s *LLM) GenerateFollowUps(ctx context.Context, narrative string, gaps []EntityGaps, maxQuestions int) ([]string, anthropic.TokenUsage, error) {
	prompt := fmt.Sprintf(followUpPrompt, buildGapDigest(gaps), maxQuestions)

	resp, err := s.callModel(ctx, "generate_follow_ups", "", narrative, prompt)
	if err != nil {
		return nil, anthropic.TokenUsage{}, err
	}

	var raw struct {
		Questions []string `json:"questions"`
	}
	if err := parseObject(resp, "follow-up", &raw); err != nil {
		return nil, resp.Usage, err
	}

	questions := make([]string, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == maxQuestions {
			break
		}
	}
	return questions, resp.Usage, nil
}

func buildGapDigest(gaps []EntityGaps) string {
	if len(gaps) == 0 {
		return "(no gaps)"
	}
	var sb strings.Builder
	for _, g := range gaps {
		fmt.Fprintf(&sb, "%s (%s): %s\n", g.SourceID, g.SourceType.DisplayName(), g.Description)
		for _, m := range g.Missing {
			fmt.Fprintf(&sb, "  missing %s: %s\n", m.FieldName, m.Reason)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
