package extract

import (
	"context"
	"strconv"
	"strings"

	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// DefaultCurrency is assumed when the narrative gives no currency signal.
const DefaultCurrency = "GBP"

// ExtractMetadata implements Extractor.
func (s *LLM) ExtractMetadata(ctx context.Context, narrative string) (model.ExtractionMetadata, anthropic.TokenUsage, error) {
	resp, err := s.callModel(ctx, "extract_metadata", "", narrative, metadataPrompt)
	if err != nil {
		return model.ExtractionMetadata{}, anthropic.TokenUsage{}, err
	}

	var raw struct {
		AccountHolderName   string         `json:"account_holder_name"`
		AccountType         string         `json:"account_type"`
		Holders             []model.Holder `json:"holders"`
		TotalStatedNetWorth string         `json:"total_stated_net_worth"`
		Currency            string         `json:"currency"`
	}
	if err := parseObject(resp, "metadata", &raw); err != nil {
		return model.ExtractionMetadata{}, resp.Usage, err
	}

	meta := model.ExtractionMetadata{
		AccountHolder: model.AccountHolder{
			Name:    strings.TrimSpace(raw.AccountHolderName),
			Type:    model.AccountIndividual,
			Holders: raw.Holders,
		},
		TotalStatedNetWorth: ParseAmount(raw.TotalStatedNetWorth),
		Currency:            DefaultCurrency,
	}
	if raw.AccountType == string(model.AccountJoint) {
		meta.AccountHolder.Type = model.AccountJoint
	}
	if c := strings.ToUpper(strings.TrimSpace(raw.Currency)); len(c) == 3 {
		meta.Currency = c
	}
	return meta, resp.Usage, nil
}

// ParseAmount extracts a numeric value from a monetary string such as
// "£1,800,000", "250k", or "£1.5 million". Returns nil when no number can
// be read.
func ParseAmount(s string) *float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	for _, sym := range []string{"£", "$", "€", "gbp", "usd", "eur"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	multiplier := 1.0
	switch {
	case strings.Contains(s, "million"):
		multiplier = 1e6
		s = strings.TrimSpace(strings.ReplaceAll(s, "million", ""))
	case strings.Contains(s, "thousand"):
		multiplier = 1e3
		s = strings.TrimSpace(strings.ReplaceAll(s, "thousand", ""))
	case strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = strings.TrimSuffix(s, "k")
	}

	// Keep the leading numeric run only, so "480000 (net)" still parses.
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return nil
	}

	val, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return nil
	}
	val *= multiplier
	return &val
}
