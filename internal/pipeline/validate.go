package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clearline-kyc/sow-cli/internal/model"
)

// Thresholds for the deterministic checks.
const (
	// groundingTokenRatio is the share of a value's tokens that must appear
	// in the narrative for the value to count as grounded.
	groundingTokenRatio = 0.5

	// amountCheckFloor is the smallest number worth verifying at all.
	amountCheckFloor = 1000

	// amountFlagFloor is the smallest ungrounded number that raises an issue.
	amountFlagFloor = 10000

	// earliestPlausibleYear bounds dates into the modern era.
	earliestPlausibleYear = 1920

	// futureYearSlack allows dates slightly past the current year, for
	// schedules like "employment ends 2027".
	futureYearSlack = 3
)

// placeholders are values the grounding check never questions.
var placeholders = map[string]bool{
	"present": true,
	"ongoing": true,
	"unknown": true,
	"n/a":     true,
	"none":    true,
	"null":    true,
}

var (
	numberRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	yearRe   = regexp.MustCompile(`\b(1[89]\d{2}|2\d{3})\b`)
)

// FindIssues runs the deterministic checks over every populated field of
// every entity. Pure: same input, same issues. At most one issue per field;
// the field's name selects which rule applies.
func FindIssues(entities []model.SourceEntity, narrative string) []model.ValidationIssue {
	var issues []model.ValidationIssue
	normNarrative := normalize(narrative)
	narrativeTokens := tokenSet(normNarrative)
	currentYear := time.Now().Year()

	for _, entity := range entities {
		names := make([]string, 0, len(entity.ExtractedFields))
		for name := range entity.ExtractedFields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := strings.TrimSpace(entity.ExtractedFields[name])
			if value == "" {
				continue
			}
			if issue := checkField(entity.SourceID, name, value, normNarrative, narrativeTokens, currentYear); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}
	return issues
}

// Field-name keywords that route a field to the amount or date rule instead
// of the grounding rule.
var (
	amountFieldKeywords = []string{"amount", "price", "proceeds", "value", "salary", "income", "compensation"}
	dateFieldKeywords   = []string{"date", "when", "year", "period"}
)

func isAmountField(name string) bool {
	return containsAny(name, amountFieldKeywords)
}

func isDateField(name string) bool {
	return containsAny(name, dateFieldKeywords)
}

// checkField routes a field to the one rule its name selects: monetary
// fields get the amount check, date fields the plausibility check, and
// everything else must be grounded in the narrative text.
func checkField(sourceID, name, value, normNarrative string, narrativeTokens map[string]bool, currentYear int) *model.ValidationIssue {
	switch {
	case isAmountField(name):
		return checkAmount(sourceID, name, value, normNarrative)
	case isDateField(name):
		return checkDate(sourceID, name, value, currentYear)
	default:
		return checkGrounding(sourceID, name, value, normNarrative, narrativeTokens)
	}
}

// checkGrounding verifies a textual value appears in the narrative.
func checkGrounding(sourceID, name, value, normNarrative string, narrativeTokens map[string]bool) *model.ValidationIssue {
	norm := normalize(value)
	if len(norm) < 4 || placeholders[norm] {
		return nil
	}
	if strings.Contains(normNarrative, norm) {
		return nil
	}

	// Fuzzy fallback: enough of the value's significant tokens must occur
	// somewhere in the narrative.
	tokens := significantTokens(norm)
	if len(tokens) > 0 {
		found := 0
		for _, tok := range tokens {
			if narrativeTokens[tok] {
				found++
			}
		}
		if float64(found)/float64(len(tokens)) >= groundingTokenRatio {
			return nil
		}
	}

	return &model.ValidationIssue{
		SourceID:     sourceID,
		FieldName:    name,
		IssueType:    model.IssueValueNotGrounded,
		Message:      "value does not appear in the narrative",
		CurrentValue: value,
	}
}

// checkAmount verifies that large numbers in a value are traceable to the
// narrative under any of its common renderings.
func checkAmount(sourceID, name, value, normNarrative string) *model.ValidationIssue {
	for _, raw := range numberRe.FindAllString(value, -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil || n < amountCheckFloor {
			continue
		}
		if amountGrounded(n, normNarrative) {
			continue
		}
		if n < amountFlagFloor {
			continue
		}
		return &model.ValidationIssue{
			SourceID:     sourceID,
			FieldName:    name,
			IssueType:    model.IssueAmountNotGrounded,
			Message:      fmt.Sprintf("amount %s not found in the narrative in any common format", raw),
			CurrentValue: value,
		}
	}
	return nil
}

// amountGrounded checks the narrative for any of the usual renderings of n:
// plain, comma-grouped, currency-prefixed, and k/million shorthand.
func amountGrounded(n float64, normNarrative string) bool {
	candidates := []string{
		strconv.FormatFloat(n, 'f', -1, 64),
		groupThousands(n),
		"£" + groupThousands(n),
	}
	if n >= 1000 && n == float64(int64(n)) && int64(n)%1000 == 0 {
		candidates = append(candidates, fmt.Sprintf("%dk", int64(n)/1000))
	}
	if n >= 1e6 {
		millions := n / 1e6
		candidates = append(candidates,
			strconv.FormatFloat(millions, 'f', -1, 64)+" million",
			strconv.FormatFloat(millions, 'f', -1, 64)+"m",
		)
	}
	for _, c := range candidates {
		if strings.Contains(normNarrative, c) {
			return true
		}
	}
	return false
}

// checkDate flags years outside the plausible declaration window.
func checkDate(sourceID, name, value string, currentYear int) *model.ValidationIssue {
	if strings.Contains(strings.ToLower(name), "historical") {
		return nil
	}
	for _, raw := range yearRe.FindAllString(value, -1) {
		year, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if year > currentYear+futureYearSlack || year < earliestPlausibleYear {
			return &model.ValidationIssue{
				SourceID:     sourceID,
				FieldName:    name,
				IssueType:    model.IssueImplausibleDate,
				Message:      fmt.Sprintf("year %d is outside the plausible range", year),
				CurrentValue: value,
			}
		}
	}
	return nil
}

// normalize lowercases and collapses whitespace for substring comparison.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// significantTokens returns the tokens of a normalized value that are long
// enough to be meaningful.
func significantTokens(norm string) []string {
	var out []string
	for _, tok := range strings.Fields(norm) {
		tok = strings.Trim(tok, ".,;:()'\"")
		if len(tok) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// tokenSet indexes the narrative's tokens for the fuzzy grounding fallback.
func tokenSet(norm string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(norm) {
		set[strings.Trim(tok, ".,;:()'\"")] = true
	}
	return set
}
