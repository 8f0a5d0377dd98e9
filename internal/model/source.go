package model

import (
	"fmt"
	"strings"
)

// SourceType identifies one of the eleven recognized source-of-wealth kinds.
// The set is closed: adding a kind requires both an extractor and a schema
// registry entry.
type SourceType string

const (
	SourceEmploymentIncome  SourceType = "employment_income"
	SourceSaleOfProperty    SourceType = "sale_of_property"
	SourceBusinessIncome    SourceType = "business_income"
	SourceBusinessDividends SourceType = "business_dividends"
	SourceSaleOfBusiness    SourceType = "sale_of_business"
	SourceSaleOfAsset       SourceType = "sale_of_asset"
	SourceInheritance       SourceType = "inheritance"
	SourceGift              SourceType = "gift"
	SourceDivorceSettlement SourceType = "divorce_settlement"
	SourceLotteryWinnings   SourceType = "lottery_winnings"
	SourceInsurancePayout   SourceType = "insurance_payout"
)

// AllSourceTypes returns every known source type in a fixed order. Dispatch
// results and source_id assignment iterate in this order, so it must stay
// stable across runs.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceEmploymentIncome,
		SourceSaleOfProperty,
		SourceBusinessIncome,
		SourceBusinessDividends,
		SourceSaleOfBusiness,
		SourceSaleOfAsset,
		SourceInheritance,
		SourceGift,
		SourceDivorceSettlement,
		SourceLotteryWinnings,
		SourceInsurancePayout,
	}
}

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	for _, known := range AllSourceTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable rendering of the type identifier,
// e.g. "Employment Income".
func (t SourceType) DisplayName() string {
	return titleCase(strings.ReplaceAll(string(t), "_", " "))
}

// AccountType distinguishes individual from joint accounts.
type AccountType string

const (
	AccountIndividual AccountType = "individual"
	AccountJoint      AccountType = "joint"
)

// Holder is one named holder on a joint account.
type Holder struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// AccountHolder carries the identity context extracted once per narrative and
// passed read-only to every extractor.
type AccountHolder struct {
	Name    string      `json:"name"`
	Type    AccountType `json:"type"`
	Holders []Holder    `json:"holders,omitempty"`
}

// ExtractionMetadata is the side-channel context for a single extraction run.
type ExtractionMetadata struct {
	CaseID              string        `json:"case_id,omitempty"`
	AccountHolder       AccountHolder `json:"account_holder"`
	TotalStatedNetWorth *float64      `json:"total_stated_net_worth"`
	Currency            string        `json:"currency"`
}

// MissingField records one required field a source entity lacks.
type MissingField struct {
	FieldName         string `json:"field_name"`
	Reason            string `json:"reason"`
	PartiallyAnswered bool   `json:"partially_answered"`
}

// SourceEntity is one structured, scored record of a single wealth event.
// Entities are treated as immutable values: corrections and merges produce a
// replacement entity, never an in-place edit.
type SourceEntity struct {
	SourceID           string            `json:"source_id"`
	SourceType         SourceType        `json:"source_type"`
	Description        string            `json:"description"`
	ExtractedFields    map[string]string `json:"extracted_fields"`
	MissingFields      []MissingField    `json:"missing_fields"`
	CompletenessScore  float64           `json:"completeness_score"`
	AttributedTo       string            `json:"attributed_to,omitempty"`
	ComplianceFlags    []string          `json:"compliance_flags,omitempty"`
	OverlappingSources []string          `json:"overlapping_sources,omitempty"`
	DeduplicationNote  string            `json:"deduplication_note,omitempty"`
}

// Clone returns a deep copy suitable for copy-on-write updates.
func (s SourceEntity) Clone() SourceEntity {
	out := s
	out.ExtractedFields = make(map[string]string, len(s.ExtractedFields))
	for k, v := range s.ExtractedFields {
		out.ExtractedFields[k] = v
	}
	out.MissingFields = append([]MissingField(nil), s.MissingFields...)
	out.ComplianceFlags = append([]string(nil), s.ComplianceFlags...)
	out.OverlappingSources = append([]string(nil), s.OverlappingSources...)
	return out
}

// Field returns the value of a populated extracted field, or "".
func (s SourceEntity) Field(name string) string {
	return s.ExtractedFields[name]
}

// SourceIDFormat is the template for assigned entity identifiers.
const SourceIDFormat = "SOW_%03d"

// FormatSourceID renders the nth sequential source identifier.
func FormatSourceID(n int) string {
	return fmt.Sprintf(SourceIDFormat, n)
}

// IssueType classifies a deterministic validation finding.
type IssueType string

const (
	IssueValueNotGrounded  IssueType = "value_not_grounded"
	IssueAmountNotGrounded IssueType = "amount_not_grounded"
	IssueImplausibleDate   IssueType = "implausible_date"
)

// ValidationIssue flags one (entity, field) pair for adaptive review. Issues
// are consumed entirely within a single pipeline run.
type ValidationIssue struct {
	SourceID     string    `json:"source_id"`
	FieldName    string    `json:"field_name"`
	IssueType    IssueType `json:"issue_type"`
	Message      string    `json:"message"`
	CurrentValue string    `json:"current_value"`
}

// CorrectionStatus describes the outcome of adaptive re-examination of one
// flagged field.
type CorrectionStatus string

const (
	CorrectionCorrected  CorrectionStatus = "corrected"
	CorrectionConfirmed  CorrectionStatus = "confirmed"
	CorrectionUnresolved CorrectionStatus = "unresolved"
)

// FieldRef addresses a single field on a single entity.
type FieldRef struct {
	SourceID  string
	FieldName string
}

// Correction is the adaptive validator's verdict for one flagged field. A
// correction is material only when Status is CorrectionCorrected; applying it
// twice is a no-op.
type Correction struct {
	SourceID         string           `json:"source_id"`
	FieldName        string           `json:"field_name"`
	Value            string           `json:"value"`
	Status           CorrectionStatus `json:"status"`
	SupportingQuotes []string         `json:"supporting_quotes,omitempty"`
}

// ExtractionSummary aggregates completeness statistics. Recomputed from the
// current entity list on every run; an empty list scores 1.0 by convention.
type ExtractionSummary struct {
	TotalSourcesIdentified   int     `json:"total_sources_identified"`
	FullyCompleteSources     int     `json:"fully_complete_sources"`
	SourcesWithMissingFields int     `json:"sources_with_missing_fields"`
	OverallCompletenessScore float64 `json:"overall_completeness_score"`
}

// TokenUsage tracks LLM token consumption across pipeline stages.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// Add accumulates usage from another stage.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}

// ExtractionResult is the full output contract any consumer depends on.
// Field names are stable for compatibility.
type ExtractionResult struct {
	Metadata                     ExtractionMetadata `json:"metadata"`
	SourcesOfWealth              []SourceEntity     `json:"sources_of_wealth"`
	Summary                      ExtractionSummary  `json:"summary"`
	RecommendedFollowUpQuestions []string           `json:"recommended_follow_up_questions"`
	Degraded                     bool               `json:"degraded,omitempty"`
	TokenUsage                   TokenUsage         `json:"token_usage"`
}
