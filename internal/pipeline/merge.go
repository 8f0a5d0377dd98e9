package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/internal/schema"
)

// reasonNotStated is the default reason attached to a missing required field.
const reasonNotStated = "Not stated in the narrative"

// reasonInheritedProperty explains why purchase details are absent for a
// property that was never bought.
const reasonInheritedProperty = "Not applicable (property was inherited, not purchased)"

// Merge flattens raw extractor output into identified, scored entities.
// Runs single-threaded: source ids are sequential in fixed type order then
// list order, so identical extractor output always yields identical ids no
// matter how the fan-out completed.
func Merge(results ResultsByType, reg *schema.Registry, holder model.AccountHolder) []model.SourceEntity {
	var entities []model.SourceEntity
	next := 1

	for _, st := range model.AllSourceTypes() {
		for _, record := range results[st] {
			entity := buildEntity(model.FormatSourceID(next), st, record.FieldMap(), reg)
			next++
			entities = append(entities, entity)
		}
	}

	crossReferenceBusinesses(entities)

	if holder.Type == model.AccountJoint {
		// Narrative-level attribution is not deterministically inferable;
		// leave AttributedTo for the reviewer unless a single holder is named.
		zap.L().Debug("merge: joint account, attribution left to review",
			zap.Int("holders", len(holder.Holders)))
	}

	return entities
}

func buildEntity(id string, st model.SourceType, fields map[string]string, reg *schema.Registry) model.SourceEntity {
	entity := model.SourceEntity{
		SourceID:        id,
		SourceType:      st,
		ExtractedFields: fields,
	}

	required, err := reg.FieldNames(st)
	if err != nil {
		// Unknown type cannot happen for records produced by the closed
		// union, but a registry gap must surface rather than pass silently.
		zap.L().Error("merge: registry lookup failed", zap.String("source_type", string(st)), zap.Error(err))
		entity.CompletenessScore = 0
		entity.MissingFields = append(entity.MissingFields, model.MissingField{
			FieldName: "required_fields",
			Reason:    "Field requirements could not be determined for this source type",
		})
		entity.ComplianceFlags = append(entity.ComplianceFlags, "Requirements unavailable for this source type; manual review required")
		return entity
	}

	populated := 0
	for _, name := range required {
		if strings.TrimSpace(fields[name]) != "" {
			populated++
			continue
		}
		entity.MissingFields = append(entity.MissingFields, model.MissingField{
			FieldName: name,
			Reason:    missingReason(st, name, fields),
		})
	}

	if len(required) == 0 {
		entity.CompletenessScore = 1.0
	} else {
		entity.CompletenessScore = float64(populated) / float64(len(required))
	}

	entity.Description = describe(st, fields)
	entity.ComplianceFlags = append(entity.ComplianceFlags, complianceFlags(st, fields)...)
	return entity
}

// missingReason picks the reason recorded for an absent required field.
func missingReason(st model.SourceType, field string, fields map[string]string) string {
	if st == model.SourceSaleOfProperty && field == "original_purchase_price" {
		if strings.Contains(strings.ToLower(fields["original_acquisition_method"]), "inherit") {
			return reasonInheritedProperty
		}
	}
	return reasonNotStated
}

// describe renders a short human label for the entity from its populated
// fields, falling back to the title-cased type name.
func describe(st model.SourceType, fields map[string]string) string {
	pick := func(name string) string { return strings.TrimSpace(fields[name]) }

	switch st {
	case model.SourceEmploymentIncome:
		if t, e := pick("job_title"), pick("employer_name"); t != "" && e != "" {
			return fmt.Sprintf("%s at %s", t, e)
		} else if e != "" {
			return "Employment at " + e
		}
	case model.SourceSaleOfProperty:
		if a := pick("property_address"); a != "" {
			return "Sale of property at " + a
		}
	case model.SourceBusinessIncome:
		if b := pick("business_name"); b != "" {
			return "Income from " + b
		}
	case model.SourceBusinessDividends:
		if c := pick("company_name"); c != "" {
			return "Dividends from " + c
		}
	case model.SourceSaleOfBusiness:
		if b := pick("business_name"); b != "" {
			return "Sale of " + b
		}
	case model.SourceSaleOfAsset:
		if a := pick("asset_description"); a != "" {
			return "Sale of " + a
		}
	case model.SourceInheritance:
		if d := pick("deceased_name"); d != "" {
			return "Inheritance from " + d
		}
	case model.SourceGift:
		if d := pick("donor_name"); d != "" {
			return "Gift from " + d
		}
	case model.SourceDivorceSettlement:
		if s := pick("former_spouse_name"); s != "" {
			return "Divorce settlement from " + s
		}
	case model.SourceLotteryWinnings:
		if l := pick("lottery_name"); l != "" {
			return l + " win"
		}
	case model.SourceInsurancePayout:
		if p := pick("insurance_provider"); p != "" {
			return "Insurance payout from " + p
		}
	}
	return st.DisplayName()
}

// Vocabulary the compliance heuristics scan for.
var (
	loanLanguage          = []string{"loan", "repay", "paid back", "thank you", "extra", "owe", "debt"}
	approximateQualifiers = []string{"around", "approximately", "about", "roughly", "~"}
	earnoutLanguage       = []string{"pending", "expected", "subject to", "earnout"}
	vagueCompensation     = []string{"good", "decent", "reasonable", "high"}
)

func containsAny(value string, words []string) bool {
	value = strings.ToLower(value)
	for _, w := range words {
		if strings.Contains(value, w) {
			return true
		}
	}
	return false
}

// complianceFlags applies the per-type heuristics that mark an entity for
// closer review.
func complianceFlags(st model.SourceType, fields map[string]string) []string {
	var flags []string

	switch st {
	case model.SourceGift:
		for _, name := range []string{"reason_for_gift", "donor_source_of_wealth"} {
			if containsAny(fields[name], loanLanguage) {
				flags = append(flags, "Gift may actually be a loan: repayment language detected in "+name)
				break
			}
		}
		if containsAny(fields["gift_value"], approximateQualifiers) {
			flags = append(flags, "Gift value is approximate; exact amount needs confirmation")
		}
	case model.SourceInheritance:
		if containsAny(fields["amount_inherited"], approximateQualifiers) {
			flags = append(flags, "Inherited amount is approximate; exact amount needs confirmation")
		}
	case model.SourceDivorceSettlement:
		if containsAny(fields["settlement_amount"], approximateQualifiers) {
			flags = append(flags, "Settlement amount is approximate; exact amount needs confirmation")
		}
	case model.SourceSaleOfBusiness:
		if containsAny(fields["sale_proceeds"], earnoutLanguage) {
			flags = append(flags, "Sale proceeds may include contingent or earnout components")
		}
	case model.SourceLotteryWinnings:
		if strings.TrimSpace(fields["verification_details"]) == "" {
			flags = append(flags, "Lottery win lacks verification evidence")
		}
	case model.SourceEmploymentIncome:
		comp := strings.ToLower(fields["annual_compensation"])
		if comp != "" && !strings.ContainsAny(comp, "0123456789") && containsAny(comp, vagueCompensation) {
			flags = append(flags, "Compensation described qualitatively; a figure is required")
		}
	}

	return flags
}

// crossReferenceBusinesses records a note on business income and dividend
// entities that name the same business.
func crossReferenceBusinesses(entities []model.SourceEntity) {
	nameOf := func(e model.SourceEntity) string {
		switch e.SourceType {
		case model.SourceBusinessIncome:
			return strings.TrimSpace(e.ExtractedFields["business_name"])
		case model.SourceBusinessDividends:
			return strings.TrimSpace(e.ExtractedFields["company_name"])
		default:
			return ""
		}
	}

	for i := range entities {
		a := nameOf(entities[i])
		if a == "" {
			continue
		}
		for j := i + 1; j < len(entities); j++ {
			if entities[i].SourceType == entities[j].SourceType {
				continue
			}
			b := nameOf(entities[j])
			if b == "" || !namesMatch(a, b) {
				continue
			}
			entities[i].DeduplicationNote = fmt.Sprintf("Related to %s (same business: %s)", entities[j].SourceID, b)
			entities[j].DeduplicationNote = fmt.Sprintf("Related to %s (same business: %s)", entities[i].SourceID, a)
		}
	}
}
