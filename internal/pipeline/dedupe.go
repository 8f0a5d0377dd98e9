package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/internal/schema"
)

// nameOverlapThreshold is the share of name tokens that must match for two
// differently-written names to be treated as the same person.
const nameOverlapThreshold = 0.7

// honorifics are stripped before name comparison.
var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true,
	"the": true, "late": true, "deceased": true,
}

// deathVocabulary marks a gift description as actually talking about an
// estate.
var deathVocabulary = []string{
	"passed", "died", "death", "deceased", "late", "will",
	"estate", "inherited", "beneficiary",
}

// Deduplicate removes entities that describe the same underlying wealth
// event: gifts that restate an inheritance, and split inheritances from the
// same deceased. Surviving entities keep their original ids; removed ids are
// never reassigned. Idempotent.
func Deduplicate(entities []model.SourceEntity, reg *schema.Registry) []model.SourceEntity {
	entities = suppressGiftInheritanceDuplicates(entities)
	return consolidateInheritances(entities, reg)
}

// suppressGiftInheritanceDuplicates drops gift entities whose donor is a
// deceased person already covered by an inheritance entity.
func suppressGiftInheritanceDuplicates(entities []model.SourceEntity) []model.SourceEntity {
	out := make([]model.SourceEntity, 0, len(entities))

	for _, entity := range entities {
		if entity.SourceType != model.SourceGift {
			out = append(out, entity)
			continue
		}

		donor := entity.ExtractedFields["donor_name"]
		inheritance := findInheritanceFor(entities, donor)
		if inheritance == nil || !giftMentionsDeath(entity) {
			out = append(out, entity)
			continue
		}

		zap.L().Info("dedupe: gift suppressed as inheritance duplicate",
			zap.String("gift", entity.SourceID),
			zap.String("inheritance", inheritance.SourceID),
			zap.String("donor", donor),
		)
		// Record the suppression on the surviving inheritance.
		for i := range out {
			if out[i].SourceID == inheritance.SourceID {
				merged := out[i].Clone()
				merged.DeduplicationNote = appendNote(merged.DeduplicationNote,
					fmt.Sprintf("Absorbed %s (gift from %s restates this inheritance)", entity.SourceID, donor))
				out[i] = merged
			}
		}
	}
	return out
}

func findInheritanceFor(entities []model.SourceEntity, donor string) *model.SourceEntity {
	if strings.TrimSpace(donor) == "" {
		return nil
	}
	for i := range entities {
		if entities[i].SourceType != model.SourceInheritance {
			continue
		}
		if namesMatch(donor, entities[i].ExtractedFields["deceased_name"]) {
			return &entities[i]
		}
	}
	return nil
}

func giftMentionsDeath(gift model.SourceEntity) bool {
	for _, name := range []string{"reason_for_gift", "relationship_to_donor", "donor_source_of_wealth"} {
		if containsAny(gift.ExtractedFields[name], deathVocabulary) {
			return true
		}
	}
	return false
}

// consolidateInheritances merges inheritance entities naming the same
// deceased person into the first occurrence.
func consolidateInheritances(entities []model.SourceEntity, reg *schema.Registry) []model.SourceEntity {
	out := make([]model.SourceEntity, 0, len(entities))
	absorbed := make(map[string]bool)

	for i := range entities {
		entity := entities[i]
		if absorbed[entity.SourceID] {
			continue
		}
		if entity.SourceType != model.SourceInheritance {
			out = append(out, entity)
			continue
		}

		merged := entity
		for j := i + 1; j < len(entities); j++ {
			other := entities[j]
			if other.SourceType != model.SourceInheritance || absorbed[other.SourceID] {
				continue
			}
			if !namesMatch(merged.ExtractedFields["deceased_name"], other.ExtractedFields["deceased_name"]) {
				continue
			}
			merged = mergeInheritance(merged, other, reg)
			absorbed[other.SourceID] = true
			zap.L().Info("dedupe: inheritances consolidated",
				zap.String("kept", merged.SourceID),
				zap.String("absorbed", other.SourceID),
			)
		}
		out = append(out, merged)
	}
	return out
}

// mergeInheritance folds b into a, keeping a's id.
func mergeInheritance(a, b model.SourceEntity, reg *schema.Registry) model.SourceEntity {
	merged := a.Clone()

	// Prefer a's values; take b's where a has none. Assets concatenate and
	// amounts sum.
	for name, bVal := range b.ExtractedFields {
		bVal = strings.TrimSpace(bVal)
		if bVal == "" {
			continue
		}
		aVal := strings.TrimSpace(merged.ExtractedFields[name])
		switch {
		case aVal == "":
			merged.ExtractedFields[name] = bVal
		case name == "nature_of_inherited_assets" && !strings.EqualFold(aVal, bVal):
			merged.ExtractedFields[name] = aVal + "; " + bVal
		case name == "amount_inherited":
			if sum := sumAmounts(aVal, bVal); sum != "" {
				merged.ExtractedFields[name] = sum
			}
		}
	}

	// A field missing from both stays missing; one populated side clears it.
	merged.MissingFields = nil
	required, err := reg.FieldNames(model.SourceInheritance)
	if err == nil {
		populated := 0
		for _, name := range required {
			if strings.TrimSpace(merged.ExtractedFields[name]) != "" {
				populated++
				continue
			}
			merged.MissingFields = append(merged.MissingFields, model.MissingField{
				FieldName: name,
				Reason:    reasonNotStated,
			})
		}
		if len(required) > 0 {
			merged.CompletenessScore = float64(populated) / float64(len(required))
		}
	}

	merged.ComplianceFlags = unionStrings(merged.ComplianceFlags, b.ComplianceFlags)
	merged.DeduplicationNote = appendNote(merged.DeduplicationNote,
		fmt.Sprintf("Consolidated with %s (same deceased: %s)", b.SourceID, merged.ExtractedFields["deceased_name"]))
	return merged
}

// sumAmounts adds two monetary strings, tolerating £, commas, and
// million/thousand shorthand. Returns "" when either side is unparseable.
func sumAmounts(a, b string) string {
	av, bv := extract.ParseAmount(a), extract.ParseAmount(b)
	if av == nil || bv == nil {
		return ""
	}
	return fmt.Sprintf("£%s (combined)", groupThousands(*av+*bv))
}

// LinkOverlaps records non-destructive cross-references between entities
// that describe connected events: an inheritance and a life insurance payout
// for the same death, or multiple entities built on the same business.
func LinkOverlaps(entities []model.SourceEntity) []model.SourceEntity {
	out := make([]model.SourceEntity, len(entities))
	for i := range entities {
		out[i] = entities[i].Clone()
	}

	link := func(i, j int, note string) {
		out[i].OverlappingSources = unionStrings(out[i].OverlappingSources, []string{out[j].SourceID})
		out[j].OverlappingSources = unionStrings(out[j].OverlappingSources, []string{out[i].SourceID})
		if note != "" {
			out[i].DeduplicationNote = appendNote(out[i].DeduplicationNote, note)
		}
	}

	for i := range out {
		for j := i + 1; j < len(out); j++ {
			a, b := out[i], out[j]

			// Inheritance and a life insurance payout for the same death.
			if a.SourceType == model.SourceInheritance && b.SourceType == model.SourceInsurancePayout &&
				lifePolicyCoversDeceased(b, a.ExtractedFields["deceased_name"]) {
				link(i, j, fmt.Sprintf("Overlaps %s (life insurance for the same death)", b.SourceID))
				continue
			}
			if b.SourceType == model.SourceInheritance && a.SourceType == model.SourceInsurancePayout &&
				lifePolicyCoversDeceased(a, b.ExtractedFields["deceased_name"]) {
				link(j, i, fmt.Sprintf("Overlaps %s (life insurance for the same death)", a.SourceID))
				continue
			}

			// The same business appearing under different source types.
			if an, bn := businessName(a), businessName(b); an != "" && bn != "" &&
				a.SourceType != b.SourceType && namesMatch(an, bn) {
				link(i, j, "")
			}
		}
	}
	return out
}

func lifePolicyCoversDeceased(payout model.SourceEntity, deceased string) bool {
	if strings.TrimSpace(deceased) == "" {
		return false
	}
	if !strings.Contains(strings.ToLower(payout.ExtractedFields["policy_type"]), "life") {
		return false
	}
	claim := normalize(payout.ExtractedFields["claim_event_description"])
	for _, part := range nameTokens(deceased) {
		if strings.Contains(claim, part) {
			return true
		}
	}
	return false
}

func businessName(e model.SourceEntity) string {
	switch e.SourceType {
	case model.SourceBusinessIncome, model.SourceSaleOfBusiness:
		return strings.TrimSpace(e.ExtractedFields["business_name"])
	case model.SourceBusinessDividends:
		return strings.TrimSpace(e.ExtractedFields["company_name"])
	default:
		return ""
	}
}

// namesMatch compares two personal or business names: exact after
// normalization, one containing the other, or enough token overlap with
// initial-aware matching ("J. Smith" vs "John Smith").
func namesMatch(a, b string) bool {
	at, bt := nameTokens(a), nameTokens(b)
	if len(at) == 0 || len(bt) == 0 {
		return false
	}
	an, bn := strings.Join(at, " "), strings.Join(bt, " ")
	if an == bn || strings.Contains(an, bn) || strings.Contains(bn, an) {
		return true
	}

	shorter, longer := at, bt
	if len(bt) < len(at) {
		shorter, longer = bt, at
	}
	matched := 0
	for _, s := range shorter {
		for _, l := range longer {
			if tokensEquivalent(s, l) {
				matched++
				break
			}
		}
	}
	return float64(matched)/float64(len(shorter)) >= nameOverlapThreshold
}

// tokensEquivalent treats an initial as matching any name starting with it.
func tokensEquivalent(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) == 1 {
		return strings.HasPrefix(b, a)
	}
	if len(b) == 1 {
		return strings.HasPrefix(a, b)
	}
	return false
}

// nameTokens normalizes a name into comparable tokens, dropping honorifics
// and punctuation.
func nameTokens(name string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		tok = strings.Trim(tok, ".,'\"")
		if tok == "" || honorifics[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	if strings.Contains(existing, note) {
		return existing
	}
	return existing + "; " + note
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// groupThousands renders 1250000 as "1,250,000".
func groupThousands(n float64) string {
	whole := int64(n)
	s := fmt.Sprintf("%d", whole)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}
