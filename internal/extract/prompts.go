package extract

import (
	"fmt"
	"strings"

	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/internal/schema"
)

// systemPreamble frames every request for a case. The narrative is appended
// to this block and cached, so all calls for one case share the cache entry.
const systemPreamble = `You are a compliance analyst reviewing a source-of-wealth declaration for KYC purposes. Work only from the case narrative below. Never invent facts that are not stated in the narrative.

CASE NARRATIVE:
`

const recordArrayPrompt = `Identify every distinct %s source of wealth declared in the case narrative.

%s
Return a JSON array. Each element is an object with exactly these keys (use "" for anything the narrative does not state):
%s

Rules:
- One object per distinct source. Return [] if the narrative declares none of this type.
- Copy values from the narrative verbatim where possible, including currency symbols.
- Do not include sources that belong to a different category.%s`

// typeGuidance carries the per-type extraction hints. These mirror the
// distinctions reviewers care about when categorizing declared wealth.
var typeGuidance = map[model.SourceType]string{
	model.SourceEmploymentIncome:  "Salaried or contracted work for an employer. Self-employment through the person's own company belongs under business income, not here.",
	model.SourceSaleOfProperty:    "Sales of real estate the person owned. Note how and when the property was originally acquired; inherited property sales must still be captured here as sales.",
	model.SourceBusinessIncome:    "Income drawn from a business the person owns or co-owns, including self-employment. Dividends from pure shareholdings belong under business dividends.",
	model.SourceBusinessDividends: "Dividend income from shareholdings. If the person actively runs the company and draws income, that is business income instead.",
	model.SourceSaleOfBusiness:    "Full or partial disposals of a business or shareholding. Capture who bought it and how the seller originally came to own it.",
	model.SourceSaleOfAsset:       "Sales of valuable assets other than real estate or businesses: vehicles, art, jewellery, collections.",
	model.SourceInheritance:       "Wealth received from a deceased person's estate. Capture the deceased's own source of wealth when stated.",
	model.SourceGift:              "Wealth given by a living person. If the giver is described as deceased, it is an inheritance, not a gift, but extract it here as stated and let review reconcile.",
	model.SourceDivorceSettlement: "Financial settlements from the dissolution of a marriage or civil partnership.",
	model.SourceLotteryWinnings:   "Lottery, prize draw, or gambling winnings. Capture any verification evidence mentioned.",
	model.SourceInsurancePayout:   "Payouts from insurance policies: life insurance, critical illness, property claims.",
}

// buildRecordPrompt renders the extraction prompt for one source type using
// the registry's field specs as the output schema.
func buildRecordPrompt(reg *schema.Registry, st model.SourceType, holder model.AccountHolder) (string, error) {
	fields, err := reg.RequiredFields(st)
	if err != nil {
		return "", err
	}

	var keys strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&keys, "  %q: %s", f.Name, f.Description)
		if len(f.Examples) > 0 {
			fmt.Fprintf(&keys, " (e.g. %q)", f.Examples[0])
		}
		keys.WriteString("\n")
	}

	guidance := typeGuidance[st]
	if guidance != "" {
		guidance = "Scope: " + guidance + "\n"
	}

	return fmt.Sprintf(recordArrayPrompt,
		reg.DisplayName(st),
		guidance,
		strings.TrimRight(keys.String(), "\n"),
		holderHint(holder),
	), nil
}

// holderHint renders the account-holder context block appended to record
// extraction prompts. Empty when no holder context is known yet.
func holderHint(holder model.AccountHolder) string {
	if holder.Name == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nAccount holder context: the declaration belongs to ")
	sb.WriteString(holder.Name)
	if holder.Type == model.AccountJoint && len(holder.Holders) > 0 {
		names := make([]string, 0, len(holder.Holders))
		for _, h := range holder.Holders {
			names = append(names, h.Name)
		}
		sb.WriteString(" (joint account: ")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(". Extract only sources of wealth attributed to the account holder(s).")
	return sb.String()
}

const metadataPrompt = `Extract the account-holder metadata from the case narrative.

Return a JSON object with exactly these keys:
  "account_holder_name": full name of the person whose wealth is declared, or "" if not stated
  "account_type": "individual" or "joint"
  "holders": array of {"name": ..., "role": ...} for joint accounts, [] otherwise
  "total_stated_net_worth": total net worth as stated in the narrative (e.g. "£1,800,000"), or "" if not stated
  "currency": ISO currency code implied by the narrative, or "GBP" if unclear`

const correctionPrompt = `One extracted source of wealth has fields that failed verification against the case narrative. Re-read the narrative and resolve each flagged field.

Source under review: %s (%s)
Description: %s

Verified fields (correct, use them to locate the right passage):
%s
Flagged fields:
%s
Other sources already extracted from this narrative (do NOT pull their facts into this source):
%s

For each flagged field return the value the narrative actually supports, with a short supporting quote. If the flagged value is right as extracted, mark it confirmed. If the narrative does not state it, mark it unresolved with an empty value.

Return a JSON object:
{"corrections": [{"field_name": ..., "value": ..., "status": "corrected"|"confirmed"|"unresolved", "supporting_quotes": [...]}]}`

const followUpPrompt = `Draft follow-up questions for the customer to close the gaps in their source-of-wealth declaration.

Extracted sources and their gaps:
%s

Rules:
- At most %d questions, ordered by compliance priority: unverified amounts and dates first, then missing names and relationships, then countries and percentages, then optional context.
- Each question must name the specific source it concerns (e.g. "Regarding the inheritance from Margaret Hale, ...").
- Skip gaps whose reason marks them as not applicable.
- Plain, polite customer-facing English.

Return a JSON object: {"questions": [...]}`
