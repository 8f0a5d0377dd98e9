package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-kyc/sow-cli/internal/model"
)

func TestMergeCompletenessScore(t *testing.T) {
	reg := mustRegistry(t)
	results := ResultsByType{
		model.SourceEmploymentIncome: {model.EmploymentFields{
			EmployerName:        "Acme Corp",
			JobTitle:            "Director",
			EmploymentStartDate: "2015",
			EmploymentEndDate:   "Present",
			AnnualCompensation:  "£85,000",
			CountryOfEmployment: "United Kingdom",
		}},
		model.SourceGift: {model.GiftFields{DonorName: "Robert Hale", GiftValue: "£50,000"}},
	}

	entities := Merge(results, reg, model.AccountHolder{})
	require.Len(t, entities, 2)

	full := entities[0]
	assert.Equal(t, 1.0, full.CompletenessScore)
	assert.Empty(t, full.MissingFields)

	partial := entities[1]
	assert.InDelta(t, 2.0/6.0, partial.CompletenessScore, 0.001)
	assert.Len(t, partial.MissingFields, 4)
	for _, m := range partial.MissingFields {
		assert.Equal(t, reasonNotStated, m.Reason)
	}
}

func TestMergeScoreOneExactlyWhenNothingMissing(t *testing.T) {
	reg := mustRegistry(t)
	results := ResultsByType{
		model.SourceGift: {
			model.GiftFields{DonorName: "A", RelationshipToDonor: "mother", GiftDate: "2021", GiftValue: "£1,000", DonorSourceOfWealth: "savings", ReasonForGift: "deposit"},
			model.GiftFields{DonorName: "B"},
		},
	}
	entities := Merge(results, reg, model.AccountHolder{})
	require.Len(t, entities, 2)

	assert.Equal(t, 1.0, entities[0].CompletenessScore)
	assert.Empty(t, entities[0].MissingFields)
	assert.Less(t, entities[1].CompletenessScore, 1.0)
	assert.NotEmpty(t, entities[1].MissingFields)
}

func TestBuildEntityUnknownTypeRecordsMissing(t *testing.T) {
	// A zero score must come with missing-field bookkeeping, or the
	// summary would count the entity as fully complete.
	entity := buildEntity("SOW_001", model.SourceType("bogus"), map[string]string{"field": "value"}, mustRegistry(t))

	assert.Equal(t, 0.0, entity.CompletenessScore)
	require.NotEmpty(t, entity.MissingFields)
	assert.Equal(t, "required_fields", entity.MissingFields[0].FieldName)
	require.NotEmpty(t, entity.ComplianceFlags)
	assert.Contains(t, entity.ComplianceFlags[0], "manual review")
}

func TestMergeInheritedPropertyReason(t *testing.T) {
	reg := mustRegistry(t)
	results := ResultsByType{
		model.SourceSaleOfProperty: {model.PropertySaleFields{
			PropertyAddress:           "14 Elm Road, Bristol",
			OriginalAcquisitionMethod: "inherited from father",
		}},
	}
	entities := Merge(results, reg, model.AccountHolder{})
	require.Len(t, entities, 1)

	var reason string
	for _, m := range entities[0].MissingFields {
		if m.FieldName == "original_purchase_price" {
			reason = m.Reason
		}
	}
	assert.Equal(t, reasonInheritedProperty, reason)
}

func TestMergeDescriptions(t *testing.T) {
	cases := []struct {
		st     model.SourceType
		record model.Record
		want   string
	}{
		{model.SourceEmploymentIncome, model.EmploymentFields{JobTitle: "Director", EmployerName: "Acme Corp"}, "Director at Acme Corp"},
		{model.SourceSaleOfProperty, model.PropertySaleFields{PropertyAddress: "14 Elm Road"}, "Sale of property at 14 Elm Road"},
		{model.SourceInheritance, model.InheritanceFields{DeceasedName: "Margaret Hale"}, "Inheritance from Margaret Hale"},
		{model.SourceGift, model.GiftFields{DonorName: "Robert Hale"}, "Gift from Robert Hale"},
		{model.SourceLotteryWinnings, model.LotteryWinningsFields{LotteryName: "National Lottery"}, "National Lottery win"},
		// No identifying field: falls back to the type name.
		{model.SourceDivorceSettlement, model.DivorceSettlementFields{SettlementAmount: "£400,000"}, "Divorce Settlement"},
	}

	reg := mustRegistry(t)
	for _, tc := range cases {
		entities := Merge(ResultsByType{tc.st: {tc.record}}, reg, model.AccountHolder{})
		require.Len(t, entities, 1)
		assert.Equal(t, tc.want, entities[0].Description, string(tc.st))
	}
}

func TestComplianceFlagGiftLoanLanguage(t *testing.T) {
	entity := entityFor(t, "SOW_001", model.SourceGift, model.GiftFields{
		DonorName:     "Robert Hale",
		GiftValue:     "£50,000",
		ReasonForGift: "to be paid back when the house sells",
	}.FieldMap())
	require.Len(t, entity.ComplianceFlags, 1)
	assert.Contains(t, entity.ComplianceFlags[0], "loan")
}

func TestComplianceFlagApproximateAmounts(t *testing.T) {
	gift := entityFor(t, "SOW_001", model.SourceGift, model.GiftFields{
		DonorName: "A", GiftValue: "around £50,000",
	}.FieldMap())
	assert.NotEmpty(t, gift.ComplianceFlags)

	inheritance := entityFor(t, "SOW_002", model.SourceInheritance, model.InheritanceFields{
		DeceasedName: "B", AmountInherited: "approximately £250,000",
	}.FieldMap())
	assert.NotEmpty(t, inheritance.ComplianceFlags)

	settlement := entityFor(t, "SOW_003", model.SourceDivorceSettlement, model.DivorceSettlementFields{
		FormerSpouseName: "C", SettlementAmount: "~£400,000",
	}.FieldMap())
	assert.NotEmpty(t, settlement.ComplianceFlags)
}

func TestComplianceFlagEarnout(t *testing.T) {
	entity := entityFor(t, "SOW_001", model.SourceSaleOfBusiness, model.BusinessSaleFields{
		BusinessName: "Harper Ltd",
		SaleProceeds: "£2 million plus £500,000 subject to performance targets",
	}.FieldMap())
	require.Len(t, entity.ComplianceFlags, 1)
	assert.Contains(t, entity.ComplianceFlags[0], "earnout")
}

func TestComplianceFlagLotteryVerification(t *testing.T) {
	unverified := entityFor(t, "SOW_001", model.SourceLotteryWinnings, model.LotteryWinningsFields{
		LotteryName: "National Lottery", GrossAmountWon: "£1,000,000",
	}.FieldMap())
	require.Len(t, unverified.ComplianceFlags, 1)
	assert.Contains(t, unverified.ComplianceFlags[0], "verification")

	verified := entityFor(t, "SOW_002", model.SourceLotteryWinnings, model.LotteryWinningsFields{
		LotteryName: "National Lottery", VerificationDetails: "Camelot confirmation letter",
	}.FieldMap())
	assert.Empty(t, verified.ComplianceFlags)
}

func TestComplianceFlagVagueCompensation(t *testing.T) {
	vague := entityFor(t, "SOW_001", model.SourceEmploymentIncome, model.EmploymentFields{
		EmployerName: "Acme Corp", AnnualCompensation: "a good salary",
	}.FieldMap())
	require.Len(t, vague.ComplianceFlags, 1)

	numeric := entityFor(t, "SOW_002", model.SourceEmploymentIncome, model.EmploymentFields{
		EmployerName: "Acme Corp", AnnualCompensation: "£85,000 which was high for the sector",
	}.FieldMap())
	assert.Empty(t, numeric.ComplianceFlags)
}

func TestMergeCrossReferencesBusinesses(t *testing.T) {
	reg := mustRegistry(t)
	results := ResultsByType{
		model.SourceBusinessIncome:    {model.BusinessIncomeFields{BusinessName: "Harper Consulting Ltd"}},
		model.SourceBusinessDividends: {model.BusinessDividendsFields{CompanyName: "Harper Consulting Ltd"}},
	}
	entities := Merge(results, reg, model.AccountHolder{})
	require.Len(t, entities, 2)
	assert.Contains(t, entities[0].DeduplicationNote, entities[1].SourceID)
	assert.Contains(t, entities[1].DeduplicationNote, entities[0].SourceID)
}

func TestMergeEmptyResults(t *testing.T) {
	entities := Merge(ResultsByType{}, mustRegistry(t), model.AccountHolder{})
	assert.Empty(t, entities)
}
