package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/model"
)

func flaggedEntityFixture(t *testing.T) ([]model.SourceEntity, []model.ValidationIssue) {
	t.Helper()
	property := entityFor(t, "SOW_001", model.SourceSaleOfProperty, model.PropertySaleFields{
		PropertyAddress: "14 Elm Road, Bristol",
		SaleDate:        "May 2022",
		SaleProceeds:    "£1,480,000",
	}.FieldMap())
	employment := entityFor(t, "SOW_002", model.SourceEmploymentIncome, model.EmploymentFields{
		EmployerName: "Acme Corp",
		JobTitle:     "Director",
	}.FieldMap())

	issues := []model.ValidationIssue{
		{SourceID: "SOW_001", FieldName: "sale_proceeds", IssueType: model.IssueAmountNotGrounded, CurrentValue: "£1,480,000"},
	}
	return []model.SourceEntity{property, employment}, issues
}

func TestResolveOneRequestPerFlaggedEntity(t *testing.T) {
	entities, issues := flaggedEntityFixture(t)
	ex := &fakeExtractor{
		resolveFn: func(review extract.EntityReview) ([]model.Correction, error) {
			return []model.Correction{{
				SourceID:  review.SourceID,
				FieldName: "sale_proceeds",
				Value:     "£480,000",
				Status:    model.CorrectionCorrected,
			}}, nil
		},
	}

	corrections, usage := Resolve(context.Background(), ex, "narrative", entities, issues, 2)

	require.Len(t, ex.reviews, 1)
	review := ex.reviews[0]
	assert.Equal(t, "SOW_001", review.SourceID)
	// Anchors are the verified fields only.
	anchorNames := make([]string, 0, len(review.Anchors))
	for _, a := range review.Anchors {
		anchorNames = append(anchorNames, a.Name)
	}
	assert.Equal(t, []string{"property_address", "sale_date"}, anchorNames)
	// The sibling digest names the other entity.
	require.Len(t, review.Siblings, 1)
	assert.Contains(t, review.Siblings[0], "SOW_002")

	c := corrections[model.FieldRef{SourceID: "SOW_001", FieldName: "sale_proceeds"}]
	assert.Equal(t, "£480,000", c.Value)
	assert.NotZero(t, usage.InputTokens)
}

func TestResolveFailureDegradesToUnresolved(t *testing.T) {
	entities, issues := flaggedEntityFixture(t)
	ex := &fakeExtractor{
		resolveFn: func(review extract.EntityReview) ([]model.Correction, error) {
			return nil, errors.New("boom")
		},
	}

	corrections, _ := Resolve(context.Background(), ex, "narrative", entities, issues, 2)
	c, ok := corrections[model.FieldRef{SourceID: "SOW_001", FieldName: "sale_proceeds"}]
	require.True(t, ok)
	assert.Equal(t, model.CorrectionUnresolved, c.Status)
	assert.Equal(t, "£1,480,000", c.Value)
}

func TestApplyCorrectionsCopyOnWrite(t *testing.T) {
	entities, _ := flaggedEntityFixture(t)
	corrections := map[model.FieldRef]model.Correction{
		{SourceID: "SOW_001", FieldName: "sale_proceeds"}: {
			SourceID:  "SOW_001",
			FieldName: "sale_proceeds",
			Value:     "£480,000",
			Status:    model.CorrectionCorrected,
		},
	}

	out := ApplyCorrections(entities, corrections)
	assert.Equal(t, "£480,000", out[0].ExtractedFields["sale_proceeds"])
	// The input entity is untouched.
	assert.Equal(t, "£1,480,000", entities[0].ExtractedFields["sale_proceeds"])
	// Untouched entities are passed through as-is.
	assert.Equal(t, entities[1], out[1])
}

func TestApplyCorrectionsIdempotent(t *testing.T) {
	entities, _ := flaggedEntityFixture(t)
	corrections := map[model.FieldRef]model.Correction{
		{SourceID: "SOW_001", FieldName: "sale_proceeds"}: {
			SourceID:  "SOW_001",
			FieldName: "sale_proceeds",
			Value:     "£480,000",
			Status:    model.CorrectionCorrected,
		},
	}

	once := ApplyCorrections(entities, corrections)
	twice := ApplyCorrections(once, corrections)
	assert.Equal(t, once, twice)
}

func TestApplyCorrectionsIgnoresConfirmedAndUnresolved(t *testing.T) {
	entities, _ := flaggedEntityFixture(t)
	corrections := map[model.FieldRef]model.Correction{
		{SourceID: "SOW_001", FieldName: "sale_proceeds"}: {
			SourceID: "SOW_001", FieldName: "sale_proceeds", Value: "£1,480,000", Status: model.CorrectionConfirmed,
		},
		{SourceID: "SOW_001", FieldName: "sale_date"}: {
			SourceID: "SOW_001", FieldName: "sale_date", Value: "", Status: model.CorrectionUnresolved,
		},
	}

	out := ApplyCorrections(entities, corrections)
	assert.Equal(t, entities, out)
}
