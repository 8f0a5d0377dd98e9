package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-kyc/sow-cli/internal/model"
)

func TestDispatchMapAlwaysComplete(t *testing.T) {
	ex := &fakeExtractor{
		records: map[model.SourceType][]model.Record{
			model.SourceEmploymentIncome: {model.EmploymentFields{EmployerName: "Acme Corp"}},
			model.SourceGift:             {model.GiftFields{DonorName: "Robert Hale"}},
		},
		recordsErr: map[model.SourceType]error{
			model.SourceInheritance: errors.New("boom"),
		},
	}

	results, usage, failed := Dispatch(context.Background(), ex, "narrative", model.AccountHolder{}, 4)

	assert.Len(t, results, len(model.AllSourceTypes()))
	for _, st := range model.AllSourceTypes() {
		_, ok := results[st]
		assert.True(t, ok, "missing key %s", st)
	}
	assert.Equal(t, 1, failed)
	assert.Empty(t, results[model.SourceInheritance])
	assert.Len(t, results[model.SourceEmploymentIncome], 1)
	assert.Equal(t, int64(110), usage.InputTokens)
}

func TestDispatchThenMergeIDsIgnoreCompletionOrder(t *testing.T) {
	records := map[model.SourceType][]model.Record{
		model.SourceEmploymentIncome: {model.EmploymentFields{EmployerName: "Acme Corp", JobTitle: "Director"}},
		model.SourceInheritance:      {model.InheritanceFields{DeceasedName: "Margaret Hale"}},
		model.SourceGift:             {model.GiftFields{DonorName: "Robert Hale"}},
	}

	// Employment finishes last, inheritance first; ids must still follow
	// the fixed type order.
	ex := &fakeExtractor{
		records: records,
		delays: map[model.SourceType]time.Duration{
			model.SourceEmploymentIncome: 30 * time.Millisecond,
			model.SourceGift:             15 * time.Millisecond,
		},
	}

	results, _, failed := Dispatch(context.Background(), ex, "narrative", model.AccountHolder{}, 11)
	require.Zero(t, failed)

	entities := Merge(results, mustRegistry(t), model.AccountHolder{})
	require.Len(t, entities, 3)
	assert.Equal(t, "SOW_001", entities[0].SourceID)
	assert.Equal(t, model.SourceEmploymentIncome, entities[0].SourceType)
	assert.Equal(t, "SOW_002", entities[1].SourceID)
	assert.Equal(t, model.SourceInheritance, entities[1].SourceType)
	assert.Equal(t, "SOW_003", entities[2].SourceID)
	assert.Equal(t, model.SourceGift, entities[2].SourceType)
}

func TestDispatchRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &fakeExtractor{
		delays: map[model.SourceType]time.Duration{
			model.SourceEmploymentIncome: time.Second,
		},
	}
	results, _, _ := Dispatch(ctx, ex, "narrative", model.AccountHolder{}, 2)
	assert.Len(t, results, len(model.AllSourceTypes()))
}
