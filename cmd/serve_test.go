package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-kyc/sow-cli/internal/model"
)

func stubRun(result *model.ExtractionResult, err error) extractFunc {
	return func(ctx context.Context, caseID, narrative string) (*model.ExtractionResult, error) {
		return result, err
	}
}

func TestHealthz(t *testing.T) {
	router := newRouter(stubRun(nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestExtractEndpoint(t *testing.T) {
	result := &model.ExtractionResult{
		Metadata: model.ExtractionMetadata{CaseID: "case-1"},
		Summary:  model.ExtractionSummary{TotalSourcesIdentified: 2},
	}
	router := newRouter(stubRun(result, nil))

	body := `{"case_id":"case-1","narrative":"John Smith works at Acme Corp."}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var got model.ExtractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "case-1", got.Metadata.CaseID)
	assert.Equal(t, 2, got.Summary.TotalSourcesIdentified)
}

func TestExtractEndpointMissingNarrative(t *testing.T) {
	router := newRouter(stubRun(nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader(`{"case_id":"x"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "narrative is required")
}

func TestExtractEndpointInvalidBody(t *testing.T) {
	router := newRouter(stubRun(nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader("not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractEndpointPipelineError(t *testing.T) {
	router := newRouter(stubRun(nil, eris.New("model unreachable")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader(`{"narrative":"text"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "extraction failed")
}
