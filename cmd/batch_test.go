package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-kyc/sow-cli/internal/model"
)

func TestListNarrativesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.md", "ignore.pdf", "notes.doc"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))

	files, err := listNarratives(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.md"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.txt"), files[1])
}

func TestCaseIDFromPath(t *testing.T) {
	assert.Equal(t, "case-042", caseIDFromPath("/data/narratives/case-042.txt"))
	assert.Equal(t, "declaration", caseIDFromPath("declaration.md"))
}

func TestOutPathFor(t *testing.T) {
	assert.Equal(t, "", outPathFor("", "/data/case-1.txt"))
	assert.Equal(t, filepath.Join("out", "case-1.json"), outPathFor("out", "/data/case-1.txt"))
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	files := []string{"a.txt", "b.txt", "c.txt"}

	var mu sync.Mutex
	seen := map[string]bool{}

	err := processBatch(context.Background(), files, 0, 2, func(ctx context.Context, path string) (*model.ExtractionResult, error) {
		mu.Lock()
		seen[path] = true
		mu.Unlock()
		if path == "b.txt" {
			return nil, eris.New("boom")
		}
		return &model.ExtractionResult{}, nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestProcessBatchAppliesLimit(t *testing.T) {
	files := []string{"a.txt", "b.txt", "c.txt"}

	var mu sync.Mutex
	var count int

	err := processBatch(context.Background(), files, 2, 1, func(ctx context.Context, path string) (*model.ExtractionResult, error) {
		mu.Lock()
		count++
		mu.Unlock()
		return &model.ExtractionResult{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProcessBatchEmpty(t *testing.T) {
	err := processBatch(context.Background(), nil, 0, 1, func(ctx context.Context, path string) (*model.ExtractionResult, error) {
		t.Fatal("should not be called")
		return nil, nil
	})
	assert.NoError(t, err)
}

func TestWriteResultToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")

	result := &model.ExtractionResult{
		Metadata: model.ExtractionMetadata{CaseID: "case-7"},
	}
	require.NoError(t, writeResult(result, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"case-7"`)
}
