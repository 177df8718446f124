package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tendercheck/tender"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleTender() *tender.Tender {
	return &tender.Tender{
		ID:    "t1",
		Title: "Cloud hosting framework",
		Requirements: []tender.Requirement{
			{ID: "r1", Text: "Data residency in the EU", Type: tender.RequirementMandatory},
			{ID: "r2", Text: "24/7 support", Type: tender.RequirementOptional},
		},
	}
}

func TestSaveAndFindByID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleTender()))

	loaded, err := store.FindByID(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, "Cloud hosting framework", loaded.Title)
	require.Len(t, loaded.Requirements, 2)
	assert.Equal(t, tender.RequirementMandatory, loaded.Requirements[0].Type)
	assert.Empty(t, loaded.Results)
}

func TestFindByID_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, tender.ErrNotFound)
}

func TestSave_RequiresID(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Save(context.Background(), &tender.Tender{Title: "no id"}))
}

func TestSave_AppendsResultsAcrossRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tr := sampleTender()
	require.NoError(t, store.Save(ctx, tr))

	tr.AppendResults([]tender.ValidationResult{
		{RequirementID: "r1", Status: tender.StatusMet, Reasoning: "first run", CreatedAt: time.Now()},
	})
	require.NoError(t, store.Save(ctx, tr))

	tr.AppendResults([]tender.ValidationResult{
		{RequirementID: "r1", Status: tender.StatusNotMet, Reasoning: "second run", CreatedAt: time.Now()},
	})
	require.NoError(t, store.Save(ctx, tr))

	loaded, err := store.FindByID(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, loaded.Results, 2)

	// History stays in insertion order and is never rewritten.
	assert.Equal(t, "first run", loaded.Results[0].Reasoning)
	assert.Equal(t, "second run", loaded.Results[1].Reasoning)
}

func TestSave_IsIdempotentForExistingResults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tr := sampleTender()
	tr.AppendResults([]tender.ValidationResult{
		{RequirementID: "r1", Status: tender.StatusMet, CreatedAt: time.Now()},
	})
	require.NoError(t, store.Save(ctx, tr))
	require.NoError(t, store.Save(ctx, tr))

	loaded, err := store.FindByID(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, loaded.Results, 1)
}

func TestSave_RefusesToShrinkHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tr := sampleTender()
	tr.AppendResults([]tender.ValidationResult{
		{RequirementID: "r1", Status: tender.StatusMet, CreatedAt: time.Now()},
	})
	require.NoError(t, store.Save(ctx, tr))

	truncated := sampleTender()
	err := store.Save(ctx, truncated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to save")
}

func TestSave_UpdatesTitleAndRequirements(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tr := sampleTender()
	require.NoError(t, store.Save(ctx, tr))

	tr.Title = "Cloud hosting framework v2"
	tr.Requirements = append(tr.Requirements, tender.Requirement{ID: "r3", Text: "SLA of 99.9%"})
	require.NoError(t, store.Save(ctx, tr))

	loaded, err := store.FindByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Cloud hosting framework v2", loaded.Title)
	assert.Len(t, loaded.Requirements, 3)
}

func TestList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := sampleTender()
	second := sampleTender()
	second.ID = "t2"
	second.Title = "Second tender"

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	tenders, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tenders, 2)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleTender()))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Cloud hosting framework", loaded.Title)
}
