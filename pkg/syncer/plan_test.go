package syncer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjpolzin/calibre2yac/pkg/syncer/cache"
	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

func planItem() catalog.Item {
	return catalog.Item{
		Title:       "Batman",
		Path:        "Frank Miller/Batman (1)",
		Series:      "Detective Comics",
		SeriesIndex: 3,
		Formats: map[string]catalog.FormatEntry{
			"cbz": {Name: "Batman - Frank Miller", LastModified: "2026-01-01 10:00:00+00:00", Size: 42},
		},
		Metadata: catalog.Metadata{AuthorSort: "Miller, Frank", Timestamp: "t1", PubDate: "p1"},
	}
}

func TestBuildPlanNewItem(t *testing.T) {
	libraryRoot := t.TempDir()
	outputRoot := t.TempDir()
	item := planItem()

	plan, err := BuildPlan(map[int64]catalog.Item{1: item}, cache.Snapshot{}, libraryRoot, outputRoot)
	require.NoError(t, err)

	require.Len(t, plan.Materialize, 1)
	op := plan.Materialize[0]
	assert.Equal(t, filepath.Join(libraryRoot, item.Path, "Batman - Frank Miller.cbz"), op.Source)
	assert.Equal(t, filepath.Join(outputRoot, "Detective Comics", "03.0 - Batman.cbz"), op.Target)
	assert.Equal(t, int64(1), op.ItemID)
	assert.Equal(t, "cbz", op.Format)
	assert.Empty(t, plan.Remove)
}

func TestBuildPlanUpToDate(t *testing.T) {
	libraryRoot := t.TempDir()
	outputRoot := t.TempDir()
	item := planItem()
	target := TargetPath(outputRoot, 1, item, "cbz")
	writeTestFile(t, target, "synced")

	plan, err := BuildPlan(map[int64]catalog.Item{1: item}, cache.Snapshot{"1": item}, libraryRoot, outputRoot)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
}

func TestBuildPlanTriggers(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cached *catalog.Item)
	}{
		{"LastModifiedChanged", func(cached *catalog.Item) {
			entry := cached.Formats["cbz"]
			entry.LastModified = "1999-01-01 00:00:00+00:00"
			cached.Formats = map[string]catalog.FormatEntry{"cbz": entry}
		}},
		{"MetadataChanged", func(cached *catalog.Item) {
			cached.Metadata.AuthorSort = "Someone Else"
		}},
		{"FormatMissingFromCache", func(cached *catalog.Item) {
			cached.Formats = map[string]catalog.FormatEntry{}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			libraryRoot := t.TempDir()
			outputRoot := t.TempDir()
			item := planItem()
			target := TargetPath(outputRoot, 1, item, "cbz")
			writeTestFile(t, target, "synced")

			cached := planItem()
			tc.mutate(&cached)

			plan, err := BuildPlan(map[int64]catalog.Item{1: item}, cache.Snapshot{"1": cached}, libraryRoot, outputRoot)
			require.NoError(t, err)
			require.Len(t, plan.Materialize, 1, "expected a rematerialization")
		})
	}
}

func TestBuildPlanSelfHealsMissingTarget(t *testing.T) {
	// Cache says synced but the file is gone from disk.
	libraryRoot := t.TempDir()
	outputRoot := t.TempDir()
	item := planItem()

	plan, err := BuildPlan(map[int64]catalog.Item{1: item}, cache.Snapshot{"1": item}, libraryRoot, outputRoot)
	require.NoError(t, err)
	require.Len(t, plan.Materialize, 1)
}

func TestBuildPlanRemovesOrphans(t *testing.T) {
	libraryRoot := t.TempDir()
	outputRoot := t.TempDir()
	item := planItem()
	target := TargetPath(outputRoot, 1, item, "cbz")
	writeTestFile(t, target, "synced")

	orphan := filepath.Join(outputRoot, "Old Series", "01.0 - Gone.cbz")
	writeTestFile(t, orphan, "orphan")
	// Unrecognized extensions are never part of the remove set.
	notes := filepath.Join(outputRoot, "Old Series", "notes.txt")
	writeTestFile(t, notes, "keep")

	plan, err := BuildPlan(map[int64]catalog.Item{1: item}, cache.Snapshot{"1": item}, libraryRoot, outputRoot)
	require.NoError(t, err)
	assert.Empty(t, plan.Materialize)
	assert.Equal(t, []string{orphan}, plan.Remove)
}

func TestBuildPlanRenameMaterializesAndOrphans(t *testing.T) {
	// A title change derives a new target; the old file becomes an orphan.
	libraryRoot := t.TempDir()
	outputRoot := t.TempDir()

	oldItem := planItem()
	oldTarget := TargetPath(outputRoot, 1, oldItem, "cbz")
	writeTestFile(t, oldTarget, "synced")

	renamed := planItem()
	renamed.Title = "Batman Year One"

	plan, err := BuildPlan(map[int64]catalog.Item{1: renamed}, cache.Snapshot{"1": oldItem}, libraryRoot, outputRoot)
	require.NoError(t, err)
	require.Len(t, plan.Materialize, 1)
	assert.Equal(t, TargetPath(outputRoot, 1, renamed, "cbz"), plan.Materialize[0].Target)
	assert.Equal(t, []string{oldTarget}, plan.Remove)
}

func TestBuildPlanEmptyCatalogRemovesEverything(t *testing.T) {
	libraryRoot := t.TempDir()
	outputRoot := t.TempDir()
	a := filepath.Join(outputRoot, "Saga", "01.0 - Saga.cbz")
	b := filepath.Join(outputRoot, "No Series", "Annual.pdf")
	writeTestFile(t, a, "a")
	writeTestFile(t, b, "b")

	plan, err := BuildPlan(map[int64]catalog.Item{}, cache.Snapshot{}, libraryRoot, outputRoot)
	require.NoError(t, err)
	assert.Empty(t, plan.Materialize)
	assert.ElementsMatch(t, []string{a, b}, plan.Remove)
}
