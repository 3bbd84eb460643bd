package syncer

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/bjpolzin/calibre2yac/pkg/syncer/cache"
	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

// MaterializeOp is one pending materialization: produce Target from Source.
type MaterializeOp struct {
	Source string
	Target string
	ItemID int64
	Format string
}

// Plan is the reconciler's output: the set of (item, format) pairs to
// (re)materialize and the set of orphaned output files to remove. The two
// path sets are disjoint by construction, so the executor phases are
// independent.
type Plan struct {
	Materialize []MaterializeOp
	Remove      []string
}

// Empty reports whether the plan contains no work.
func (p Plan) Empty() bool {
	return len(p.Materialize) == 0 && len(p.Remove) == 0
}

// BuildPlan computes the three-way diff between the current catalog, the prior
// snapshot and the live output tree.
//
// An (item, format) pair needs materialization when any of: the id is new to
// the cache; the format is new for that id; the stored last-modified differs;
// the metadata sub-object differs; or the derived target file is missing from
// disk. The last condition self-heals external deletions the cache cannot see.
//
// The remove set is every recognized media file under the output root that no
// current item derives, which covers items dropped from the tag, deleted
// items, and renames (the old name is orphaned while the new one is
// materialized).
func BuildPlan(current map[int64]catalog.Item, cached cache.Snapshot, libraryRoot, outputRoot string) (Plan, error) {
	var plan Plan

	derived := make(map[string]struct{})
	for id, item := range current {
		for format, entry := range item.Formats {
			source := filepath.Join(libraryRoot, item.Path, entry.Name+"."+format)
			target := TargetPath(outputRoot, id, item, format)
			derived[target] = struct{}{}

			if upToDate(cached, id, item, format, entry, target) {
				continue
			}
			plan.Materialize = append(plan.Materialize, MaterializeOp{
				Source: source,
				Target: target,
				ItemID: id,
				Format: format,
			})
		}
	}

	existing, err := ScanOutputTree(outputRoot)
	if err != nil {
		return Plan{}, err
	}
	for path := range existing {
		if _, ok := derived[path]; !ok {
			plan.Remove = append(plan.Remove, path)
		}
	}

	return plan, nil
}

// upToDate reports whether the cached record for (id, format) still matches
// the current catalog entry and the target file is present on disk.
func upToDate(cached cache.Snapshot, id int64, item catalog.Item, format string, entry catalog.FormatEntry, target string) bool {
	record, ok := cached[strconv.FormatInt(id, 10)]
	if !ok {
		return false
	}
	stored, ok := record.Formats[format]
	if !ok {
		return false
	}
	if stored.LastModified != entry.LastModified {
		return false
	}
	// Explicit field-wise comparison over the defined metadata record type.
	if record.Metadata != item.Metadata {
		return false
	}
	if _, err := os.Stat(target); err != nil {
		return false
	}
	return true
}
