// Package diff implements the diff calculator (C8): the added,
// updated and removed notice-id sets between two snapshots, per
// spec.md §4.8.
package diff

import (
	"sort"

	"github.com/uring/crawler/internal/model"
)

// UpdateBasis names the field the calculator compares to decide
// whether a notice present in both snapshots changed. This
// implementation always uses content hash comparison rather than
// title-only comparison, recorded here for aux/diff.json's
// meta.update_basis field.
const UpdateBasis = "content_hash"

// Calculate computes the id-set diff between previous and current,
// per spec.md §4.8: added is present in current but not previous,
// removed is present in previous but not current, updated is present
// in both with a different content hash. All three sets are sorted.
func Calculate(previous, current []model.Notice) model.Diff {
	prevByID := make(map[string]model.Notice, len(previous))
	for _, n := range previous {
		prevByID[n.ID] = n
	}

	currByID := make(map[string]model.Notice, len(current))
	for _, n := range current {
		currByID[n.ID] = n
	}

	var added, updated, removed []string

	for id, curr := range currByID {
		prev, ok := prevByID[id]
		if !ok {
			added = append(added, id)
			continue
		}
		if prev.ContentHash != curr.ContentHash {
			updated = append(updated, id)
		}
	}

	for id := range prevByID {
		if _, ok := currByID[id]; !ok {
			removed = append(removed, id)
		}
	}

	sort.Strings(added)
	sort.Strings(updated)
	sort.Strings(removed)

	return model.Diff{
		Added:   nonNil(added),
		Updated: nonNil(updated),
		Removed: nonNil(removed),
		Meta:    model.DiffMeta{UpdateBasis: UpdateBasis},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// HasChanges reports whether d contains any added, updated or removed ids.
func HasChanges(d model.Diff) bool {
	return len(d.Added) > 0 || len(d.Updated) > 0 || len(d.Removed) > 0
}
