// Package position keeps sibling entities (columns of a board, cards of a
// column) in a dense, zero-based order.
//
// The planning functions are pure: they take the current siblings and return
// the assignments needed to reach the requested arrangement. Only entries
// whose order changes are returned, so callers write the minimal set of rows.
package position

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

// ErrNotInGroup is returned when a move names an entity that is not a
// member of the source group.
var ErrNotInGroup = errors.New("position: entity is not in the source group")

// Entry is one sibling and its current order.
type Entry struct {
	ID    uuid.UUID
	Order int
}

// Assignment gives an entity a new order within a group.
type Assignment struct {
	ID    uuid.UUID
	Order int
}

// Sorted returns a copy of entries ordered by Order. Equal orders, which only
// appear when a group is already inconsistent, are broken by id so the result
// is deterministic.
func Sorted(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}

// NextOrder is the order a newly appended sibling gets.
func NextOrder(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	highest := entries[0].Order
	for _, e := range entries[1:] {
		highest = max(highest, e.Order)
	}
	return highest + 1
}

// Reorder arranges siblings in the order of ids. Unknown ids are ignored and
// repeated ids count once. Siblings missing from ids keep their relative
// order and are placed after the listed ones, so the group stays dense even
// when the caller sent a partial list.
func Reorder(entries []Entry, ids []uuid.UUID) []Assignment {
	known := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		known[e.ID] = true
	}

	ordered := make([]uuid.UUID, 0, len(entries))
	placed := make(map[uuid.UUID]bool, len(entries))
	for _, id := range ids {
		if known[id] && !placed[id] {
			placed[id] = true
			ordered = append(ordered, id)
		}
	}
	for _, e := range Sorted(entries) {
		if !placed[e.ID] {
			ordered = append(ordered, e.ID)
		}
	}
	return renumber(ordered, entries)
}

// Compact closes gaps left by a deletion.
func Compact(entries []Entry) []Assignment {
	return renumber(ids(Sorted(entries)), entries)
}

// MoveWithin moves id to toIndex inside its own group. toIndex is clamped to
// the bounds of the group without the moved entity.
func MoveWithin(entries []Entry, id uuid.UUID, toIndex int) ([]Assignment, error) {
	rest, ok := without(Sorted(entries), id)
	if !ok {
		return nil, ErrNotInGroup
	}
	return renumber(insertAt(rest, id, toIndex), entries), nil
}

// MoveAcross moves id from src to position toIndex in dst. The dst plan
// always contains the moved entity because its parent changes.
func MoveAcross(src, dst []Entry, id uuid.UUID, toIndex int) (srcPlan, dstPlan []Assignment, err error) {
	rest, ok := without(Sorted(src), id)
	if !ok {
		return nil, nil, ErrNotInGroup
	}
	srcPlan = renumber(rest, src)

	dstPlan = renumber(insertAt(ids(Sorted(dst)), id, toIndex), dst)
	return srcPlan, dstPlan, nil
}

// renumber assigns 0..n-1 along ordered and keeps only the changes relative
// to current. Entities absent from current always get an assignment.
func renumber(ordered []uuid.UUID, current []Entry) []Assignment {
	was := make(map[uuid.UUID]int, len(current))
	for _, e := range current {
		was[e.ID] = e.Order
	}
	var plan []Assignment
	for i, id := range ordered {
		if prev, ok := was[id]; ok && prev == i {
			continue
		}
		plan = append(plan, Assignment{ID: id, Order: i})
	}
	return plan
}

func ids(entries []Entry) []uuid.UUID {
	out := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func without(sorted []Entry, id uuid.UUID) ([]uuid.UUID, bool) {
	out := make([]uuid.UUID, 0, len(sorted))
	found := false
	for _, e := range sorted {
		if e.ID == id {
			found = true
			continue
		}
		out = append(out, e.ID)
	}
	return out, found
}

func insertAt(list []uuid.UUID, id uuid.UUID, index int) []uuid.UUID {
	index = min(max(index, 0), len(list))
	return slices.Insert(list, index, id)
}
