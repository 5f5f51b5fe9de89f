package position

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesOf(ids ...uuid.UUID) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Order: i}
	}
	return out
}

// apply returns the orders that result from applying plan to entries.
func apply(entries []Entry, plan []Assignment) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Order
	}
	for _, a := range plan {
		out[a.ID] = a.Order
	}
	return out
}

func assertDense(t *testing.T, orders map[uuid.UUID]int) {
	t.Helper()
	seen := make([]bool, len(orders))
	for id, o := range orders {
		require.Truef(t, o >= 0 && o < len(orders), "order %d of %s out of range [0,%d)", o, id, len(orders))
		require.Falsef(t, seen[o], "order %d assigned twice", o)
		seen[o] = true
	}
}

func TestNextOrder(t *testing.T) {
	assert.Equal(t, 0, NextOrder(nil))
	assert.Equal(t, 3, NextOrder(entriesOf(uuid.New(), uuid.New(), uuid.New())))
	assert.Equal(t, 8, NextOrder([]Entry{{ID: uuid.New(), Order: 7}, {ID: uuid.New(), Order: 2}}))
}

func TestReorder_FullList(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	entries := entriesOf(a, b, c)

	got := apply(entries, Reorder(entries, []uuid.UUID{c, a, b}))

	assert.Equal(t, map[uuid.UUID]int{a: 1, b: 2, c: 0}, got)
}

func TestReorder_ReturnsOnlyChanges(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	entries := entriesOf(a, b, c)

	plan := Reorder(entries, []uuid.UUID{a, c, b})

	assert.ElementsMatch(t, []Assignment{{ID: c, Order: 1}, {ID: b, Order: 2}}, plan)
	assert.Empty(t, Reorder(entries, []uuid.UUID{a, b, c}))
}

func TestReorder_PartialListAppendsOmitted(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	entries := entriesOf(a, b, c, d)

	got := apply(entries, Reorder(entries, []uuid.UUID{d, b}))

	assert.Equal(t, map[uuid.UUID]int{d: 0, b: 1, a: 2, c: 3}, got)
	assertDense(t, got)
}

func TestReorder_UnknownAndDuplicateIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	entries := entriesOf(a, b)

	got := apply(entries, Reorder(entries, []uuid.UUID{uuid.New(), b, b, a, uuid.New()}))

	assert.Equal(t, map[uuid.UUID]int{b: 0, a: 1}, got)
}

func TestCompact_AfterDelete(t *testing.T) {
	a, c := uuid.New(), uuid.New()
	// b at order 1 was deleted
	entries := []Entry{{ID: a, Order: 0}, {ID: c, Order: 2}}

	plan := Compact(entries)

	assert.Equal(t, []Assignment{{ID: c, Order: 1}}, plan)
	assert.Equal(t, map[uuid.UUID]int{a: 0, c: 1}, apply(entries, plan))
}

func TestCompact_RepairsDuplicates(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	entries := []Entry{{ID: a, Order: 4}, {ID: b, Order: 4}, {ID: c, Order: 9}}

	assertDense(t, apply(entries, Compact(entries)))
}

func TestMoveWithin(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	entries := entriesOf(a, b, c)

	tests := []struct {
		name    string
		id      uuid.UUID
		toIndex int
		want    map[uuid.UUID]int
	}{
		{"first to last", a, 2, map[uuid.UUID]int{b: 0, c: 1, a: 2}},
		{"last to first", c, 0, map[uuid.UUID]int{c: 0, a: 1, b: 2}},
		{"index clamped high", a, 99, map[uuid.UUID]int{b: 0, c: 1, a: 2}},
		{"index clamped low", c, -5, map[uuid.UUID]int{c: 0, a: 1, b: 2}},
		{"same place", b, 1, map[uuid.UUID]int{a: 0, b: 1, c: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := MoveWithin(entries, tt.id, tt.toIndex)
			require.NoError(t, err)
			assert.Equal(t, tt.want, apply(entries, plan))
		})
	}
}

func TestMoveWithin_NotInGroup(t *testing.T) {
	_, err := MoveWithin(entriesOf(uuid.New()), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrNotInGroup)
}

func TestMoveAcross(t *testing.T) {
	a, b, x := uuid.New(), uuid.New(), uuid.New()
	src, dst := entriesOf(a, b), entriesOf(x)

	srcPlan, dstPlan, err := MoveAcross(src, dst, a, 0)
	require.NoError(t, err)

	assert.Equal(t, []Assignment{{ID: b, Order: 0}}, srcPlan)
	assert.ElementsMatch(t, []Assignment{{ID: a, Order: 0}, {ID: x, Order: 1}}, dstPlan)
}

func TestMoveAcross_AlwaysIncludesMovedEntity(t *testing.T) {
	a, x := uuid.New(), uuid.New()
	// a is at order 1 in src and lands at order 1 in dst
	src := []Entry{{ID: uuid.New(), Order: 0}, {ID: a, Order: 1}}
	dst := entriesOf(x)

	_, dstPlan, err := MoveAcross(src, dst, a, 5)
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{ID: a, Order: 1}}, dstPlan)
}

func TestMoveAcross_EmptyTarget(t *testing.T) {
	a := uuid.New()

	srcPlan, dstPlan, err := MoveAcross(entriesOf(a), nil, a, 3)
	require.NoError(t, err)

	assert.Empty(t, srcPlan)
	assert.Equal(t, []Assignment{{ID: a, Order: 0}}, dstPlan)
}

func TestMoveAcross_NotInSource(t *testing.T) {
	x := uuid.New()
	_, _, err := MoveAcross(entriesOf(uuid.New()), entriesOf(x), x, 0)
	assert.ErrorIs(t, err, ErrNotInGroup)
}

// Runs random sequences of moves between three groups and checks every group
// stays dense after each step.
func TestMoves_KeepGroupsDense(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	groups := make([][]Entry, 3)
	for g := range groups {
		for range 4 {
			groups[g] = append(groups[g], Entry{ID: uuid.New(), Order: len(groups[g])})
		}
	}

	for step := 0; step < 500; step++ {
		from, to := rng.Intn(3), rng.Intn(3)
		if len(groups[from]) == 0 {
			continue
		}
		id := groups[from][rng.Intn(len(groups[from]))].ID
		toIndex := rng.Intn(8) - 2

		if from == to {
			plan, err := MoveWithin(groups[from], id, toIndex)
			require.NoError(t, err)
			groups[from] = toEntries(apply(groups[from], plan))
		} else {
			srcPlan, dstPlan, err := MoveAcross(groups[from], groups[to], id, toIndex)
			require.NoError(t, err)
			left := apply(groups[from], srcPlan)
			delete(left, id)
			groups[from] = toEntries(left)
			groups[to] = toEntries(apply(groups[to], dstPlan))
		}

		total := 0
		for g := range groups {
			assertDense(t, apply(groups[g], nil))
			total += len(groups[g])
		}
		require.Equal(t, 12, total)
	}
}

func toEntries(orders map[uuid.UUID]int) []Entry {
	out := make([]Entry, 0, len(orders))
	for id, o := range orders {
		out = append(out, Entry{ID: id, Order: o})
	}
	return Sorted(out)
}
