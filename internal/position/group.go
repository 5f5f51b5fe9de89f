package position

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Group is a persisted family of siblings keyed by their parent id. A Group
// is bound to one transaction; every call below must run on it so a
// renumbering is never partially visible.
type Group interface {
	// Entries returns the children of parent with their stored orders.
	Entries(ctx context.Context, parent uuid.UUID) ([]Entry, error)
	// Assign stores each assignment's order and sets its parent to parent.
	Assign(ctx context.Context, parent uuid.UUID, plan []Assignment) error
}

// Locker is implemented by groups that can lock a parent row for the rest of
// the transaction, serialising concurrent edits of the same group.
type Locker interface {
	Lock(ctx context.Context, parent uuid.UUID) error
}

// Append returns the order for a new child of parent. The insert must happen
// on the same transaction.
func Append(ctx context.Context, g Group, parent uuid.UUID) (int, error) {
	entries, err := load(ctx, g, parent)
	if err != nil {
		return 0, err
	}
	return NextOrder(entries), nil
}

// ReorderGroup applies Reorder to the children of parent.
func ReorderGroup(ctx context.Context, g Group, parent uuid.UUID, ids []uuid.UUID) error {
	entries, err := load(ctx, g, parent)
	if err != nil {
		return err
	}
	return assign(ctx, g, parent, Reorder(entries, ids))
}

// CompactGroup applies Compact to the children of parent.
func CompactGroup(ctx context.Context, g Group, parent uuid.UUID) error {
	entries, err := load(ctx, g, parent)
	if err != nil {
		return err
	}
	return assign(ctx, g, parent, Compact(entries))
}

// Move relocates id from the group under from to index toIndex of the group
// under to. from and to may be equal.
func Move(ctx context.Context, g Group, id, from, to uuid.UUID, toIndex int) error {
	if from == to {
		entries, err := load(ctx, g, from)
		if err != nil {
			return err
		}
		plan, err := MoveWithin(entries, id, toIndex)
		if err != nil {
			return err
		}
		return assign(ctx, g, from, plan)
	}

	// lock both parents in a fixed order so two opposite moves cannot deadlock
	first, second := from, to
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	if err := lock(ctx, g, first); err != nil {
		return err
	}
	if err := lock(ctx, g, second); err != nil {
		return err
	}

	src, err := g.Entries(ctx, from)
	if err != nil {
		return fmt.Errorf("load source group: %w", err)
	}
	dst, err := g.Entries(ctx, to)
	if err != nil {
		return fmt.Errorf("load target group: %w", err)
	}
	srcPlan, dstPlan, err := MoveAcross(src, dst, id, toIndex)
	if err != nil {
		return err
	}
	// the target write goes first: it reparents the moved entity, after which
	// the source plan only touches the source's remaining children
	if err := assign(ctx, g, to, dstPlan); err != nil {
		return err
	}
	return assign(ctx, g, from, srcPlan)
}

func load(ctx context.Context, g Group, parent uuid.UUID) ([]Entry, error) {
	if err := lock(ctx, g, parent); err != nil {
		return nil, err
	}
	entries, err := g.Entries(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}
	return entries, nil
}

func lock(ctx context.Context, g Group, parent uuid.UUID) error {
	l, ok := g.(Locker)
	if !ok {
		return nil
	}
	if err := l.Lock(ctx, parent); err != nil {
		return fmt.Errorf("lock group: %w", err)
	}
	return nil
}

func assign(ctx context.Context, g Group, parent uuid.UUID, plan []Assignment) error {
	if len(plan) == 0 {
		return nil
	}
	if err := g.Assign(ctx, parent, plan); err != nil {
		return fmt.Errorf("assign positions: %w", err)
	}
	return nil
}
