// Package turn implements the per-round action schedule: one Turn per
// living battler, ordered by speed and consumed strictly FIFO.
package turn

import (
	"sort"

	"github.com/nathoo/crestfall/engine/battler"
)

// Turn binds one battler to its place in the round. Immutable for the
// round's duration.
type Turn struct {
	Battler battler.Battler
	Order   int // position in the computed schedule, starting at 0
}

// Queue is the ordered, FIFO-consumable schedule for one round. It is
// cleared and rebuilt every round.
type Queue struct {
	turns []Turn
	next  int
}

// Len returns the number of turns not yet consumed.
func (q *Queue) Len() int {
	return len(q.turns) - q.next
}

// Empty reports whether the round's action phase is exhausted.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Next consumes and returns the next scheduled turn.
func (q *Queue) Next() (Turn, bool) {
	if q.Empty() {
		return Turn{}, false
	}
	t := q.turns[q.next]
	q.next++
	return t, true
}

// Remaining returns the unconsumed schedule in order, for display.
func (q *Queue) Remaining() []Turn {
	out := make([]Turn, q.Len())
	copy(out, q.turns[q.next:])
	return out
}

// ComputeOrder merges the living battlers of both rosters into one
// schedule, higher speed first. Ties keep original roster order with the
// party ahead of the troop, so the sort is stable over the merged list.
func ComputeOrder(party, troop []battler.Battler) *Queue {
	var living []battler.Battler
	for _, b := range party {
		if !b.IsKnockedOut() {
			living = append(living, b)
		}
	}
	for _, b := range troop {
		if !b.IsKnockedOut() {
			living = append(living, b)
		}
	}

	sort.SliceStable(living, func(i, j int) bool {
		return living[i].Stats().Speed() > living[j].Stats().Speed()
	})

	q := &Queue{turns: make([]Turn, len(living))}
	for i, b := range living {
		q.turns[i] = Turn{Battler: b, Order: i}
	}
	return q
}
