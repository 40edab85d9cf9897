// Package dice provides the randomness abstraction, dice-notation parsing, and
// roll-result types for the skirmish combat engine.
package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// RollResult records one evaluated expression: each die as rolled and the
// flat modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total is sum(Dice) + Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll for logs, e.g. "2d6+3: 4+5 +3 = 12". A zero
// modifier is omitted and an empty Expression prints as "roll".
func (r RollResult) String() string {
	var b strings.Builder
	if r.Expression == "" {
		b.WriteString("roll")
	} else {
		b.WriteString(r.Expression)
	}
	b.WriteString(":")
	for i, d := range r.Dice {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(d))
	}
	if r.Modifier != 0 {
		fmt.Fprintf(&b, " %+d", r.Modifier)
	}
	fmt.Fprintf(&b, " = %d", r.Total())
	return b.String()
}

// Source is the sole source of nondeterminism in the engine.
//
// Implementations MUST be safe for concurrent use. Determinism across calls is
// only guaranteed when a seeded Source is driven by a single caller in a fixed order.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// SourceFunc adapts an ordinary function to the Source interface.
type SourceFunc func() float64

// Float64 calls f.
func (f SourceFunc) Float64() float64 { return f() }
