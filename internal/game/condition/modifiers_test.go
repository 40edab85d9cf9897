package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

func with(names ...string) []condition.Instance {
	out := make([]condition.Instance, 0, len(names))
	for _, n := range names {
		out = append(out, condition.Build(n, nil, ""))
	}
	return out
}

func TestDeriveAttackAdvantage(t *testing.T) {
	tests := []struct {
		name     string
		attacker []condition.Instance
		target   []condition.Instance
		base     dice.Advantage
		melee    bool
		want     dice.Advantage
	}{
		{"nothing", nil, nil, dice.Normal, true, dice.Normal},
		{"base passes through", nil, nil, dice.WithDisadvantage, true, dice.WithDisadvantage},
		{"hidden attacker", with("Hidden"), nil, dice.Normal, true, dice.WithAdvantage},
		{"helped attacker", with("helped"), nil, dice.Normal, false, dice.WithAdvantage},
		{"poisoned attacker", with("poisoned"), nil, dice.Normal, true, dice.WithDisadvantage},
		{"stunned target", nil, with("stunned"), dice.Normal, false, dice.WithAdvantage},
		{"dodging target", nil, with("dodging"), dice.Normal, true, dice.WithDisadvantage},
		{"prone target melee", nil, with("prone"), dice.Normal, true, dice.WithAdvantage},
		{"prone target ranged", nil, with("prone"), dice.Normal, false, dice.WithDisadvantage},
		{"invisible vs dodging cancel", with("invisible"), with("dodging"), dice.Normal, true, dice.Normal},
		{"blinded cancels base advantage", with("blinded"), nil, dice.WithAdvantage, true, dice.Normal},
		{"unknown names ignored", with("frightened"), with("charmed"), dice.Normal, true, dice.Normal},
	}
	for _, tc := range tests {
		got := condition.DeriveAttackAdvantage(tc.attacker, tc.target, tc.base, tc.melee)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestAttackVotes_Order(t *testing.T) {
	votes := condition.AttackVotes(with("hidden", "poisoned"), with("prone"), dice.Normal, false)
	assert.Equal(t, []dice.Advantage{dice.Normal, dice.WithAdvantage, dice.WithDisadvantage, dice.WithDisadvantage}, votes)
}

func TestDeriveAttackAdvantage_Property_DuplicatesDoNotMatter(t *testing.T) {
	names := []string{"hidden", "invisible", "helped", "blinded", "poisoned", "restrained", "paralyzed", "stunned", "unconscious", "dodging", "prone"}
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.SliceOf(rapid.SampledFrom(names)).Draw(rt, "attacker")
		d := rapid.SliceOf(rapid.SampledFrom(names)).Draw(rt, "target")
		melee := rapid.Bool().Draw(rt, "melee")

		once := condition.DeriveAttackAdvantage(with(a...), with(d...), dice.Normal, melee)
		twice := condition.DeriveAttackAdvantage(with(append(a, a...)...), with(append(d, d...)...), dice.Normal, melee)
		assert.Equal(rt, once, twice)
	})
}

func TestIncapacitating(t *testing.T) {
	for _, n := range []string{"incapacitated", "Paralyzed", "stunned", "UNCONSCIOUS"} {
		assert.True(t, condition.Incapacitating(with(n)), n)
	}
	assert.False(t, condition.Incapacitating(with("prone", "poisoned")))
}
