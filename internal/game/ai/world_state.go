package ai

import (
	"cmp"
	"slices"
)

// CombatantState captures a participant's combat-relevant state at planning time.
type CombatantState struct {
	ID         string
	Name       string
	Side       string
	HP         int
	MaxHP      int
	AC         int
	Down       bool
	Conditions []string
}

// HPPercent returns current HP as a percentage of MaxHP; 0 if MaxHP == 0.
func (c *CombatantState) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP) * 100
}

// WorldState is the snapshot passed to the HTN planner for one acting participant.
//
// Invariant: Actor must not be nil and must also appear in Combatants.
type WorldState struct {
	Actor      *CombatantState
	Round      int
	Combatants []*CombatantState // all participants, in turn order
}

// Combatant returns the combatant with id, or nil.
func (ws *WorldState) Combatant(id string) *CombatantState {
	for _, c := range ws.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// EnemiesOf returns the standing combatants not on id's side.
func (ws *WorldState) EnemiesOf(id string) []*CombatantState {
	return ws.standing(id, false)
}

// AlliesOf returns the standing combatants on id's side, excluding id.
func (ws *WorldState) AlliesOf(id string) []*CombatantState {
	return ws.standing(id, true)
}

// standing filters Combatants, in turn order, to those not down and not id
// whose side matches id's exactly when sameSide is set. Unknown id yields nil.
func (ws *WorldState) standing(id string, sameSide bool) []*CombatantState {
	self := ws.Combatant(id)
	if self == nil {
		return nil
	}
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if c.Down || c.ID == id || (c.Side == self.Side) != sameSide {
			continue
		}
		out = append(out, c)
	}
	return out
}

// HasLivingEnemies returns true when at least one standing enemy exists.
//
// Postcondition: equivalent to len(EnemiesOf(id)) > 0.
func (ws *WorldState) HasLivingEnemies(id string) bool {
	return len(ws.EnemiesOf(id)) > 0
}

// NearestEnemy returns the first standing enemy in turn order, or nil. The
// engine has no positions, so turn order stands in for distance.
func (ws *WorldState) NearestEnemy(id string) *CombatantState {
	enemies := ws.EnemiesOf(id)
	if len(enemies) == 0 {
		return nil
	}
	return enemies[0]
}

// WeakestEnemy returns the standing enemy with the lowest HP percentage, or nil.
//
// Postcondition: nil if no standing enemies exist; ties broken by order in Combatants.
func (ws *WorldState) WeakestEnemy(id string) *CombatantState {
	return weakest(ws.EnemiesOf(id))
}

// WeakestAlly returns the standing ally with the lowest HP percentage, or nil.
func (ws *WorldState) WeakestAlly(id string) *CombatantState {
	return weakest(ws.AlliesOf(id))
}

// weakest is the lowest HPPercent in cs, first one on ties.
func weakest(cs []*CombatantState) *CombatantState {
	if len(cs) == 0 {
		return nil
	}
	return slices.MinFunc(cs, func(a, b *CombatantState) int {
		return cmp.Compare(a.HPPercent(), b.HPPercent())
	})
}

// ResolveTarget maps a target token to a participant id.
//
// Precondition: ws.Actor must not be nil.
// Postcondition: tokens "nearest_enemy", "weakest_enemy", "weakest_ally", and
// "self" are resolved to ids; unknown tokens are returned as-is; empty string
// is returned when a token matches nobody.
func (ws *WorldState) ResolveTarget(token string) string {
	var c *CombatantState
	switch token {
	case "nearest_enemy":
		c = ws.NearestEnemy(ws.Actor.ID)
	case "weakest_enemy":
		c = ws.WeakestEnemy(ws.Actor.ID)
	case "weakest_ally":
		c = ws.WeakestAlly(ws.Actor.ID)
	case "self":
		c = ws.Actor
	default:
		return token
	}
	if c == nil {
		return ""
	}
	return c.ID
}
