package combat

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// InitiativeRoll is one participant's initiative result.
type InitiativeRoll struct {
	ParticipantID string
	Roll          int // the raw d20
	Bonus         int
	Total         int
}

// RollInitiative rolls one d20 per participant, in slice order, and adds each
// participant's initiative bonus.
//
// Precondition: src must be non-nil.
// Postcondition: len(result) == len(participants); result[i].Total == Roll + Bonus.
func RollInitiative(participants []Participant, src dice.Source) []InitiativeRoll {
	rolls := make([]InitiativeRoll, 0, len(participants))
	for _, p := range participants {
		roll := dice.RollDie(20, src)
		rolls = append(rolls, InitiativeRoll{
			ParticipantID: p.ID,
			Roll:          roll,
			Bonus:         p.InitiativeBonus,
			Total:         roll + p.InitiativeBonus,
		})
	}
	return rolls
}

// BuildTurnOrder orders participants by Total descending. Equal totals go to
// the higher raw Roll; full ties keep their input order.
func BuildTurnOrder(rolls []InitiativeRoll) []string {
	sorted := make([]InitiativeRoll, len(rolls))
	copy(sorted, rolls)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Total != sorted[j].Total {
			return sorted[i].Total > sorted[j].Total
		}
		return sorted[i].Roll > sorted[j].Roll
	})
	order := make([]string, len(sorted))
	for i, r := range sorted {
		order[i] = r.ParticipantID
	}
	return order
}

// StartEncounter rolls initiative for every participant and returns the state
// at round 1 with the first participant in turn order active.
// Participants roll in ascending id order so a seeded Source always produces
// the same result.
func StartEncounter(state State, src dice.Source) (State, []RollSummary) {
	s := state.Clone()

	ids := make([]string, 0, len(s.Participants))
	for id := range s.Participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	participants := make([]Participant, len(ids))
	for i, id := range ids {
		participants[i] = s.Participants[id]
	}

	rolls := RollInitiative(participants, src)
	summaries := make([]RollSummary, len(rolls))
	for i, r := range rolls {
		summaries[i] = RollSummary{
			Label:  "Initiative: " + s.Participants[r.ParticipantID].Name,
			Rolls:  []int{r.Roll},
			Total:  r.Total,
			Detail: fmt.Sprintf("d20 %d%+d", r.Roll, r.Bonus),
		}
	}

	s.Round = 1
	s.ActiveTurnIndex = 0
	s.TurnOrder = BuildTurnOrder(rolls)
	return s, summaries
}

// AdvanceTurn ends the active participant's turn: its conditions tick, the
// next participant becomes active, and the round increments when the order
// wraps back to the start. An empty turn order leaves state unchanged.
func AdvanceTurn(state State) State {
	if len(state.TurnOrder) == 0 {
		return state
	}
	s := state.Clone()

	idx := s.ActiveTurnIndex
	if idx < 0 || idx >= len(s.TurnOrder) {
		idx = 0
	}
	if outgoing, ok := s.Participants[s.TurnOrder[idx]]; ok {
		s.Participants[outgoing.ID] = TickEndOfTurn(outgoing)
	}

	s.ActiveTurnIndex = (idx + 1) % len(s.TurnOrder)
	if s.ActiveTurnIndex == 0 {
		s.Round++
	}
	return s
}
