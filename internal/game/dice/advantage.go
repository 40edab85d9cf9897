package dice

// Advantage is the roll mode applied to a d20 test.
// The zero value behaves like Normal.
type Advantage string

const (
	Normal           Advantage = "normal"
	WithAdvantage    Advantage = "advantage"
	WithDisadvantage Advantage = "disadvantage"
)

// D20Roll is the outcome of a d20 test under some Advantage mode.
type D20Roll struct {
	Mode     Advantage
	Rolls    []int // one die for Normal, two otherwise, in roll order
	Chosen   int   // the die that counts
	Critical bool  // Chosen == 20
}

// RollD20WithAdvantage rolls one d20 for Normal (or the zero value) and two
// d20s otherwise, keeping the higher under WithAdvantage and the lower under
// WithDisadvantage.
//
// Postcondition: Critical is true iff the chosen die shows 20; the other die
// of a pair never matters.
func RollD20WithAdvantage(src Source, mode Advantage) D20Roll {
	first := RollDie(20, src)
	if mode != WithAdvantage && mode != WithDisadvantage {
		return D20Roll{Mode: Normal, Rolls: []int{first}, Chosen: first, Critical: first == 20}
	}

	second := RollDie(20, src)
	chosen := min(first, second)
	if mode == WithAdvantage {
		chosen = max(first, second)
	}
	return D20Roll{
		Mode:     mode,
		Rolls:    []int{first, second},
		Chosen:   chosen,
		Critical: chosen == 20,
	}
}

// NormalizeAdvantage merges independent advantage votes into a single mode.
// Any advantage together with any disadvantage cancels to Normal, regardless
// of how many of each are present.
//
// Postcondition: the result depends only on which modes are present, so the
// reduction is commutative and associative.
func NormalizeAdvantage(votes ...Advantage) Advantage {
	var adv, dis bool
	for _, v := range votes {
		switch v {
		case WithAdvantage:
			adv = true
		case WithDisadvantage:
			dis = true
		}
	}
	switch {
	case adv && dis:
		return Normal
	case adv:
		return WithAdvantage
	case dis:
		return WithDisadvantage
	default:
		return Normal
	}
}
