package dice

import "go.uber.org/zap"

// Roller rolls from a Source and writes every roll to a debug log.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the Source this Roller draws from.
func (r *Roller) Source() Source { return r.src }

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll", zap.Stringer("roll", result), zap.Int("total", result.Total()))
	return result
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// D20 rolls a d20 test under mode and logs the dice and the chosen result.
func (r *Roller) D20(mode Advantage) D20Roll {
	roll := RollD20WithAdvantage(r.src, mode)
	r.logger.Debug("d20 roll",
		zap.String("mode", string(roll.Mode)),
		zap.Ints("dice", roll.Rolls),
		zap.Int("chosen", roll.Chosen),
		zap.Bool("critical", roll.Critical),
	)
	return roll
}
