package dice

// RollDie rolls a single die with the given number of sides.
//
// Precondition: sides >= 1; src must be non-nil.
// Postcondition: 1 <= result <= sides.
func RollDie(sides int, src Source) int {
	return int(src.Float64()*float64(sides)) + 1
}

// Roll evaluates an Expression using the given Source and returns a RollResult.
// Each of the Count dice is rolled independently, in order.
//
// Precondition: expr must come from Parse (Count >= 1, Sides >= 2); src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count;
// result.Total() == sum(result.Dice) + result.Modifier.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = RollDie(expr.Sides, src)
	}
	return RollResult{
		Expression: expr.Raw,
		Dice:       rolled,
		Modifier:   expr.Modifier,
	}
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a RollResult or a parse error wrapping ErrInvalidExpression.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}
