package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidExpression is wrapped by every Parse failure.
var ErrInvalidExpression = errors.New("dice: invalid expression")

// MaxDice bounds the die count of a parsed expression.
const MaxDice = 1000

var exprPattern = regexp.MustCompile(`^(\d*)[dD](\d+)([+-]\d+)?$`)

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: 1 <= Count <= MaxDice, Sides >= 2 after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// WithCount returns a copy of e rolling n dice instead of e.Count.
func (e Expression) WithCount(n int) Expression {
	e.Count = n
	return e
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2D6+3", "4d8-2".
//
// A malformed expression is a caller bug, not a game-state condition, so the
// returned error always wraps ErrInvalidExpression.
//
// Postcondition: Returns an Expression with 1 <= Count <= MaxDice and Sides >= 2, or an error.
func Parse(expr string) (Expression, error) {
	raw := expr
	m := exprPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrInvalidExpression, raw)
	}

	count := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Expression{}, fmt.Errorf("%w: invalid die count in %q: %v", ErrInvalidExpression, raw, err)
		}
		count = n
	}
	if count < 1 || count > MaxDice {
		return Expression{}, fmt.Errorf("%w: die count in %q must be 1-%d", ErrInvalidExpression, raw, MaxDice)
	}

	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Expression{}, fmt.Errorf("%w: invalid die sides in %q: %v", ErrInvalidExpression, raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("%w: die sides in %q must be >= 2", ErrInvalidExpression, raw)
	}

	modifier := 0
	if m[3] != "" {
		modifier, err = strconv.Atoi(m[3])
		if err != nil {
			return Expression{}, fmt.Errorf("%w: invalid modifier in %q: %v", ErrInvalidExpression, raw, err)
		}
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
