package badge

import "github.com/fitchallenge/backend/internal/app/domain/user"

// evaluate applies a single rule against the stat map. A missing stat field
// or an unrecognised operator makes the rule false rather than an error.
func (r Rule) evaluate(stats map[user.StatField]float64) bool {
	value, ok := stats[r.Condition]
	if !ok {
		return false
	}
	switch r.Operator {
	case OpGreater:
		return value > r.Value
	case OpGreaterEqual:
		return value >= r.Value
	case OpLess:
		return value < r.Value
	case OpLessEqual:
		return value <= r.Value
	case OpEqual:
		return value == r.Value
	case OpNotEqual:
		return value != r.Value
	default:
		return false
	}
}

// EligibleFor reports whether every rule holds against the stat map. Badges
// are independent of each other; rules within a badge combine with logical
// AND.
func (b Badge) EligibleFor(stats map[user.StatField]float64) bool {
	if len(b.Rules) == 0 {
		return false
	}
	for _, rule := range b.Rules {
		if !rule.evaluate(stats) {
			return false
		}
	}
	return true
}

// Eligible filters badges down to those the stat map satisfies.
func Eligible(badges []Badge, stats map[user.StatField]float64) []Badge {
	var out []Badge
	for _, b := range badges {
		if b.EligibleFor(stats) {
			out = append(out, b)
		}
	}
	return out
}
