package badge

import (
	"fmt"
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/user"
)

// Type groups badges by the kind of accomplishment they reward.
type Type string

const (
	TypeAchievement Type = "ACHIEVEMENT"
	TypeStreak      Type = "STREAK"
	TypeScore       Type = "SCORE"
	TypeChallenge   Type = "CHALLENGE"
	TypeSocial      Type = "SOCIAL"
)

// Valid reports whether the badge type is one of the known values.
func (t Type) Valid() bool {
	switch t {
	case TypeAchievement, TypeStreak, TypeScore, TypeChallenge, TypeSocial:
		return true
	}
	return false
}

// Operator is the comparison applied between a user stat and a rule
// threshold.
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

// Valid reports whether the operator is recognised.
func (o Operator) Valid() bool {
	switch o {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

// Rule is a single comparison test contributing to a badge's eligibility.
type Rule struct {
	Condition user.StatField `json:"condition"`
	Operator  Operator       `json:"operator"`
	Value     float64        `json:"value"`
}

// Badge is awarded to users whose stats satisfy every rule. A badge with an
// empty rule list is treated as misconfigured and never eligible.
type Badge struct {
	ID          string
	Name        string
	Description string
	Type        Type
	Rules       []Rule
	Points      int
	Active      bool
	CreatedBy   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateRules rejects misconfigured rule lists up front: rules must be
// non-empty and every condition and operator must be known. Evaluation is
// still fail-closed for anything that slips through.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("at least one rule is required")
	}
	for i, r := range rules {
		if !user.KnownStatField(r.Condition) {
			return fmt.Errorf("rule %d: unknown condition %q", i, r.Condition)
		}
		if !r.Operator.Valid() {
			return fmt.Errorf("rule %d: unknown operator %q", i, r.Operator)
		}
	}
	return nil
}
