package badge

import (
	"testing"

	"github.com/fitchallenge/backend/internal/app/domain/user"
)

func TestEligibleFor(t *testing.T) {
	stats := map[user.StatField]float64{
		user.StatTotalScore:          150,
		user.StatChallengesCompleted: 5,
		user.StatStreakDays:          0,
	}

	cases := []struct {
		name  string
		rules []Rule
		want  bool
	}{
		{"no rules never eligible", nil, false},
		{"single rule met", []Rule{{Condition: user.StatTotalScore, Operator: OpGreaterEqual, Value: 100}}, true},
		{"single rule unmet", []Rule{{Condition: user.StatTotalScore, Operator: OpGreater, Value: 150}}, false},
		{"rules combine with AND", []Rule{
			{Condition: user.StatTotalScore, Operator: OpGreater, Value: 100},
			{Condition: user.StatChallengesCompleted, Operator: OpGreaterEqual, Value: 10},
		}, false},
		{"all rules met", []Rule{
			{Condition: user.StatTotalScore, Operator: OpGreater, Value: 100},
			{Condition: user.StatChallengesCompleted, Operator: OpEqual, Value: 5},
		}, true},
		{"missing stat fails closed", []Rule{{Condition: "unknownField", Operator: OpGreater, Value: 0}}, false},
		{"unknown operator fails closed", []Rule{{Condition: user.StatTotalScore, Operator: "~=", Value: 0}}, false},
		{"not equal", []Rule{{Condition: user.StatStreakDays, Operator: OpNotEqual, Value: 0}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Badge{Rules: tc.rules}
			if got := b.EligibleFor(stats); got != tc.want {
				t.Fatalf("EligibleFor = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEligibleFilters(t *testing.T) {
	stats := map[user.StatField]float64{user.StatTotalScore: 50}
	badges := []Badge{
		{ID: "a", Rules: []Rule{{Condition: user.StatTotalScore, Operator: OpGreaterEqual, Value: 10}}},
		{ID: "b", Rules: []Rule{{Condition: user.StatTotalScore, Operator: OpGreaterEqual, Value: 100}}},
	}

	out := Eligible(badges, stats)
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("expected only badge a, got %+v", out)
	}
}

func TestValidateRules(t *testing.T) {
	if err := ValidateRules(nil); err == nil {
		t.Fatalf("expected error for empty rules")
	}
	if err := ValidateRules([]Rule{{Condition: "bogus", Operator: OpGreater, Value: 1}}); err == nil {
		t.Fatalf("expected error for unknown condition")
	}
	if err := ValidateRules([]Rule{{Condition: user.StatTotalScore, Operator: "<>", Value: 1}}); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
	ok := []Rule{{Condition: user.StatTotalScore, Operator: OpGreaterEqual, Value: 100}}
	if err := ValidateRules(ok); err != nil {
		t.Fatalf("valid rules rejected: %v", err)
	}
}
