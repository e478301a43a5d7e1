package badges

import (
	"context"
	"testing"

	"github.com/fitchallenge/backend/internal/app/domain/badge"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage/memory"
)

func TestCreateRejectsBadRules(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{Type: badge.TypeScore, Rules: scoreRules(10)}},
		{"unknown type", CreateInput{Name: "x", Type: "SHINY", Rules: scoreRules(10)}},
		{"negative points", CreateInput{Name: "x", Type: badge.TypeScore, Rules: scoreRules(10), Points: -1}},
		{"no rules", CreateInput{Name: "x", Type: badge.TypeScore}},
		{"unknown condition", CreateInput{Name: "x", Type: badge.TypeScore, Rules: []badge.Rule{
			{Condition: "stepsTaken", Operator: badge.OpGreater, Value: 1},
		}}},
		{"unknown operator", CreateInput{Name: "x", Type: badge.TypeScore, Rules: []badge.Rule{
			{Condition: user.StatTotalScore, Operator: "=>", Value: 1},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.in); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestEvaluateUserGrantsOnce(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Email: "a@b.c", Active: true, TotalScore: 120})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	b, err := svc.Create(ctx, CreateInput{
		Name:   "Centurion",
		Type:   badge.TypeScore,
		Rules:  scoreRules(100),
		Points: 25,
	})
	if err != nil {
		t.Fatalf("create badge: %v", err)
	}

	granted, err := svc.EvaluateUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(granted) != 1 || granted[0].ID != b.ID {
		t.Fatalf("expected one grant, got %+v", granted)
	}

	after, _ := store.GetUser(ctx, u.ID)
	if !after.HasBadge(b.ID) {
		t.Fatalf("badge not recorded on user")
	}
	if after.TotalScore != 145 {
		t.Fatalf("expected score 145, got %d", after.TotalScore)
	}

	// Re-evaluation grants nothing and does not double the points.
	granted, err = svc.EvaluateUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if len(granted) != 0 {
		t.Fatalf("expected no new grants, got %+v", granted)
	}
	after, _ = store.GetUser(ctx, u.ID)
	if after.TotalScore != 145 {
		t.Fatalf("score moved on re-evaluation: %d", after.TotalScore)
	}
}

func TestEvaluateUserSkipsInactiveBadges(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Email: "a@b.c", Active: true, TotalScore: 500})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	b, err := svc.Create(ctx, CreateInput{Name: "Dormant", Type: badge.TypeScore, Rules: scoreRules(1)})
	if err != nil {
		t.Fatalf("create badge: %v", err)
	}
	if _, err := svc.ToggleActive(ctx, b.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	granted, err := svc.EvaluateUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(granted) != 0 {
		t.Fatalf("inactive badge was granted: %+v", granted)
	}
}

func scoreRules(threshold float64) []badge.Rule {
	return []badge.Rule{{Condition: user.StatTotalScore, Operator: badge.OpGreaterEqual, Value: threshold}}
}
