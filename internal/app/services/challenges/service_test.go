package challenges

import (
	"context"
	"errors"
	"testing"

	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/app/storage/memory"
)

func validInput() CreateInput {
	return CreateInput{
		Title:        "Iron Month",
		Difficulty:   challenge.DifficultyIntermediate,
		DurationDays: 30,
		Exercises:    []challenge.Exercise{{ExerciseID: "ex-1", Sets: 5, Reps: 5}},
	}
}

func TestCreateDefaults(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()
	creator := user.User{ID: "u1", Role: user.RoleUser}

	c, err := svc.Create(ctx, creator, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != challenge.StatusDraft {
		t.Fatalf("expected DRAFT, got %s", c.Status)
	}
	if c.Type != challenge.TypeIndividual {
		t.Fatalf("expected INDIVIDUAL default, got %s", c.Type)
	}
	if !c.IsPublic {
		t.Fatalf("expected public by default")
	}
	if c.CreatedBy != creator.ID {
		t.Fatalf("creator not recorded")
	}
}

func TestCreateValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()
	creator := user.User{ID: "u1", Role: user.RoleUser}

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty title", func(in *CreateInput) { in.Title = "  " }},
		{"bad difficulty", func(in *CreateInput) { in.Difficulty = "IMPOSSIBLE" }},
		{"bad type", func(in *CreateInput) { in.Type = "TEAMISH" }},
		{"zero duration", func(in *CreateInput) { in.DurationDays = 0 }},
		{"negative cap", func(in *CreateInput) { in.MaxParticipants = -1 }},
		{"no exercises", func(in *CreateInput) { in.Exercises = nil }},
		{"exercise without id", func(in *CreateInput) { in.Exercises = []challenge.Exercise{{Sets: 3}} }},
		{"user with gym", func(in *CreateInput) { in.GymID = "g1" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.Create(ctx, creator, in); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestCreateGymPinning(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	g, err := store.CreateGym(ctx, gym.Gym{Name: "Steel Works", Status: gym.StatusApproved})
	if err != nil {
		t.Fatalf("create gym: %v", err)
	}

	// A gym owner is pinned to their own gym regardless of the request.
	owner := user.User{ID: "owner", Role: user.RoleGymOwner, GymID: g.ID}
	in := validInput()
	in.GymID = "someone-elses-gym"
	c, err := svc.Create(ctx, owner, in)
	if err != nil {
		t.Fatalf("owner create: %v", err)
	}
	if c.GymID != g.ID {
		t.Fatalf("owner not pinned to own gym: %q", c.GymID)
	}

	// Admins may set any existing gym; unknown gyms are rejected.
	admin := user.User{ID: "admin", Role: user.RoleSuperAdmin}
	in = validInput()
	in.GymID = g.ID
	if _, err := svc.Create(ctx, admin, in); err != nil {
		t.Fatalf("admin create: %v", err)
	}
	in.GymID = "missing"
	if _, err := svc.Create(ctx, admin, in); err == nil {
		t.Fatalf("admin create with unknown gym should fail")
	}
}

func TestActivate(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()
	creator := user.User{ID: "u1", Role: user.RoleUser}

	c, err := svc.Create(ctx, creator, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Someone else cannot even see it.
	if _, err := svc.Activate(ctx, c.ID, user.User{ID: "u2", Role: user.RoleUser}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not-found mask, got %v", err)
	}

	active, err := svc.Activate(ctx, c.ID, creator)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if active.Status != challenge.StatusActive {
		t.Fatalf("expected ACTIVE, got %s", active.Status)
	}
	if active.StartDate.IsZero() || active.EndDate.IsZero() {
		t.Fatalf("date window not pinned: %+v", active)
	}
	if got := active.EndDate.Sub(active.StartDate).Hours() / 24; got != 30 {
		t.Fatalf("expected 30 day window, got %v days", got)
	}

	if _, err := svc.Activate(ctx, c.ID, creator); err == nil {
		t.Fatalf("double activation should fail")
	}
}

func TestUpdateOnlyWhileDraft(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()
	creator := user.User{ID: "u1", Role: user.RoleUser}

	c, err := svc.Create(ctx, creator, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Iron Quarter"
	updated, err := svc.Update(ctx, c.ID, creator, UpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("title not updated: %q", updated.Title)
	}

	if _, err := svc.Activate(ctx, c.ID, creator); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := svc.Update(ctx, c.ID, creator, UpdateInput{Title: &title}); err == nil {
		t.Fatalf("active challenge should not be editable")
	}
}

func TestDeleteBlockedByParticipants(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()
	creator := user.User{ID: "u1", Role: user.RoleUser}

	c, err := svc.Create(ctx, creator, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.AddParticipants(ctx, c.ID, 1); err != nil {
		t.Fatalf("seed participant: %v", err)
	}
	if err := svc.Delete(ctx, c.ID, creator); err == nil {
		t.Fatalf("delete with participants should fail")
	}

	if err := store.AddParticipants(ctx, c.ID, -1); err != nil {
		t.Fatalf("release participant: %v", err)
	}
	if err := svc.Delete(ctx, c.ID, creator); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSearchAndListPublic(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()
	creator := user.User{ID: "u1", Role: user.RoleUser}

	pub, _ := svc.Create(ctx, creator, validInput())
	if _, err := svc.Activate(ctx, pub.ID, creator); err != nil {
		t.Fatalf("activate: %v", err)
	}

	hidden := validInput()
	hidden.Title = "Secret Society"
	private := false
	hidden.IsPublic = &private
	priv, _ := svc.Create(ctx, creator, hidden)
	if _, err := svc.Activate(ctx, priv.ID, creator); err != nil {
		t.Fatalf("activate private: %v", err)
	}

	list, err := svc.ListPublic(ctx)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(list) != 1 || list[0].ID != pub.ID {
		t.Fatalf("expected only the public challenge, got %+v", list)
	}

	hits, err := svc.Search(ctx, "iron", "", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != pub.ID {
		t.Fatalf("search missed the public challenge: %+v", hits)
	}

	if _, err := svc.Search(ctx, "", "IMPOSSIBLE", ""); err == nil {
		t.Fatalf("bad difficulty filter should be rejected")
	}
}
