package gyms

import (
	"context"
	"errors"
	"testing"

	"github.com/fitchallenge/backend/internal/app/domain/exercise"
	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/app/storage/memory"
)

func TestCreateLinksOwner(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, user.User{Email: "owner@example.com", Role: user.RoleGymOwner, Active: true})

	g, err := svc.Create(ctx, CreateInput{Name: "Steel Works", OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Status != gym.StatusPending {
		t.Fatalf("expected PENDING, got %s", g.Status)
	}

	linked, _ := store.GetUser(ctx, owner.ID)
	if linked.GymID != g.ID {
		t.Fatalf("owner not linked: %q", linked.GymID)
	}

	if _, err := svc.Create(ctx, CreateInput{Name: "Orphan Gym", OwnerID: "missing"}); err == nil {
		t.Fatalf("create with unknown owner should fail")
	}
}

func TestApprovalWorkflow(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, user.User{Email: "owner@example.com", Role: user.RoleGymOwner, Active: true})
	g, err := svc.Create(ctx, CreateInput{Name: "Steel Works", OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	approved, err := svc.Approve(ctx, g.ID, "admin-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != gym.StatusApproved || approved.ApprovedBy != "admin-1" {
		t.Fatalf("approval wrong: %+v", approved)
	}

	// Review is a one-shot transition out of PENDING.
	if _, err := svc.Approve(ctx, g.ID, "admin-1"); err == nil {
		t.Fatalf("second approval should fail")
	}
	if _, err := svc.Reject(ctx, g.ID, "admin-1"); err == nil {
		t.Fatalf("rejecting an approved gym should fail")
	}
}

func TestUpdateMasksNonOwner(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, user.User{Email: "owner@example.com", Role: user.RoleGymOwner, Active: true})
	g, err := svc.Create(ctx, CreateInput{Name: "Steel Works", OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Iron Works"
	stranger := user.User{ID: "someone-else", Role: user.RoleGymOwner}
	if _, err := svc.Update(ctx, g.ID, stranger, UpdateInput{Name: &name}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not-found mask, got %v", err)
	}

	caller, _ := store.GetUser(ctx, owner.ID)
	updated, err := svc.Update(ctx, g.ID, caller, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name not updated: %q", updated.Name)
	}

	admin := user.User{ID: "admin", Role: user.RoleSuperAdmin}
	if _, err := svc.Update(ctx, g.ID, admin, UpdateInput{Name: &name}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestAssignExercisesValidatesCatalog(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, user.User{Email: "owner@example.com", Role: user.RoleGymOwner, Active: true})
	g, _ := svc.Create(ctx, CreateInput{Name: "Steel Works", OwnerID: owner.ID})

	if _, err := svc.AssignExercises(ctx, g.ID, []string{"missing"}); err == nil {
		t.Fatalf("unknown exercise accepted")
	}

	ex, _ := store.CreateExercise(ctx, exercise.TypeExercise{Name: "Rowing"})
	updated, err := svc.AssignExercises(ctx, g.ID, []string{ex.ID})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(updated.ExerciseIDs) != 1 || updated.ExerciseIDs[0] != ex.ID {
		t.Fatalf("assignment wrong: %+v", updated.ExerciseIDs)
	}
}

func TestDeleteUnlinksOwner(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, user.User{Email: "owner@example.com", Role: user.RoleGymOwner, Active: true})
	g, _ := svc.Create(ctx, CreateInput{Name: "Steel Works", OwnerID: owner.ID})

	if err := svc.Delete(ctx, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	unlinked, _ := store.GetUser(ctx, owner.ID)
	if unlinked.GymID != "" {
		t.Fatalf("owner still linked: %q", unlinked.GymID)
	}
}
