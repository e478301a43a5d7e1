package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/platform/migrations"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)
	suffix := time.Now().UnixNano()

	u, err := store.CreateUser(ctx, user.User{
		Email:        fmt.Sprintf("athlete-%d@example.com", suffix),
		PasswordHash: "hash",
		Role:         user.RoleUser,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := store.CreateUser(ctx, user.User{
		Email:        u.Email,
		PasswordHash: "hash",
		Role:         user.RoleUser,
		Active:       true,
	}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate email: got %v, want ErrConflict", err)
	}

	c, err := store.CreateChallenge(ctx, challenge.Challenge{
		Title:      fmt.Sprintf("challenge-%d", suffix),
		Type:       challenge.TypeIndividual,
		Difficulty: challenge.DifficultyBeginner,
		Status:     challenge.StatusActive,
		CreatedBy:  u.ID,
		IsPublic:   true,
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	p, err := store.CreateParticipation(ctx, participation.Participation{
		ChallengeID: c.ID,
		UserID:      u.ID,
	})
	if err != nil {
		t.Fatalf("create participation: %v", err)
	}
	if _, err := store.CreateParticipation(ctx, participation.Participation{
		ChallengeID: c.ID,
		UserID:      u.ID,
	}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate participation: got %v, want ErrConflict", err)
	}

	got, err := store.AppendWorkoutSession(ctx, p.ID, participation.WorkoutSession{
		Date:          time.Now().UTC(),
		TotalDuration: 30,
		TotalCalories: 250,
	})
	if err != nil {
		t.Fatalf("append workout session: %v", err)
	}
	if got.TotalWorkouts != 1 || got.TotalCalories != 250 {
		t.Fatalf("totals not incremented: %+v", got)
	}

	added, err := store.AddBadge(ctx, u.ID, "badge-1")
	if err != nil {
		t.Fatalf("add badge: %v", err)
	}
	if !added {
		t.Fatal("expected badge to be newly added")
	}
	added, err = store.AddBadge(ctx, u.ID, "badge-1")
	if err != nil {
		t.Fatalf("add badge again: %v", err)
	}
	if added {
		t.Fatal("expected repeat badge add to report false")
	}
}
