package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/invitation"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/session"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
)

func TestUserUniqueEmail(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, user.User{Email: "a@b.c"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateUser(ctx, user.User{Email: "A@B.C"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict on case-insensitive duplicate, got %v", err)
	}
}

func TestAddBadgeIsSetAdd(t *testing.T) {
	store := New()
	ctx := context.Background()

	u, _ := store.CreateUser(ctx, user.User{Email: "a@b.c"})

	added, err := store.AddBadge(ctx, u.ID, "b1")
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = store.AddBadge(ctx, u.ID, "b1")
	if err != nil || added {
		t.Fatalf("second add should be a no-op: added=%v err=%v", added, err)
	}
	if _, err := store.AddBadge(ctx, "missing", "b1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestParticipationUniquePerUserChallenge(t *testing.T) {
	store := New()
	ctx := context.Background()

	p := participation.Participation{UserID: "u1", ChallengeID: "c1"}
	if _, err := store.CreateParticipation(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateParticipation(ctx, p); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAppendWorkoutSessionBumpsTotals(t *testing.T) {
	store := New()
	ctx := context.Background()

	p, _ := store.CreateParticipation(ctx, participation.Participation{UserID: "u1", ChallengeID: "c1"})
	updated, err := store.AppendWorkoutSession(ctx, p.ID, participation.WorkoutSession{
		Date:          time.Now().UTC(),
		Exercises:     []participation.ExerciseResult{{ExerciseID: "ex-1"}},
		TotalDuration: 20,
		TotalCalories: 150,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if updated.TotalWorkouts != 1 || updated.TotalDuration != 20 || updated.TotalCalories != 150 {
		t.Fatalf("totals wrong: %+v", updated)
	}
	if len(updated.WorkoutSessions) != 1 {
		t.Fatalf("session not stored")
	}
}

func TestSessionIDsAreUnguessable(t *testing.T) {
	store := New()
	ctx := context.Background()
	expiry := time.Now().UTC().Add(time.Hour)

	first, _ := store.CreateSession(ctx, session.Session{UserID: "u1", ExpiresAt: expiry})
	second, _ := store.CreateSession(ctx, session.Session{UserID: "u2", ExpiresAt: expiry})

	// The ID is the bearer credential; the counter used for other entity
	// IDs would make it enumerable.
	for _, sess := range []session.Session{first, second} {
		if _, err := strconv.Atoi(sess.ID); err == nil {
			t.Fatalf("session ID %q is a plain integer", sess.ID)
		}
	}
	if first.ID == second.ID {
		t.Fatalf("duplicate session IDs")
	}
	for i := 1; i <= 10; i++ {
		if _, err := store.FindActiveSession(ctx, strconv.Itoa(i)); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("guessed token %d resolved to a session", i)
		}
	}
}

func TestSessionExpiry(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Now().UTC()

	live, _ := store.CreateSession(ctx, session.Session{UserID: "u1", ExpiresAt: now.Add(time.Hour)})
	dead, _ := store.CreateSession(ctx, session.Session{UserID: "u1", ExpiresAt: now.Add(-time.Hour)})

	if _, err := store.FindActiveSession(ctx, live.ID); err != nil {
		t.Fatalf("live session: %v", err)
	}
	if _, err := store.FindActiveSession(ctx, dead.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired session should be invisible, got %v", err)
	}

	n, err := store.DeleteExpiredSessions(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d err %v", n, err)
	}
}

func TestPendingInvitationUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	inv := invitation.Invitation{ChallengeID: "c1", FromUserID: "u1", ToUserID: "u2"}
	created, err := store.CreateInvitation(ctx, inv)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ExpiresAt.IsZero() {
		t.Fatalf("default expiry not applied")
	}
	if _, err := store.CreateInvitation(ctx, inv); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict for duplicate pending, got %v", err)
	}

	// Once it leaves PENDING the pair can be invited again.
	created.Status = invitation.StatusDeclined
	if _, err := store.UpdateInvitation(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := store.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("re-invite after decline: %v", err)
	}
}
