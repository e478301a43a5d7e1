package invitations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/invitation"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/services/participations"
	"github.com/fitchallenge/backend/internal/app/storage/memory"
)

type fixture struct {
	store   *memory.Store
	svc     *Service
	creator user.User
	friend  user.User
	c       challenge.Challenge
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	svc := New(store, store, store, store, nil)
	joiner := participations.New(store, store, store, nil)
	svc.AttachJoiner(joiner)
	ctx := context.Background()

	friend, err := store.CreateUser(ctx, user.User{Email: "friend@example.com", Active: true})
	if err != nil {
		t.Fatalf("create friend: %v", err)
	}
	creator, err := store.CreateUser(ctx, user.User{
		Email:   "creator@example.com",
		Active:  true,
		Friends: []string{friend.ID},
	})
	if err != nil {
		t.Fatalf("create creator: %v", err)
	}
	c, err := store.CreateChallenge(ctx, challenge.Challenge{
		Title:     "duel",
		Status:    challenge.StatusActive,
		CreatedBy: creator.ID,
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return fixture{store: store, svc: svc, creator: creator, friend: friend, c: c}
}

func TestInviteFriends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stranger, _ := f.store.CreateUser(ctx, user.User{Email: "stranger@example.com", Active: true})

	results, err := f.svc.InviteFriends(ctx, f.creator, f.c.ID, []string{f.friend.ID, stranger.ID, f.creator.ID}, "join me")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Invitation == nil || results[0].Error != "" {
		t.Fatalf("friend invite should succeed: %+v", results[0])
	}
	if results[1].Invitation != nil || results[1].Error == "" {
		t.Fatalf("non-friend should be rejected: %+v", results[1])
	}
	if results[2].Error == "" {
		t.Fatalf("self-invite should be rejected")
	}

	// A second identical invite hits the pending-uniqueness rule.
	results, err = f.svc.InviteFriends(ctx, f.creator, f.c.ID, []string{f.friend.ID}, "")
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if results[0].Error == "" {
		t.Fatalf("duplicate pending invite should be rejected")
	}
}

func TestInviteRequiresCreatorOrParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outsider, _ := f.store.CreateUser(ctx, user.User{
		Email:   "outsider@example.com",
		Active:  true,
		Friends: []string{f.friend.ID},
	})
	if _, err := f.svc.InviteFriends(ctx, outsider, f.c.ID, []string{f.friend.ID}, ""); err == nil {
		t.Fatalf("outsider invite should fail")
	}
}

func TestAcceptCreatesParticipation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.ChallengeUser(ctx, f.creator, f.c.ID, f.friend.ID, "beat this")
	if err != nil {
		t.Fatalf("challenge user: %v", err)
	}
	if inv.Type != invitation.TypeFriendChallenge {
		t.Fatalf("expected FRIEND_CHALLENGE, got %s", inv.Type)
	}

	// Only the recipient may act on it.
	if _, _, err := f.svc.Accept(ctx, f.creator.ID, inv.ID); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("sender accept: expected ErrNotRecipient, got %v", err)
	}

	accepted, p, err := f.svc.Accept(ctx, f.friend.ID, inv.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if p.UserID != f.friend.ID || p.ChallengeID != f.c.ID {
		t.Fatalf("participation wrong: %+v", p)
	}
	if p.InvitedBy != f.creator.ID {
		t.Fatalf("inviter not recorded: %+v", p)
	}
	if accepted.Status != invitation.StatusAccepted {
		t.Fatalf("returned invitation not consumed: %s", accepted.Status)
	}

	after, _ := f.store.GetInvitation(ctx, inv.ID)
	if after.Status != invitation.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", after.Status)
	}

	// A consumed invitation cannot be accepted again.
	if _, _, err := f.svc.Accept(ctx, f.friend.ID, inv.ID); err == nil {
		t.Fatalf("second accept should fail")
	}
}

func TestAcceptExpiredAtUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.store.CreateInvitation(ctx, invitation.Invitation{
		ChallengeID: f.c.ID,
		FromUserID:  f.creator.ID,
		ToUserID:    f.friend.ID,
		Type:        invitation.TypeChallengeInvite,
		ExpiresAt:   time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed invitation: %v", err)
	}

	if _, _, err := f.svc.Accept(ctx, f.friend.ID, inv.ID); err == nil {
		t.Fatalf("expected expiry rejection")
	}
	after, _ := f.store.GetInvitation(ctx, inv.ID)
	if after.Status != invitation.StatusExpired {
		t.Fatalf("expected EXPIRED, got %s", after.Status)
	}
}

func TestDecline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.ChallengeUser(ctx, f.creator, f.c.ID, f.friend.ID, "")
	if err != nil {
		t.Fatalf("challenge user: %v", err)
	}
	declined, err := f.svc.Decline(ctx, f.friend.ID, inv.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != invitation.StatusDeclined {
		t.Fatalf("expected DECLINED, got %s", declined.Status)
	}

	// No participation was created.
	if _, err := f.store.GetUserChallengeParticipation(ctx, f.friend.ID, f.c.ID); err == nil {
		t.Fatalf("decline must not create a participation")
	}
}

func TestExpirePendingSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.store.CreateInvitation(ctx, invitation.Invitation{
		ChallengeID: f.c.ID,
		FromUserID:  f.creator.ID,
		ToUserID:    f.friend.ID,
		ExpiresAt:   time.Now().UTC().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := f.svc.ExpirePending(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	pending, err := f.svc.ListPending(ctx, f.friend.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expired invitation still pending: %+v", pending)
	}
}
