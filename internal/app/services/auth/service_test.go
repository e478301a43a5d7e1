package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/app/storage/memory"
)

func TestRegisterAndLogin(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Email:     "Alice@Example.com",
		Password:  "supersecret",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalised: %q", u.Email)
	}
	if u.Role != user.RoleUser {
		t.Fatalf("expected default role USER, got %s", u.Role)
	}
	if !u.Active {
		t.Fatalf("new accounts should be active")
	}

	if _, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "supersecret"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}

	sess, logged, err := svc.Login(ctx, "alice@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.ID == "" || logged.ID != u.ID {
		t.Fatalf("unexpected session %+v user %+v", sess, logged)
	}

	authed, err := svc.Authenticate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != u.ID {
		t.Fatalf("authenticated wrong user: %s", authed.ID)
	}

	if err := svc.Logout(ctx, sess.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(ctx, sess.ID); err != nil {
		t.Fatalf("logout should be idempotent: %v", err)
	}
	if _, err := svc.Authenticate(ctx, sess.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "", Password: "supersecret"}); err == nil {
		t.Fatalf("expected error for missing email")
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "short"}); err == nil {
		t.Fatalf("expected error for short password")
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "supersecret", Role: user.RoleSuperAdmin}); err == nil {
		t.Fatalf("SUPER_ADMIN must not be self-assignable")
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "supersecret", Role: "WIZARD"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestLoginMasksFailureModes(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "nobody@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
	if _, _, err := svc.Login(ctx, "bob@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}

	u.Active = false
	if _, err := store.UpdateUser(ctx, u); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := svc.Login(ctx, "bob@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("inactive account: got %v", err)
	}
}

func TestEnsureSuperAdmin(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()

	if err := svc.EnsureSuperAdmin(ctx, "admin@example.com", "adminsecret"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	admin, err := store.GetUserByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if admin.Role != user.RoleSuperAdmin || !admin.Active {
		t.Fatalf("expected active super admin, got %+v", admin)
	}

	// Second call is a no-op.
	if err := svc.EnsureSuperAdmin(ctx, "admin@example.com", "adminsecret"); err != nil {
		t.Fatalf("ensure again: %v", err)
	}

	// An existing regular account gets promoted.
	if _, err := svc.Register(ctx, RegisterInput{Email: "promote@example.com", Password: "supersecret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.EnsureSuperAdmin(ctx, "promote@example.com", "ignored"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	promoted, err := store.GetUserByEmail(ctx, "promote@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if promoted.Role != user.RoleSuperAdmin {
		t.Fatalf("expected promotion, got %s", promoted.Role)
	}
}
