package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/fitchallenge/backend/internal/app"
)

func newTestAPI(t *testing.T) (*app.Application, http.Handler) {
	t.Helper()
	application, err := app.New(app.Stores{}, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	if err := application.Auth.EnsureSuperAdmin(context.Background(), "admin@example.com", "adminsecret"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	return application, NewHandler(application, nil, Options{})
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func registerAndLogin(t *testing.T, h http.Handler, email string) (id, token string) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "supersecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var u struct {
		ID string `json:"id"`
	}
	decode(t, rec, &u)
	return u.ID, login(t, h, email, "supersecret")
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var out struct {
		SessionID string `json:"sessionId"`
	}
	decode(t, rec, &out)
	if out.SessionID == "" {
		t.Fatalf("no session id in login response")
	}
	return out.SessionID
}

func TestAuthFlow(t *testing.T) {
	_, h := newTestAPI(t)

	_, token := registerAndLogin(t, h, "alice@example.com")

	// Duplicate email surfaces as a conflict.
	rec := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "supersecret",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", rec.Code)
	}

	// Wrong password is a 401, not a 404.
	rec = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrongpass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/api/auth/me", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/auth/me", "bogus-session", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me with bogus token: %d", rec.Code)
	}

	if rec := do(t, h, http.MethodPost, "/api/auth/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/auth/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: %d", rec.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	_, h := newTestAPI(t)

	_, userToken := registerAndLogin(t, h, "plain@example.com")

	rec := do(t, h, http.MethodPost, "/api/exercises", userToken, map[string]interface{}{
		"name": "Deadlift",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user creating exercise: %d", rec.Code)
	}

	adminToken := login(t, h, "admin@example.com", "adminsecret")
	rec = do(t, h, http.MethodPost, "/api/exercises", adminToken, map[string]interface{}{
		"name":            "Deadlift",
		"targetedMuscles": []string{"back", "hamstrings"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin creating exercise: %d %s", rec.Code, rec.Body.String())
	}
}

func TestChallengeLifecycleOverHTTP(t *testing.T) {
	application, h := newTestAPI(t)
	ctx := context.Background()

	adminToken := login(t, h, "admin@example.com", "adminsecret")

	// Catalog and badge setup.
	rec := do(t, h, http.MethodPost, "/api/exercises", adminToken, map[string]interface{}{"name": "Burpees"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create exercise: %d %s", rec.Code, rec.Body.String())
	}
	var ex struct {
		ID string `json:"id"`
	}
	decode(t, rec, &ex)

	rec = do(t, h, http.MethodPost, "/api/badges", adminToken, map[string]interface{}{
		"name": "Finisher",
		"type": "CHALLENGE",
		"rules": []map[string]interface{}{
			{"condition": "challengesCompleted", "operator": ">=", "value": 1},
		},
		"points": 30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create badge: %d %s", rec.Code, rec.Body.String())
	}

	// Alice authors and activates a challenge.
	_, alice := registerAndLogin(t, h, "alice@example.com")
	rec = do(t, h, http.MethodPost, "/api/challenges", alice, map[string]interface{}{
		"title":        "Burpee Blitz",
		"difficulty":   "BEGINNER",
		"durationDays": 14,
		"exercises":    []map[string]interface{}{{"exerciseId": ex.ID, "sets": 3, "reps": 15}},
		"rewards":      map[string]interface{}{"points": 50},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create challenge: %d %s", rec.Code, rec.Body.String())
	}
	var ch struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &ch)
	if ch.Status != "DRAFT" {
		t.Fatalf("new challenge should be DRAFT: %s", ch.Status)
	}

	// Joining before activation fails.
	bobID, bob := registerAndLogin(t, h, "bob@example.com")
	if rec := do(t, h, http.MethodPost, "/api/challenges/"+ch.ID+"/join", bob, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("join draft: %d", rec.Code)
	}

	if rec := do(t, h, http.MethodPatch, "/api/challenges/"+ch.ID+"/activate", alice, nil); rec.Code != http.StatusOK {
		t.Fatalf("activate: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/challenges/public", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("public list: %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/challenges/"+ch.ID+"/join", bob, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("join: %d %s", rec.Code, rec.Body.String())
	}
	var part struct {
		ID string `json:"id"`
	}
	decode(t, rec, &part)

	if rec := do(t, h, http.MethodPost, "/api/challenges/"+ch.ID+"/join", bob, nil); rec.Code != http.StatusConflict {
		t.Fatalf("double join: %d", rec.Code)
	}

	// Bob logs a workout and completes.
	rec = do(t, h, http.MethodPost, "/api/challenges/participations/"+part.ID+"/workout", bob, map[string]interface{}{
		"exercises":     []map[string]interface{}{{"exerciseId": ex.ID, "sets": 3, "reps": 15, "completed": true}},
		"totalDuration": 25,
		"totalCalories": 300,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("log workout: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPatch, "/api/challenges/participations/"+part.ID+"/progress", bob, map[string]int{"progress": 100})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body.String())
	}
	var done struct {
		Status       string `json:"status"`
		PointsEarned int    `json:"pointsEarned"`
	}
	decode(t, rec, &done)
	if done.Status != "COMPLETED" || done.PointsEarned != 50 {
		t.Fatalf("completion wrong: %+v", done)
	}

	// The queue worker is not running in tests; evaluate synchronously.
	if err := application.Awarder.EvaluateNow(ctx, bobID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	rec = do(t, h, http.MethodGet, "/api/auth/me", bob, nil)
	var me struct {
		TotalScore          int      `json:"totalScore"`
		Badges              []string `json:"badges"`
		ChallengesCompleted int      `json:"challengesCompleted"`
	}
	decode(t, rec, &me)
	if me.ChallengesCompleted != 1 {
		t.Fatalf("lifetime completions: %+v", me)
	}
	if len(me.Badges) != 1 {
		t.Fatalf("badge not granted: %+v", me)
	}
	if me.TotalScore != 80 { // 50 reward + 30 badge
		t.Fatalf("score: %+v", me)
	}

	rec = do(t, h, http.MethodGet, "/api/challenges/"+ch.ID+"/leaderboard", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: %d", rec.Code)
	}
	var board []struct {
		UserID   string `json:"userId"`
		Progress int    `json:"progress"`
	}
	decode(t, rec, &board)
	if len(board) != 1 || board[0].UserID != bobID || board[0].Progress != 100 {
		t.Fatalf("leaderboard wrong: %+v", board)
	}

	// Completed participations reject further updates.
	if rec := do(t, h, http.MethodPatch, "/api/challenges/participations/"+part.ID+"/progress", bob, map[string]int{"progress": 10}); rec.Code != http.StatusBadRequest {
		t.Fatalf("update after completion: %d", rec.Code)
	}

	// Other users cannot see foreign participations, not even their status.
	if rec := do(t, h, http.MethodPost, "/api/challenges/participations/"+part.ID+"/abandon", alice, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign abandon: %d", rec.Code)
	}
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	_, h := newTestAPI(t)

	aliceID, alice := registerAndLogin(t, h, "alice@example.com")
	bobID, bob := registerAndLogin(t, h, "bob@example.com")
	adminToken := login(t, h, "admin@example.com", "adminsecret")

	rec := do(t, h, http.MethodPost, "/api/exercises", adminToken, map[string]interface{}{"name": "Squats"})
	var ex struct {
		ID string `json:"id"`
	}
	decode(t, rec, &ex)

	rec = do(t, h, http.MethodPost, "/api/challenges", alice, map[string]interface{}{
		"title":        "Squat Showdown",
		"difficulty":   "ADVANCED",
		"durationDays": 7,
		"exercises":    []map[string]interface{}{{"exerciseId": ex.ID}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create challenge: %d %s", rec.Code, rec.Body.String())
	}
	var ch struct {
		ID string `json:"id"`
	}
	decode(t, rec, &ch)
	if rec := do(t, h, http.MethodPatch, "/api/challenges/"+ch.ID+"/activate", alice, nil); rec.Code != http.StatusOK {
		t.Fatalf("activate: %d", rec.Code)
	}

	// Inviting a non-friend is reported per target, not as a request error.
	rec = do(t, h, http.MethodPost, "/api/challenges/"+ch.ID+"/invite", alice, map[string]interface{}{
		"friendIds": []string{bobID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite: %d %s", rec.Code, rec.Body.String())
	}
	var batch struct {
		Results []struct {
			Error string `json:"error"`
		} `json:"results"`
	}
	decode(t, rec, &batch)
	if len(batch.Results) != 1 || batch.Results[0].Error == "" {
		t.Fatalf("non-friend invite should be reported: %+v", batch)
	}

	if rec := do(t, h, http.MethodPost, "/api/users/friends/"+bobID, alice, nil); rec.Code != http.StatusOK {
		t.Fatalf("add friend: %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/challenges/"+ch.ID+"/invite", alice, map[string]interface{}{
		"friendIds": []string{bobID},
		"message":   "race you",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite: %d %s", rec.Code, rec.Body.String())
	}
	var sent struct {
		Results []struct {
			Error      string `json:"error"`
			Invitation *struct {
				ID string `json:"id"`
			} `json:"invitation"`
		} `json:"results"`
	}
	decode(t, rec, &sent)
	if len(sent.Results) != 1 || sent.Results[0].Invitation == nil {
		t.Fatalf("invite failed: %+v", sent)
	}
	invID := sent.Results[0].Invitation.ID

	rec = do(t, h, http.MethodGet, "/api/invitations/pending", bob, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending: %d", rec.Code)
	}
	var pending []struct {
		ID         string `json:"id"`
		FromUserID string `json:"fromUserId"`
	}
	decode(t, rec, &pending)
	if len(pending) != 1 || pending[0].ID != invID || pending[0].FromUserID != aliceID {
		t.Fatalf("pending wrong: %+v", pending)
	}

	// Only the recipient may accept.
	if rec := do(t, h, http.MethodPost, "/api/invitations/"+invID+"/accept", alice, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("sender accept: %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/invitations/"+invID+"/accept", bob, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", rec.Code, rec.Body.String())
	}
	var accept struct {
		Invitation struct {
			Status string `json:"status"`
		} `json:"invitation"`
		Participation struct {
			ChallengeID string `json:"challengeId"`
			InvitedBy   string `json:"invitedBy"`
		} `json:"participation"`
	}
	decode(t, rec, &accept)
	if accept.Invitation.Status != "ACCEPTED" {
		t.Fatalf("invitation not consumed: %+v", accept.Invitation)
	}
	if accept.Participation.ChallengeID != ch.ID || accept.Participation.InvitedBy != aliceID {
		t.Fatalf("participation wrong: %+v", accept.Participation)
	}

	// The inbox shows it consumed on both sides.
	rec = do(t, h, http.MethodGet, "/api/invitations", alice, nil)
	var inbox struct {
		Sent []struct {
			Status string `json:"status"`
		} `json:"sent"`
	}
	decode(t, rec, &inbox)
	if len(inbox.Sent) != 1 || inbox.Sent[0].Status != "ACCEPTED" {
		t.Fatalf("sender inbox wrong: %+v", inbox)
	}
}

func TestHealthAndUnknownFieldRejection(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	var health struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	decode(t, rec, &health)
	if health.Status != "ok" || health.Timestamp == "" {
		t.Fatalf("health payload wrong: %+v", health)
	}

	rec = do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "x@example.com",
		"password": "supersecret",
		"isAdmin":  "true",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field accepted: %d", rec.Code)
	}
}
