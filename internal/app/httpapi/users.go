package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/services/users"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/middleware"
)

func (h *handler) registerUserRoutes(api *mux.Router) {
	api.HandleFunc("/users/leaderboard", h.userLeaderboard).Methods(http.MethodGet)

	api.Handle("/users/profile", h.authed(h.profile)).Methods(http.MethodGet)
	api.Handle("/users/profile", h.authed(h.updateProfile)).Methods(http.MethodPatch)
	api.Handle("/users/friends", h.authed(h.listFriends)).Methods(http.MethodGet)
	api.Handle("/users/friends/{friendId}", h.authed(h.addFriend)).Methods(http.MethodPost)
	api.Handle("/users/friends/{friendId}", h.authed(h.removeFriend)).Methods(http.MethodDelete)

	admin := []user.Role{user.RoleSuperAdmin}
	api.Handle("/users", h.withRoles(h.listUsers, admin...)).Methods(http.MethodGet)
	api.Handle("/users/stats", h.withRoles(h.userCounts, admin...)).Methods(http.MethodGet)
	api.Handle("/users/{id}/activate", h.withRoles(h.activateUser, admin...)).Methods(http.MethodPatch)
	api.Handle("/users/{id}/deactivate", h.withRoles(h.deactivateUser, admin...)).Methods(http.MethodPatch)
	api.Handle("/users/{id}", h.withRoles(h.deleteUser, admin...)).Methods(http.MethodDelete)
}

func (h *handler) userLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := h.app.Users.Top(r.Context(), 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserViews(top))
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, newUserView(u))
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Users.UpdateProfile(r.Context(), u.ID, users.UpdateProfileInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(updated))
}

func (h *handler) listFriends(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	friends := make([]userView, 0, len(u.Friends))
	for _, friendID := range u.Friends {
		friend, err := h.app.Users.Get(r.Context(), friendID)
		if err != nil || !friend.Active {
			continue
		}
		friends = append(friends, newUserView(friend))
	}
	writeJSON(w, http.StatusOK, friends)
}

func (h *handler) addFriend(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	friendID := mux.Vars(r)["friendId"]

	if err := h.app.Users.AddFriend(r.Context(), u.ID, friendID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "friend added"})
}

func (h *handler) removeFriend(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	friendID := mux.Vars(r)["friendId"]

	if err := h.app.Users.RemoveFriend(r.Context(), u.ID, friendID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "friend removed"})
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := buildUserFilter(r)
	list, err := h.app.Users.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserViews(list))
}

func buildUserFilter(r *http.Request) storage.UserFilter {
	q := r.URL.Query()
	filter := storage.UserFilter{
		Role:  user.Role(q.Get("role")),
		GymID: q.Get("gymId"),
	}
	if raw := q.Get("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		filter.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		filter.Offset = n
	}
	return filter
}

func (h *handler) userCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.app.Users.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *handler) activateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, true)
}

func (h *handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, false)
}

func (h *handler) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	updated, err := h.app.Users.SetActive(r.Context(), mux.Vars(r)["id"], active)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(updated))
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Users.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
