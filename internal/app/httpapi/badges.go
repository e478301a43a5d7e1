package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fitchallenge/backend/internal/app/domain/badge"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/services/badges"
	"github.com/fitchallenge/backend/internal/middleware"
)

func (h *handler) registerBadgeRoutes(api *mux.Router) {
	admin := []user.Role{user.RoleSuperAdmin}

	api.Handle("/badges", h.authed(h.listBadges)).Methods(http.MethodGet)
	api.Handle("/badges", h.withRoles(h.createBadge, admin...)).Methods(http.MethodPost)
	api.Handle("/badges/active", h.authed(h.listActiveBadges)).Methods(http.MethodGet)
	api.Handle("/badges/type/{type}", h.authed(h.listBadgesByType)).Methods(http.MethodGet)
	api.Handle("/badges/{id}", h.authed(h.getBadge)).Methods(http.MethodGet)
	api.Handle("/badges/{id}", h.withRoles(h.updateBadge, admin...)).Methods(http.MethodPut)
	api.Handle("/badges/{id}", h.withRoles(h.deleteBadge, admin...)).Methods(http.MethodDelete)
	api.Handle("/badges/{id}/toggle-status", h.withRoles(h.toggleBadge, admin...)).Methods(http.MethodPatch)
}

func (h *handler) listBadges(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Badges.List(r.Context(), false, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBadgeViews(list))
}

func (h *handler) listActiveBadges(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Badges.List(r.Context(), true, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBadgeViews(list))
}

func (h *handler) listBadgesByType(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Badges.List(r.Context(), false, badge.Type(mux.Vars(r)["type"]))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBadgeViews(list))
}

func (h *handler) getBadge(w http.ResponseWriter, r *http.Request) {
	b, err := h.app.Badges.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBadgeView(b))
}

func (h *handler) createBadge(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		Name        string       `json:"name"`
		Description string       `json:"description"`
		Type        string       `json:"type"`
		Rules       []badge.Rule `json:"rules"`
		Points      int          `json:"points"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Badges.Create(r.Context(), badges.CreateInput{
		Name:        payload.Name,
		Description: payload.Description,
		Type:        badge.Type(payload.Type),
		Rules:       payload.Rules,
		Points:      payload.Points,
		CreatedBy:   u.ID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBadgeView(created))
}

func (h *handler) updateBadge(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        *string      `json:"name"`
		Description *string      `json:"description"`
		Type        *string      `json:"type"`
		Rules       []badge.Rule `json:"rules"`
		Points      *int         `json:"points"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	in := badges.UpdateInput{
		Name:        payload.Name,
		Description: payload.Description,
		Rules:       payload.Rules,
		Points:      payload.Points,
	}
	if payload.Type != nil {
		t := badge.Type(*payload.Type)
		in.Type = &t
	}

	updated, err := h.app.Badges.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBadgeView(updated))
}

func (h *handler) toggleBadge(w http.ResponseWriter, r *http.Request) {
	b, err := h.app.Badges.ToggleActive(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBadgeView(b))
}

func (h *handler) deleteBadge(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Badges.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
