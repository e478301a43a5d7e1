package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/services/gyms"
	"github.com/fitchallenge/backend/internal/middleware"
)

func (h *handler) registerGymRoutes(api *mux.Router) {
	owners := []user.Role{user.RoleGymOwner, user.RoleSuperAdmin}
	admin := []user.Role{user.RoleSuperAdmin}

	api.Handle("/gyms", h.withRoles(h.createGym, owners...)).Methods(http.MethodPost)
	api.Handle("/gyms", h.authed(h.listGyms)).Methods(http.MethodGet)
	api.Handle("/gyms/my", h.withRoles(h.myGym, owners...)).Methods(http.MethodGet)
	api.Handle("/gyms/{id}", h.authed(h.getGym)).Methods(http.MethodGet)
	api.Handle("/gyms/{id}", h.withRoles(h.updateGym, owners...)).Methods(http.MethodPut)
	api.Handle("/gyms/{id}", h.withRoles(h.deleteGym, admin...)).Methods(http.MethodDelete)
	api.Handle("/gyms/{id}/approve", h.withRoles(h.approveGym, admin...)).Methods(http.MethodPatch)
	api.Handle("/gyms/{id}/reject", h.withRoles(h.rejectGym, admin...)).Methods(http.MethodPatch)
	api.Handle("/gyms/{id}/exercises", h.withRoles(h.assignGymExercises, admin...)).Methods(http.MethodPatch)
}

func (h *handler) createGym(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		Name        string   `json:"name"`
		Location    string   `json:"location"`
		Description string   `json:"description"`
		Capacity    int      `json:"capacity"`
		Equipment   []string `json:"equipment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Gyms.Create(r.Context(), gyms.CreateInput{
		Name:        payload.Name,
		Location:    payload.Location,
		Description: payload.Description,
		Capacity:    payload.Capacity,
		Equipment:   payload.Equipment,
		OwnerID:     u.ID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGymView(created))
}

func (h *handler) listGyms(w http.ResponseWriter, r *http.Request) {
	status := gym.Status(r.URL.Query().Get("status"))
	list, err := h.app.Gyms.List(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGymViews(list))
}

func (h *handler) myGym(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	g, err := h.app.Gyms.GetByOwner(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGymView(g))
}

func (h *handler) getGym(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Gyms.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGymView(g))
}

func (h *handler) updateGym(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		Name        *string  `json:"name"`
		Location    *string  `json:"location"`
		Description *string  `json:"description"`
		Capacity    *int     `json:"capacity"`
		Equipment   []string `json:"equipment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Gyms.Update(r.Context(), mux.Vars(r)["id"], u, gyms.UpdateInput{
		Name:        payload.Name,
		Location:    payload.Location,
		Description: payload.Description,
		Capacity:    payload.Capacity,
		Equipment:   payload.Equipment,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGymView(updated))
}

func (h *handler) deleteGym(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Gyms.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) approveGym(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	g, err := h.app.Gyms.Approve(r.Context(), mux.Vars(r)["id"], u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGymView(g))
}

func (h *handler) rejectGym(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	g, err := h.app.Gyms.Reject(r.Context(), mux.Vars(r)["id"], u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGymView(g))
}

func (h *handler) assignGymExercises(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ExerciseIDs []string `json:"exerciseIds"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := h.app.Gyms.AssignExercises(r.Context(), mux.Vars(r)["id"], payload.ExerciseIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGymView(g))
}
