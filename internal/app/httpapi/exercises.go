package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/services/exercises"
	"github.com/fitchallenge/backend/internal/middleware"
)

func (h *handler) registerExerciseRoutes(api *mux.Router) {
	admin := []user.Role{user.RoleSuperAdmin}

	api.Handle("/exercises", h.authed(h.listExercises)).Methods(http.MethodGet)
	api.Handle("/exercises", h.withRoles(h.createExercise, admin...)).Methods(http.MethodPost)
	api.Handle("/exercises/{id}", h.authed(h.getExercise)).Methods(http.MethodGet)
	api.Handle("/exercises/{id}", h.withRoles(h.updateExercise, admin...)).Methods(http.MethodPut)
	api.Handle("/exercises/{id}", h.withRoles(h.deleteExercise, admin...)).Methods(http.MethodDelete)
}

func (h *handler) listExercises(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Exercises.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newExerciseViews(list))
}

func (h *handler) createExercise(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		Name            string   `json:"name"`
		Description     string   `json:"description"`
		TargetedMuscles []string `json:"targetedMuscles"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Exercises.Create(r.Context(), payload.Name, payload.Description, payload.TargetedMuscles, u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExerciseView(created))
}

func (h *handler) getExercise(w http.ResponseWriter, r *http.Request) {
	e, err := h.app.Exercises.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newExerciseView(e))
}

func (h *handler) updateExercise(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name            *string  `json:"name"`
		Description     *string  `json:"description"`
		TargetedMuscles []string `json:"targetedMuscles"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Exercises.Update(r.Context(), mux.Vars(r)["id"], exercises.UpdateInput{
		Name:            payload.Name,
		Description:     payload.Description,
		TargetedMuscles: payload.TargetedMuscles,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newExerciseView(updated))
}

func (h *handler) deleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Exercises.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
