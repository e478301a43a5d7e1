package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/services/auth"
	"github.com/fitchallenge/backend/internal/middleware"
)

func (h *handler) registerAuthRoutes(api *mux.Router) {
	api.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	api.Handle("/auth/me", h.authed(h.me)).Methods(http.MethodGet)
	api.Handle("/auth/logout", h.authed(h.logout)).Methods(http.MethodPost)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Role      string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Auth.Register(r.Context(), auth.RegisterInput{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      user.Role(payload.Role),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserView(created))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess, u, err := h.app.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": sess.ID,
		"expiresAt": sess.ExpiresAt,
		"user":      newUserView(u),
	})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, newUserView(u))
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, errMissingSession)
		return
	}
	if err := h.app.Auth.Logout(r.Context(), parts[1]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
