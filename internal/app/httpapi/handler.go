// Package httpapi exposes the application services as a JSON REST API under
// /api, routed with gorilla/mux.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "github.com/fitchallenge/backend/internal/app"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/metrics"
	"github.com/fitchallenge/backend/internal/app/services/auth"
	"github.com/fitchallenge/backend/internal/app/services/invitations"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/middleware"
	"github.com/fitchallenge/backend/pkg/logger"
)

// Options tunes the outer middleware chain.
type Options struct {
	AllowedOrigins []string
	// RateLimitRPS of zero disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app     *app.Application
	session *middleware.SessionAuth
	log     *logger.Logger
}

// NewHandler returns the router exposing the REST API.
func NewHandler(application *app.Application, log *logger.Logger, opts Options) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{
		app:     application,
		session: middleware.NewSessionAuth(application.Auth, log),
		log:     log,
	}

	router := mux.NewRouter()
	router.Use(middleware.Metrics())
	router.Use(mux.MiddlewareFunc(middleware.Logging(log)))
	if len(opts.AllowedOrigins) > 0 {
		router.Use(mux.MiddlewareFunc(middleware.NewCORS(opts.AllowedOrigins).Handler))
	}
	if opts.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, log)
		router.Use(mux.MiddlewareFunc(limiter.Handler))
	}

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	h.registerAuthRoutes(api)
	h.registerUserRoutes(api)
	h.registerGymRoutes(api)
	h.registerExerciseRoutes(api)
	h.registerBadgeRoutes(api)
	h.registerChallengeRoutes(api)
	h.registerInvitationRoutes(api)

	return router
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// authed wraps a handler with session authentication.
func (h *handler) authed(fn http.HandlerFunc) http.Handler {
	return h.session.Handler(fn)
}

// withRoles wraps a handler with session authentication plus a role check.
func (h *handler) withRoles(fn http.HandlerFunc, roles ...user.Role) http.Handler {
	return h.session.Handler(middleware.RequireRoles(roles...)(fn))
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

var errMissingSession = errors.New("missing session")

// writeServiceError maps service and storage errors onto the API error
// taxonomy. Anything unrecognised is treated as a domain-rule violation.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, invitations.ErrNotRecipient):
		writeError(w, http.StatusForbidden, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}
