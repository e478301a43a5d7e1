package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fitchallenge/backend/internal/middleware"
)

func (h *handler) registerInvitationRoutes(api *mux.Router) {
	api.Handle("/challenges/{challengeId}/invite", h.authed(h.inviteFriends)).Methods(http.MethodPost)
	api.Handle("/challenges/{challengeId}/challenge", h.authed(h.challengeUser)).Methods(http.MethodPost)

	api.Handle("/invitations", h.authed(h.listInvitations)).Methods(http.MethodGet)
	api.Handle("/invitations/pending", h.authed(h.listPendingInvitations)).Methods(http.MethodGet)
	api.Handle("/invitations/{invitationId}/accept", h.authed(h.acceptInvitation)).Methods(http.MethodPost)
	api.Handle("/invitations/{invitationId}/decline", h.authed(h.declineInvitation)).Methods(http.MethodPost)
}

func (h *handler) inviteFriends(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		FriendIDs []string `json:"friendIds"`
		Message   string   `json:"message"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := h.app.Invitations.InviteFriends(r.Context(), u, mux.Vars(r)["challengeId"], payload.FriendIDs, payload.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"results": results})
}

func (h *handler) challengeUser(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	inv, err := h.app.Invitations.ChallengeUser(r.Context(), u, mux.Vars(r)["challengeId"], payload.UserID, payload.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newInvitationView(inv))
}

func (h *handler) listInvitations(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	inbox, err := h.app.Invitations.ListAll(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received": newInvitationViews(inbox.Received),
		"sent":     newInvitationViews(inbox.Sent),
	})
}

func (h *handler) listPendingInvitations(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	list, err := h.app.Invitations.ListPending(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvitationViews(list))
}

func (h *handler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	inv, p, err := h.app.Invitations.Accept(r.Context(), u.ID, mux.Vars(r)["invitationId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invitation":    newInvitationView(inv),
		"participation": newParticipationView(p),
	})
}

func (h *handler) declineInvitation(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	inv, err := h.app.Invitations.Decline(r.Context(), u.ID, mux.Vars(r)["invitationId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvitationView(inv))
}
