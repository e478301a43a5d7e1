package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/services/challenges"
	"github.com/fitchallenge/backend/internal/app/services/participations"
	"github.com/fitchallenge/backend/internal/middleware"
)

func (h *handler) registerChallengeRoutes(api *mux.Router) {
	// Literal segments are registered before {challengeId} so they are not
	// swallowed by the variable route.
	api.HandleFunc("/challenges/public", h.listPublicChallenges).Methods(http.MethodGet)
	api.Handle("/challenges/search", h.authed(h.searchChallenges)).Methods(http.MethodGet)
	api.Handle("/challenges/my/challenges", h.authed(h.myChallenges)).Methods(http.MethodGet)
	api.Handle("/challenges/my/participations", h.authed(h.myParticipations)).Methods(http.MethodGet)
	api.Handle("/challenges/my/stats", h.authed(h.myStats)).Methods(http.MethodGet)

	api.Handle("/challenges/participations/{participationId}/progress", h.authed(h.updateProgress)).Methods(http.MethodPatch)
	api.Handle("/challenges/participations/{participationId}/workout", h.authed(h.logWorkout)).Methods(http.MethodPost)
	api.Handle("/challenges/participations/{participationId}/abandon", h.authed(h.abandonChallenge)).Methods(http.MethodPost)
	api.Handle("/challenges/participations/{participationId}/personal-best", h.authed(h.updatePersonalBest)).Methods(http.MethodPut)

	api.Handle("/challenges", h.authed(h.createChallenge)).Methods(http.MethodPost)
	api.Handle("/challenges/{challengeId}", h.authed(h.getChallenge)).Methods(http.MethodGet)
	api.Handle("/challenges/{challengeId}", h.authed(h.updateChallenge)).Methods(http.MethodPut)
	api.Handle("/challenges/{challengeId}", h.authed(h.deleteChallenge)).Methods(http.MethodDelete)
	api.Handle("/challenges/{challengeId}/leaderboard", h.authed(h.challengeLeaderboard)).Methods(http.MethodGet)
	api.Handle("/challenges/{challengeId}/join", h.authed(h.joinChallenge)).Methods(http.MethodPost)
	api.Handle("/challenges/{challengeId}/activate", h.authed(h.activateChallenge)).Methods(http.MethodPatch)
}

type challengePayload struct {
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Type              string               `json:"type"`
	Difficulty        string               `json:"difficulty"`
	Exercises         []challenge.Exercise `json:"exercises"`
	Goals             []challenge.Goal     `json:"goals"`
	DurationDays      int                  `json:"durationDays"`
	MaxParticipants   int                  `json:"maxParticipants"`
	GymID             string               `json:"gymId"`
	IsPublic          *bool                `json:"isPublic"`
	InviteOnly        bool                 `json:"inviteOnly"`
	TeamBased         bool                 `json:"teamBased"`
	Rewards           *challenge.Rewards   `json:"rewards"`
	EstimatedCalories int                  `json:"estimatedCalories"`
	Tags              []string             `json:"tags"`
}

func (h *handler) createChallenge(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload challengePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Challenges.Create(r.Context(), u, challenges.CreateInput{
		Title:             payload.Title,
		Description:       payload.Description,
		Type:              challenge.Type(payload.Type),
		Difficulty:        challenge.Difficulty(payload.Difficulty),
		Exercises:         payload.Exercises,
		Goals:             payload.Goals,
		DurationDays:      payload.DurationDays,
		MaxParticipants:   payload.MaxParticipants,
		GymID:             payload.GymID,
		IsPublic:          payload.IsPublic,
		InviteOnly:        payload.InviteOnly,
		TeamBased:         payload.TeamBased,
		Rewards:           payload.Rewards,
		EstimatedCalories: payload.EstimatedCalories,
		Tags:              payload.Tags,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newChallengeView(created))
}

func (h *handler) listPublicChallenges(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Challenges.ListPublic(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeViews(list))
}

func (h *handler) searchChallenges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.app.Challenges.Search(r.Context(), q.Get("q"),
		challenge.Difficulty(q.Get("difficulty")), challenge.Type(q.Get("type")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeViews(list))
}

func (h *handler) myChallenges(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	list, err := h.app.Challenges.ListMine(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeViews(list))
}

func (h *handler) myParticipations(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	list, err := h.app.Participations.ListMine(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipationViews(list))
}

func (h *handler) myStats(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	stats, err := h.app.Participations.UserStats(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) getChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Challenges.Get(r.Context(), mux.Vars(r)["challengeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeView(c))
}

func (h *handler) updateChallenge(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		Title             *string               `json:"title"`
		Description       *string               `json:"description"`
		Difficulty        *string               `json:"difficulty"`
		Exercises         []challenge.Exercise  `json:"exercises"`
		Goals             []challenge.Goal      `json:"goals"`
		DurationDays      *int                  `json:"durationDays"`
		MaxParticipants   *int                  `json:"maxParticipants"`
		Rewards           *challenge.Rewards    `json:"rewards"`
		EstimatedCalories *int                  `json:"estimatedCalories"`
		Tags              []string              `json:"tags"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	in := challenges.UpdateInput{
		Title:             payload.Title,
		Description:       payload.Description,
		Exercises:         payload.Exercises,
		Goals:             payload.Goals,
		DurationDays:      payload.DurationDays,
		MaxParticipants:   payload.MaxParticipants,
		Rewards:           payload.Rewards,
		EstimatedCalories: payload.EstimatedCalories,
		Tags:              payload.Tags,
	}
	if payload.Difficulty != nil {
		d := challenge.Difficulty(*payload.Difficulty)
		in.Difficulty = &d
	}

	updated, err := h.app.Challenges.Update(r.Context(), mux.Vars(r)["challengeId"], u, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeView(updated))
}

func (h *handler) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	if err := h.app.Challenges.Delete(r.Context(), mux.Vars(r)["challengeId"], u); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) activateChallenge(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	c, err := h.app.Challenges.Activate(r.Context(), mux.Vars(r)["challengeId"], u)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChallengeView(c))
}

func (h *handler) challengeLeaderboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Participations.Leaderboard(r.Context(), mux.Vars(r)["challengeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipationViews(list))
}

func (h *handler) joinChallenge(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	p, err := h.app.Participations.Join(r.Context(), u.ID, mux.Vars(r)["challengeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newParticipationView(p))
}

func (h *handler) updateProgress(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		Progress int `json:"progress"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.app.Participations.UpdateProgress(r.Context(), mux.Vars(r)["participationId"], u.ID, payload.Progress)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipationView(p))
}

func (h *handler) logWorkout(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload struct {
		Date          time.Time                      `json:"date"`
		Exercises     []participation.ExerciseResult `json:"exercises"`
		TotalDuration int                            `json:"totalDuration"`
		TotalCalories int                            `json:"totalCalories"`
		Notes         string                         `json:"notes"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.app.Participations.LogWorkout(r.Context(), mux.Vars(r)["participationId"], u.ID, participations.WorkoutInput{
		Date:          payload.Date,
		Exercises:     payload.Exercises,
		TotalDuration: payload.TotalDuration,
		TotalCalories: payload.TotalCalories,
		Notes:         payload.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipationView(p))
}

func (h *handler) abandonChallenge(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	p, err := h.app.Participations.Abandon(r.Context(), mux.Vars(r)["participationId"], u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipationView(p))
}

func (h *handler) updatePersonalBest(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())

	var payload participation.PersonalBest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.app.Participations.UpdatePersonalBest(r.Context(), mux.Vars(r)["participationId"], u.ID, payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipationView(p))
}
