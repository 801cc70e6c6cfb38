package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"calendrunAPI/internal/backend"
	"calendrunAPI/internal/types/challenge"
	"calendrunAPI/middleware"
	"calendrunAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

// GetCurrentTemplate serves this month's template and its variant set so
// the join form can render its options.
func (h *ChallengeHandler) GetCurrentTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tmpl, variants, err := h.challengeService.CurrentTemplate(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"template": tmpl,
		"variants": variants,
	})
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	// Join waits for the instance to surface on the read API, so this
	// handler gets a much longer deadline than the rest.
	ctx, cancel := context.WithTimeout(r.Context(), 40*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TemplateID == "" || req.Variant == "" {
		respondWithError(w, http.StatusBadRequest, "templateId and variant are required")
		return
	}

	inst, err := h.challengeService.Join(ctx, userID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, inst)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	view, err := h.challengeService.GetView(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// UpdateChallenge applies a variant switch and/or status change. A switch
// that would invalidate logged runs is rejected with every violation
// listed, not just the first.
func (h *ChallengeHandler) UpdateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Variant == "" && req.Status == "" {
		respondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	view, err := h.challengeService.Update(ctx, userID, mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors onto the HTTP surface.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var rejected *services.SwitchRejectedError
	var invalid *services.ValidationError

	switch {
	case errors.As(err, &rejected):
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":        "VALIDATION_ERROR",
			"invalid_runs": rejected.InvalidRuns,
		})
	case errors.As(err, &invalid):
		respondWithError(w, http.StatusBadRequest, invalid.Message)
	case errors.Is(err, backend.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrRateLimited):
		respondWithError(w, http.StatusTooManyRequests, "Too many attempts, try again later")
	case errors.Is(err, services.ErrEventWrite):
		middleware.CountEventEmitFailure()
		log.Printf("event write failed: %v", err)
		respondWithError(w, http.StatusBadGateway, "Failed to save your change, please retry")
	default:
		log.Printf("unhandled service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal error")
	}
}
