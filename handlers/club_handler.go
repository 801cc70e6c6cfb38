package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"calendrunAPI/internal/types/club"
	"calendrunAPI/middleware"
	"calendrunAPI/services"
)

type ClubHandler struct {
	clubService *services.ClubService
}

func NewClubHandler(clubService *services.ClubService) *ClubHandler {
	return &ClubHandler{
		clubService: clubService,
	}
}

// ValidateToken resolves a club invite token. Attempts are budgeted per
// user to keep the token space from being brute-forced.
func (h *ClubHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req club.ValidateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.clubService.ValidateInviteToken(ctx, userID, req.Token)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
