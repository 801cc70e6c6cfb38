package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"calendrunAPI/internal/backend"
	"calendrunAPI/internal/ratelimit"
	"calendrunAPI/internal/types/club"
)

// maxInviteAttempts is the per-user budget for invite-token validation
// inside one attempt window. Guards a brute-force path, nothing more.
const maxInviteAttempts = 10

type ClubService struct {
	backend  Backend
	attempts ratelimit.AttemptStore
}

func NewClubService(b Backend, attempts ratelimit.AttemptStore) *ClubService {
	return &ClubService{backend: b, attempts: attempts}
}

// ValidateInviteToken resolves an invite token to a club. Attempts are
// counted per user; a wrong token is a valid=false response, not an error.
func (s *ClubService) ValidateInviteToken(ctx context.Context, userID, token string) (*club.ValidateTokenResponse, error) {
	count, err := s.attempts.Increment(ctx, "invite:"+userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count invite attempt: %w", err)
	}
	if count > maxInviteAttempts {
		log.Printf("invite validation rate limited for user %s (%d attempts)", userID, count)
		return nil, ErrRateLimited
	}

	if token == "" {
		return nil, validationErrorf("token is required")
	}

	c, err := s.backend.ClubByInviteToken(ctx, token)
	if errors.Is(err, backend.ErrNotFound) {
		return &club.ValidateTokenResponse{Valid: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invite token: %w", err)
	}

	if err := s.attempts.Reset(ctx, "invite:"+userID); err != nil {
		log.Printf("failed to reset invite attempts for user %s: %v", userID, err)
	}

	return &club.ValidateTokenResponse{
		Valid:    true,
		ClubID:   c.ID,
		ClubName: c.Name,
	}, nil
}
