package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"calendrunAPI/internal/ratelimit"
	"calendrunAPI/internal/types/club"
)

func TestValidateInviteToken(t *testing.T) {
	fb := newFakeBackend()
	fb.clubs["secret-token"] = &club.Club{ID: "club-1", Name: "Morning Crew", InviteToken: "secret-token"}
	svc := NewClubService(fb, ratelimit.NewMemoryStore(time.Hour))

	resp, err := svc.ValidateInviteToken(context.Background(), "user-1", "secret-token")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Valid || resp.ClubID != "club-1" || resp.ClubName != "Morning Crew" {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp, err = svc.ValidateInviteToken(context.Background(), "user-1", "wrong")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Valid {
		t.Fatal("a wrong token must come back valid=false")
	}
}

func TestValidateInviteTokenRateLimit(t *testing.T) {
	fb := newFakeBackend()
	svc := NewClubService(fb, ratelimit.NewMemoryStore(time.Hour))

	for i := 0; i < maxInviteAttempts; i++ {
		if _, err := svc.ValidateInviteToken(context.Background(), "user-1", "guess"); err != nil {
			t.Fatalf("attempt %d should pass: %v", i+1, err)
		}
	}

	_, err := svc.ValidateInviteToken(context.Background(), "user-1", "guess")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("attempt %d should be limited, got %v", maxInviteAttempts+1, err)
	}

	// The budget is per user.
	if _, err := svc.ValidateInviteToken(context.Background(), "user-2", "guess"); err != nil {
		t.Fatalf("another user's budget should be untouched: %v", err)
	}
}

func TestValidateInviteTokenResetsOnSuccess(t *testing.T) {
	fb := newFakeBackend()
	fb.clubs["secret-token"] = &club.Club{ID: "club-1", Name: "Morning Crew"}
	svc := NewClubService(fb, ratelimit.NewMemoryStore(time.Hour))

	for i := 0; i < maxInviteAttempts-1; i++ {
		svc.ValidateInviteToken(context.Background(), "user-1", "guess")
	}
	if _, err := svc.ValidateInviteToken(context.Background(), "user-1", "secret-token"); err != nil {
		t.Fatal(err)
	}

	// Success cleared the counter, so the budget is full again.
	for i := 0; i < maxInviteAttempts; i++ {
		if _, err := svc.ValidateInviteToken(context.Background(), "user-1", "guess"); err != nil {
			t.Fatalf("attempt %d after reset should pass: %v", i+1, err)
		}
	}
}
