package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"calendrunAPI/internal/backend"
	"calendrunAPI/internal/types/leaderboard"
	"calendrunAPI/internal/types/run"
	"calendrunAPI/internal/types/template"
)

type LeaderboardService struct {
	backend Backend
}

func NewLeaderboardService(b Backend) *LeaderboardService {
	return &LeaderboardService{backend: b}
}

// ClubLeaderboard ranks the members of one club on the current month's
// challenge. Members without an active instance are left out.
func (s *LeaderboardService) ClubLeaderboard(ctx context.Context, clubID string) (*leaderboard.Leaderboard, error) {
	tmpl, err := s.currentTemplate(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.backend.ClubMembers(ctx, clubID)
	if err != nil {
		return nil, err
	}

	var entries []*leaderboard.Entry
	for _, m := range members {
		inst, err := s.backend.ActiveInstance(ctx, m.UserID, tmpl.ID)
		if errors.Is(err, backend.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load instance for user %s: %w", m.UserID, err)
		}

		entry, err := s.buildEntry(ctx, tmpl, inst.Variant, inst.ID, m.UserID, m.DisplayName)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}

	return rankEntries(tmpl.ID, entries), nil
}

// GlobalLeaderboard ranks every user enrolled in the current month's
// challenge.
func (s *LeaderboardService) GlobalLeaderboard(ctx context.Context) (*leaderboard.Leaderboard, error) {
	tmpl, err := s.currentTemplate(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.backend.InstancesForTemplate(ctx, tmpl.ID)
	if err != nil {
		return nil, err
	}

	var entries []*leaderboard.Entry
	for _, inst := range summaries {
		if inst.Status != "active" {
			continue
		}
		entry, err := s.buildEntry(ctx, tmpl, inst.Variant, inst.ID, inst.UserID, inst.DisplayName)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}

	return rankEntries(tmpl.ID, entries), nil
}

func (s *LeaderboardService) currentTemplate(ctx context.Context) (*template.ChallengeTemplate, error) {
	now := time.Now().UTC()
	return s.backend.TemplateForMonth(ctx, now.Year(), now.Month())
}

// buildEntry computes one user's row. Both leaderboard paths use this, so
// totalDistanceKm has a single meaning everywhere: the sum of actual logged
// distances, never the planned distance of the doors they opened.
func (s *LeaderboardService) buildEntry(ctx context.Context, tmpl *template.ChallengeTemplate, variant, instanceID, userID, displayName string) (*leaderboard.Entry, error) {
	multiplier, err := VariantToMultiplier(variant)
	if err != nil {
		log.Printf("leaderboard: skipping instance %s with bad variant %q: %v", instanceID, variant, err)
		return nil, nil
	}
	target := Quantize(tmpl.FullDistanceTotalKm * multiplier)
	if target <= 0 {
		return nil, nil
	}

	runs, err := s.backend.RunsForInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs for instance %s: %w", instanceID, err)
	}

	dates := make(map[string]struct{})
	var total float64
	for _, r := range runs {
		if r.Status != run.StatusCompleted {
			continue
		}
		total += r.DistanceKm
		dates[r.RunDate] = struct{}{}
	}

	return &leaderboard.Entry{
		UserID:           userID,
		DisplayName:      displayName,
		DoorsOpened:      len(dates),
		TotalDistanceKm:  Quantize(total),
		TargetDistanceKm: target,
	}, nil
}

func rankEntries(templateID string, entries []*leaderboard.Entry) *leaderboard.Leaderboard {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalDistanceKm != entries[j].TotalDistanceKm {
			return entries[i].TotalDistanceKm > entries[j].TotalDistanceKm
		}
		return entries[i].DoorsOpened > entries[j].DoorsOpened
	})
	for i, e := range entries {
		e.Rank = i + 1
	}
	return &leaderboard.Leaderboard{
		TemplateID: templateID,
		Entries:    entries,
		TotalUsers: len(entries),
	}
}
