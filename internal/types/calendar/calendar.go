package calendar

import "calendrunAPI/internal/types/run"

// Day is one door of the challenge calendar, recomputed on every read from
// template + variant + runs. Never persisted.
type Day struct {
	DayNumber         int        `json:"day_number"`
	Date              string     `json:"date"`
	PlannedDistanceKm float64    `json:"planned_distance_km"`
	ActualDistanceKm  float64    `json:"actual_distance_km"`
	Status            run.Status `json:"status"`
	IsToday           bool       `json:"is_today"`
}

// ChallengeView is the full derived state of one instance: the calendar,
// the remaining distance pool and the suggestion driven by it. Day status
// is the source of truth for completion; the pool only drives suggestions.
type ChallengeView struct {
	InstanceID         string    `json:"instance_id"`
	Variant            string    `json:"variant"`
	Days               []*Day    `json:"days"`
	TotalCompletedKm   float64   `json:"total_completed_km"`
	TargetDistanceKm   float64   `json:"target_distance_km"`
	DoorsOpened        int       `json:"doors_opened"`
	RemainingDistances []float64 `json:"remaining_distances"`
	TodaySuggestedKm   *float64  `json:"today_suggested_km,omitempty"`
}
