package template

import (
	"fmt"
	"math"

	"calendrunAPI/utils"
)

// ChallengeTemplate is the immutable definition of one month's challenge:
// the per-day required distances before any variant scaling is applied.
// Owned by the backend system of record; this service only reads it.
type ChallengeTemplate struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	RequiredDistancesKm []float64 `json:"required_distances_km"`
	FullDistanceTotalKm float64   `json:"full_distance_total_km"`
	HalfDistanceTotalKm float64   `json:"half_distance_total_km"`
	StartDate           string    `json:"start_date"`
	EndDate             string    `json:"end_date"`
	Days                int       `json:"days"`
}

// Validate checks the structural invariants a template must satisfy before
// any derivation runs over it.
func (t *ChallengeTemplate) Validate() error {
	if t.Days != len(t.RequiredDistancesKm) {
		return fmt.Errorf("template %s: days=%d but %d required distances", t.ID, t.Days, len(t.RequiredDistancesKm))
	}

	span, err := utils.DaysBetween(t.StartDate, t.EndDate)
	if err != nil {
		return fmt.Errorf("template %s: %w", t.ID, err)
	}
	if span+1 != t.Days {
		return fmt.Errorf("template %s: date range spans %d days, expected %d", t.ID, span+1, t.Days)
	}

	var sum float64
	for i, d := range t.RequiredDistancesKm {
		if d <= 0 {
			return fmt.Errorf("template %s: day %d has non-positive distance %.2f", t.ID, i+1, d)
		}
		sum += d
	}
	if math.Abs(sum-t.FullDistanceTotalKm) > 0.01 {
		return fmt.Errorf("template %s: distances sum to %.2f, full total is %.2f", t.ID, sum, t.FullDistanceTotalKm)
	}
	if math.Abs(t.HalfDistanceTotalKm-t.FullDistanceTotalKm/2) > 0.01 {
		return fmt.Errorf("template %s: half total %.2f is not half of %.2f", t.ID, t.HalfDistanceTotalKm, t.FullDistanceTotalKm)
	}

	return nil
}

// DayDate returns the calendar date of the zero-based day index.
func (t *ChallengeTemplate) DayDate(index int) (string, error) {
	if index < 0 || index >= t.Days {
		return "", fmt.Errorf("template %s: day index %d out of range [0,%d)", t.ID, index, t.Days)
	}
	return utils.AddDays(t.StartDate, index)
}
