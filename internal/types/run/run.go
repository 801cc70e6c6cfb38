package run

import "time"

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusDeleted   Status = "deleted"
)

// Performance is one logged effort for one calendar day of one instance.
// At most one non-deleted row exists per (instance, run date).
type Performance struct {
	ID          string    `json:"id"`
	InstanceID  string    `json:"instance_id"`
	UserID      string    `json:"user_id"`
	RunDate     string    `json:"run_date"`
	DistanceKm  float64   `json:"distance_km"`
	TimeMinutes *int      `json:"time_minutes,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type LogRequest struct {
	RunDate     string  `json:"runDate"`
	DistanceKm  float64 `json:"distanceKm"`
	TimeMinutes *int    `json:"timeMinutes,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Skipped     bool    `json:"skipped,omitempty"`
}

type UpdateRequest struct {
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
	TimeMinutes *int     `json:"timeMinutes,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}
