package challenge

import "time"

type InstanceStatus string

const (
	StatusActive    InstanceStatus = "active"
	StatusCompleted InstanceStatus = "completed"
)

// Instance is one user's enrollment in a template. The backend owns it; we
// derive views from it and emit events to mutate it.
type Instance struct {
	ID               string         `json:"id"`
	TemplateID       string         `json:"template_id"`
	UserID           string         `json:"user_id"`
	Variant          string         `json:"variant"`
	Status           InstanceStatus `json:"status"`
	TotalCompletedKm float64        `json:"total_completed_km"`
	JoinedAt         time.Time      `json:"joined_at"`
}

// InstanceSummary is what the backend returns when listing every enrollment
// of a template, with the display name joined in so leaderboard aggregation
// does not need a per-user profile fetch.
type InstanceSummary struct {
	Instance
	DisplayName string `json:"display_name"`
}

type JoinRequest struct {
	TemplateID string `json:"templateId"`
	Variant    string `json:"variant"`
}

// UpdateRequest carries a variant switch and/or a status transition.
type UpdateRequest struct {
	Variant string `json:"variant,omitempty"`
	Status  string `json:"status,omitempty"`
}

// InvalidRun is one violation found while validating a variant switch: the
// run that was logged no longer meets the day's requirement under the new
// multiplier.
type InvalidRun struct {
	DayNumber        int     `json:"day_number"`
	Date             string  `json:"date"`
	ActualDistance   float64 `json:"actual_distance"`
	RequiredDistance float64 `json:"required_distance"`
}
