package leaderboard

// Entry ranks one user on the current month's challenge. TotalDistanceKm is
// always the sum of actual logged distances, never the planned distance of
// opened doors.
type Entry struct {
	UserID           string  `json:"user_id"`
	DisplayName      string  `json:"display_name"`
	DoorsOpened      int     `json:"doors_opened"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	TargetDistanceKm float64 `json:"target_distance_km"`
	Rank             int     `json:"rank"`
}

type Leaderboard struct {
	TemplateID string   `json:"template_id"`
	Entries    []*Entry `json:"entries"`
	TotalUsers int      `json:"total_users"`
}
