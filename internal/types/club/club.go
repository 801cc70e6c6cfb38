package club

type Club struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	InviteToken string `json:"invite_token"`
}

type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	ClubID   string `json:"club_id,omitempty"`
	ClubName string `json:"club_name,omitempty"`
}
