package dto

type PreferencesResponse struct {
	ClientID string `json:"client_id" example:"tab-7d2a"`
	Volume   int    `json:"volume" example:"80"`
}

type UpdatePreferencesRequest struct {
	Volume *int `json:"volume" example:"65"`
}
