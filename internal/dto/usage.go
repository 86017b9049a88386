package dto

type UsageResponse struct {
	Date      string `json:"date" example:"2024-01-15"`
	Hour      int    `json:"hour" example:"14"`
	Sessions  int64  `json:"sessions" example:"12"`
	Plays     int64  `json:"plays" example:"30"`
	Resets    int64  `json:"resets" example:"4"`
	Ticks     int64  `json:"ticks" example:"540"`
	Words     int64  `json:"words" example:"2700"`
	Uploads   int64  `json:"uploads" example:"3"`
	RemoteErr int64  `json:"remote_errors" example:"1"`
}

type UsageListResponse struct {
	Hours   int             `json:"hours" example:"24"`
	Metrics []UsageResponse `json:"metrics"`
}

type UsageSummaryResponse struct {
	Period        string  `json:"period" example:"7d"`
	TotalSessions int64   `json:"total_sessions" example:"120"`
	TotalPlays    int64   `json:"total_plays" example:"300"`
	TotalResets   int64   `json:"total_resets" example:"40"`
	TotalTicks    int64   `json:"total_ticks" example:"5400"`
	TotalWords    int64   `json:"total_words" example:"27000"`
	TotalUploads  int64   `json:"total_uploads" example:"30"`
	WordsPerTick  float64 `json:"words_per_tick" example:"5"`
	RemoteErrors  int64   `json:"remote_errors" example:"2"`
}
