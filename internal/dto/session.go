package dto

type TranscriptView struct {
	SessionID  string `json:"session_id" example:"ps_4f1c"`
	Status     string `json:"status" example:"running"`
	IsPlaying  bool   `json:"is_playing" example:"true"`
	IsLive     bool   `json:"is_live" example:"true"`
	LiveText   string `json:"live_text" example:"This is a sample transcript"`
	Transcript string `json:"transcript" example:"Welcome to our audio transcription application. This is a sample transcript"`
	Duration   string `json:"duration" example:"0:12"`
	Ticks      int    `json:"elapsed_ticks" example:"12"`
	WordCount  int    `json:"word_count" example:"31"`
	WPM        int    `json:"wpm" example:"155"`
	Accuracy   int    `json:"accuracy" example:"95"`
}

type SessionResponse struct {
	ID         string          `json:"id" example:"ps_4f1c"`
	File       *FileResponse   `json:"file,omitempty"`
	Transcript *TranscriptView `json:"transcript"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count" example:"1"`
}

type SelectFileRequest struct {
	FileID string `json:"file_id" example:"sample-2"`
}

type Notification struct {
	Level   string `json:"level" example:"error"`
	Message string `json:"message" example:"Please select an audio file first"`
}
