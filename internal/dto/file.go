package dto

import "time"

type FileResponse struct {
	ID          string    `json:"id" example:"sample-1"`
	Name        string    `json:"name" example:"Sample Audio 1"`
	URL         string    `json:"url" example:"https://download.samplelib.com/mp3/sample-15s.mp3"`
	Source      string    `json:"source" example:"sample"`
	ContentType string    `json:"content_type,omitempty" example:"audio/mpeg"`
	Size        int64     `json:"size,omitempty" example:"245760"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type FileListResponse struct {
	Files []FileResponse `json:"files"`
	Count int            `json:"count" example:"4"`
}

type UploadResponse struct {
	Files   []FileResponse `json:"files"`
	Message string         `json:"message" example:"2 file(s) uploaded successfully"`
}
