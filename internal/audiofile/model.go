package audiofile

import "time"

type Source string

const (
	SourceSample Source = "sample"
	SourceUpload Source = "upload"
	SourceRemote Source = "remote"
)

func (s Source) Valid() bool {
	switch s {
	case SourceSample, SourceUpload, SourceRemote:
		return true
	}
	return false
}

type AudioFile struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	URL         string    `gorm:"not null" json:"url"`
	Source      Source    `gorm:"not null;index" json:"source"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	StoragePath string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type Sample struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

var DefaultSamples = []Sample{
	{ID: "sample-1", Name: "Sample Audio 1", URL: "https://download.samplelib.com/mp3/sample-15s.mp3"},
	{ID: "sample-2", Name: "Sample Audio 2", URL: "https://download.samplelib.com/mp3/sample-9s.mp3"},
	{ID: "sample-3", Name: "Sample Audio 3", URL: "https://download.samplelib.com/mp3/sample-12s.mp3"},
	{ID: "sample-4", Name: "Sample Audio 4", URL: "https://download.samplelib.com/mp3/sample-3s.mp3"},
}

func (s Sample) AudioFile() *AudioFile {
	return &AudioFile{
		ID:          s.ID,
		Name:        s.Name,
		URL:         s.URL,
		Source:      SourceSample,
		ContentType: "audio/mpeg",
	}
}
