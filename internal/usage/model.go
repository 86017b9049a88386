package usage

import "strconv"

const (
	FieldSessions     = "sessions"
	FieldPlays        = "plays"
	FieldResets       = "resets"
	FieldTicks        = "ticks"
	FieldWords        = "words"
	FieldUploads      = "uploads"
	FieldRemoteErrors = "remote_errors"
)

type Metrics struct {
	Date         string `json:"date"`
	Hour         int    `json:"hour"`
	Sessions     int64  `json:"sessions"`
	Plays        int64  `json:"plays"`
	Resets       int64  `json:"resets"`
	Ticks        int64  `json:"ticks"`
	Words        int64  `json:"words"`
	Uploads      int64  `json:"uploads"`
	RemoteErrors int64  `json:"remote_errors"`
}

func MetricsRedisKey(date string, hour int) string {
	return "usage:metrics:" + date + ":" + strconv.Itoa(hour)
}
