package playback

import "time"

type EventType string

const (
	EventState        EventType = "state"
	EventNotification EventType = "notification"
	EventFileSelected EventType = "file_selected"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

type CommandType string

const (
	CommandPlay   CommandType = "play"
	CommandPause  CommandType = "pause"
	CommandReset  CommandType = "reset"
	CommandSelect CommandType = "select"
)

// Command is a control message sent by a WebSocket client.
type Command struct {
	Type   CommandType `json:"type"`
	FileID string      `json:"file_id,omitempty"`
}
