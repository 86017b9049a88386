// Package tail follows a playback session from a terminal.
package tail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/eleven-am/transcript-demo/internal/dto"
)

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type command struct {
	Type string `json:"type"`
}

type options struct {
	play bool
}

type Option func(*options)

// WithPlay sends a play command once connected.
func WithPlay() Option {
	return func(o *options) { o.play = true }
}

// SessionURL turns an http(s) server address into the session's WebSocket URL.
func SessionURL(server, sessionID string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/sessions/" + url.PathEscape(sessionID) + "/ws"
	return u.String(), nil
}

// Follow prints the session's live window to w until the transcript is
// complete, the server closes the socket, or ctx is done.
func Follow(ctx context.Context, wsURL string, w io.Writer, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{})
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.CloseNow()

	if o.play {
		if err := wsjson.Write(ctx, conn, command{Type: "play"}); err != nil {
			return fmt.Errorf("send play: %w", err)
		}
	}

	var lastLive string
	for {
		var ev event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}

		switch ev.Type {
		case "state":
			var view dto.TranscriptView
			if err := json.Unmarshal(ev.Payload, &view); err != nil {
				return fmt.Errorf("decode state: %w", err)
			}
			if view.LiveText != "" && view.LiveText != lastLive {
				fmt.Fprintf(w, "[%s] %s\n", view.Duration, view.LiveText)
				lastLive = view.LiveText
			}
			if view.Status == "terminal" {
				fmt.Fprintf(w, "done: %d words in %s, %d wpm, %d%% accuracy\n", view.WordCount, view.Duration, view.WPM, view.Accuracy)
				return nil
			}
		case "notification":
			var n dto.Notification
			if err := json.Unmarshal(ev.Payload, &n); err != nil {
				return fmt.Errorf("decode notification: %w", err)
			}
			fmt.Fprintf(w, "%s: %s\n", n.Level, n.Message)
		case "file_selected":
			var f dto.FileResponse
			if err := json.Unmarshal(ev.Payload, &f); err != nil {
				return fmt.Errorf("decode file: %w", err)
			}
			lastLive = ""
			fmt.Fprintf(w, "now playing %s\n", f.Name)
		}
	}
}
