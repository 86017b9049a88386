package playback

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// commandFunc applies a client command to the session and reports failures
// back as a notification on the same connection.
type commandFunc func(ctx context.Context, cmd Command) error

type wsConn struct {
	ws        *websocket.Conn
	logger    *slog.Logger
	events    <-chan Event
	replies   chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn, events <-chan Event, logger *slog.Logger) *wsConn {
	return &wsConn{
		ws:      ws,
		logger:  logger,
		events:  events,
		replies: make(chan Event, 16),
		done:    make(chan struct{}),
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *wsConn) reply(ev Event) {
	select {
	case c.replies <- ev:
	case <-c.done:
	default:
		c.logger.Warn("reply buffer full, dropping message")
	}
}

func (c *wsConn) readPump(ctx context.Context, apply commandFunc, onError func(error) Event) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.logger.Debug("failed to unmarshal command", "error", err)
			c.reply(onError(errInvalidCommand))
			continue
		}

		if err := apply(ctx, cmd); err != nil {
			c.reply(onError(err))
		}
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case ev, ok := <-c.events:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := c.write(ev); err != nil {
				return
			}

		case ev := <-c.replies:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.write(ev); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *wsConn) write(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error("failed to marshal event", "error", err)
		return nil
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug("websocket write error", "error", err)
		return err
	}
	return nil
}
