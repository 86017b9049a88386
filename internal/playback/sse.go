package playback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const sseKeepAliveInterval = 30 * time.Second

type sseStream struct {
	writer    http.ResponseWriter
	flusher   http.Flusher
	keepAlive time.Duration
}

func newSSEStream(w http.ResponseWriter) (*sseStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, http.ErrNotSupported
	}

	return &sseStream{
		writer:    w,
		flusher:   flusher,
		keepAlive: sseKeepAliveInterval,
	}, nil
}

// Run forwards events until the channel closes or ctx is done.
func (s *sseStream) Run(ctx context.Context, events <-chan Event) error {
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.writeEvent(ev); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.writeKeepAlive(); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *sseStream) writeEvent(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.writer, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}

	s.flusher.Flush()
	return nil
}

func (s *sseStream) writeKeepAlive() error {
	if _, err := s.writer.Write([]byte(":keepalive\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
