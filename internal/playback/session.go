package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/dto"
	"github.com/eleven-am/transcript-demo/internal/reveal"
	"github.com/eleven-am/transcript-demo/internal/shared"
)

const (
	subscriberBuffer = 64
	usageTimeout     = 2 * time.Second
)

var (
	ErrNoFileSelected = errors.New("no audio file selected")
	ErrSessionClosed  = errors.New("session closed")
)

type UsageRecorder interface {
	IncrementSessions(ctx context.Context) error
	IncrementPlays(ctx context.Context) error
	IncrementResets(ctx context.Context) error
	RecordTick(ctx context.Context, words int64) error
}

type Config struct {
	SourceText   string
	WindowSize   int
	TickInterval time.Duration
}

type Session struct {
	id        string
	cfg       Config
	scheduler *reveal.Scheduler
	usage     UsageRecorder
	log       *slog.Logger

	// ctrl serialises control operations; mu guards the fields below it.
	ctrl sync.Mutex

	mu        sync.RWMutex
	file      *audiofile.AudioFile
	playing   bool
	lastTicks int
	lastWords int
	subs      map[uint64]chan Event
	nextSub   uint64
	closed    bool
}

func newSession(id string, cfg Config, file *audiofile.AudioFile, usage UsageRecorder, schedOpts []reveal.Option, log *slog.Logger) *Session {
	s := &Session{
		id:    id,
		cfg:   cfg,
		file:  file,
		usage: usage,
		log:   log.With("session_id", id),
		subs:  make(map[uint64]chan Event),
	}
	opts := append([]reveal.Option{
		reveal.WithLogger(s.log),
		reveal.WithOnUpdate(s.onUpdate),
	}, schedOpts...)
	s.scheduler = reveal.New(opts...)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) File() *audiofile.AudioFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file
}

func (s *Session) IsPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playing
}

func (s *Session) Snapshot() reveal.Snapshot {
	return s.scheduler.Snapshot()
}

func (s *Session) View() dto.TranscriptView {
	snap := s.scheduler.Snapshot()
	return buildView(s.id, s.IsPlaying(), snap)
}

func buildView(id string, playing bool, snap reveal.Snapshot) dto.TranscriptView {
	return dto.TranscriptView{
		SessionID:  id,
		Status:     string(snap.Status),
		IsPlaying:  playing,
		IsLive:     playing,
		LiveText:   snap.LiveWindow,
		Transcript: snap.FullText,
		Duration:   reveal.FormatElapsed(snap.ElapsedTicks),
		Ticks:      snap.ElapsedTicks,
		WordCount:  snap.WordsRevealed,
		WPM:        reveal.WordsPerMinute(snap.WordsRevealed, snap.ElapsedTicks),
		Accuracy:   reveal.Accuracy,
	}
}

func (s *Session) SetPlaying(ctx context.Context, playing bool) error {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	if s.isClosed() {
		return ErrSessionClosed
	}

	if !playing {
		s.scheduler.Stop()
		s.setPlaying(false)
		s.broadcastState()
		return nil
	}

	if s.File() == nil {
		s.Notify(shared.LevelError, "Please select an audio file first")
		return ErrNoFileSelected
	}

	s.setPlaying(true)
	if err := s.scheduler.Start(s.cfg.SourceText, s.cfg.WindowSize, s.cfg.TickInterval); err != nil {
		s.setPlaying(false)
		return err
	}
	s.recordUsage(ctx, "play", func(ctx context.Context) error {
		return s.usage.IncrementPlays(ctx)
	})
	s.broadcastState()
	return nil
}

func (s *Session) Reset(ctx context.Context) error {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	if s.isClosed() {
		return ErrSessionClosed
	}

	s.scheduler.Reset()
	s.mu.Lock()
	s.playing = false
	s.lastTicks = 0
	s.lastWords = 0
	s.mu.Unlock()

	s.recordUsage(ctx, "reset", func(ctx context.Context) error {
		return s.usage.IncrementResets(ctx)
	})
	s.broadcastState()
	return nil
}

// Select makes f the current file. Playback stops and the transcript starts over.
func (s *Session) Select(f *audiofile.AudioFile) error {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	if s.isClosed() {
		return ErrSessionClosed
	}

	s.scheduler.Reset()
	s.mu.Lock()
	s.file = f
	s.playing = false
	s.lastTicks = 0
	s.lastWords = 0
	s.mu.Unlock()

	s.log.Info("file selected", "file_id", f.ID, "source", f.Source)
	s.broadcast(EventFileSelected, audiofile.ToResponse(f))
	s.broadcastState()
	return nil
}

func (s *Session) Notify(level shared.Level, message string) {
	s.broadcast(EventNotification, dto.Notification{
		Level:   string(level),
		Message: message,
	})
}

// Subscribe registers a listener. Events are dropped for a subscriber whose
// buffer is full. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Session) Close() {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	s.scheduler.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.playing = false
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) onUpdate(snap reveal.Snapshot) {
	s.mu.Lock()
	playing := s.playing
	var words int
	ticked := snap.ElapsedTicks > s.lastTicks
	if ticked {
		words = snap.WordsRevealed - s.lastWords
		s.lastTicks = snap.ElapsedTicks
		s.lastWords = snap.WordsRevealed
	}
	s.mu.Unlock()

	if ticked {
		s.recordUsage(context.Background(), "tick", func(ctx context.Context) error {
			return s.usage.RecordTick(ctx, int64(words))
		})
	}
	s.broadcast(EventState, buildView(s.id, playing, snap))
}

func (s *Session) setPlaying(playing bool) {
	s.mu.Lock()
	s.playing = playing
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) broadcastState() {
	s.broadcast(EventState, s.View())
}

func (s *Session) broadcast(t EventType, payload any) {
	ev := Event{
		Type:      t,
		SessionID: s.id,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("subscriber buffer full, dropping event", "type", t)
		}
	}
}

func (s *Session) recordUsage(ctx context.Context, what string, fn func(context.Context) error) {
	if s.usage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.log.Warn("failed to record usage", "metric", what, "error", err)
	}
}
