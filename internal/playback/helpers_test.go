package playback

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/dto"
	"github.com/eleven-am/transcript-demo/internal/reveal"
	"github.com/eleven-am/transcript-demo/internal/shared"
)

const foxText = "the quick brown fox jumps over the lazy dog"

type fixedRand struct{}

func (fixedRand) IntN(int) int { return 0 }

type fakeFiles struct {
	files    map[string]*audiofile.AudioFile
	fallback *audiofile.AudioFile
	err      error
}

func (f *fakeFiles) Resolve(_ context.Context, id string) (*audiofile.AudioFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	file, ok := f.files[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return file, nil
}

func (f *fakeFiles) Default(context.Context) (*audiofile.AudioFile, error) {
	if f.fallback == nil {
		return nil, shared.ErrNotFound
	}
	return f.fallback, nil
}

type fakeUsage struct {
	mu       sync.Mutex
	sessions int
	plays    int
	resets   int
	ticks    int
	words    int64
}

func (f *fakeUsage) IncrementSessions(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions++
	return nil
}

func (f *fakeUsage) IncrementPlays(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakeUsage) IncrementResets(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeUsage) RecordTick(_ context.Context, words int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	f.words += words
	return nil
}

func (f *fakeUsage) snapshot() (sessions, plays, resets, ticks int, words int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, f.plays, f.resets, f.ticks, f.words
}

var (
	sampleOne = &audiofile.AudioFile{ID: "sample-1", Name: "Sample Audio 1", URL: "https://example.com/1.mp3", Source: audiofile.SourceSample}
	sampleTwo = &audiofile.AudioFile{ID: "sample-2", Name: "Sample Audio 2", URL: "https://example.com/2.mp3", Source: audiofile.SourceSample}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type managerFixture struct {
	manager *Manager
	files   *fakeFiles
	usage   *fakeUsage
	clock   *clock.Mock
}

func newManagerFixture(t *testing.T, fallback *audiofile.AudioFile) *managerFixture {
	t.Helper()
	files := &fakeFiles{
		files:    map[string]*audiofile.AudioFile{sampleOne.ID: sampleOne, sampleTwo.ID: sampleTwo},
		fallback: fallback,
	}
	usage := &fakeUsage{}
	mock := clock.NewMock()
	m := NewManager(ManagerConfig{
		Files: files,
		Usage: usage,
		Session: Config{
			SourceText:   foxText,
			WindowSize:   10,
			TickInterval: time.Second,
		},
		SchedulerOptions: []reveal.Option{
			reveal.WithClock(mock),
			reveal.WithRand(fixedRand{}),
		},
		Log: testLogger(),
	})
	t.Cleanup(func() { _ = m.Close() })
	return &managerFixture{manager: m, files: files, usage: usage, clock: mock}
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// waitFor skips events until one of type t arrives.
func waitFor(t *testing.T, ch <-chan Event, typ EventType) Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
			return Event{}
		}
	}
}

// waitTicks waits for a state event reporting at least n elapsed ticks.
func waitTicks(t *testing.T, ch <-chan Event, n int) dto.TranscriptView {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatal("event channel closed")
			}
			if ev.Type != EventState {
				continue
			}
			view := ev.Payload.(dto.TranscriptView)
			if view.Ticks >= n {
				return view
			}
		case <-deadline:
			t.Fatalf("timed out waiting for tick %d", n)
			return dto.TranscriptView{}
		}
	}
}
