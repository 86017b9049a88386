package reveal

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

const foxText = "the quick brown fox jumps over the lazy dog"

type fixedRand struct {
	n int
}

func (f fixedRand) IntN(int) int { return f.n }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	base := []Option{
		WithClock(mock),
		WithRand(fixedRand{n: 0}),
		WithLogger(testLogger()),
	}
	return New(append(base, opts...)...), mock
}

func waitUpdate(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return Snapshot{}
	}
}

func expectNoUpdate(t *testing.T, ch <-chan Snapshot) {
	t.Helper()
	select {
	case snap := <-ch:
		t.Fatalf("unexpected update: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New()
	if s.Status() != StatusIdle {
		t.Errorf("expected idle, got %s", s.Status())
	}
	snap := s.Snapshot()
	if snap.FullText != "" || snap.LiveWindow != "" || snap.ElapsedTicks != 0 || snap.WordsRevealed != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestScheduler_Start_InvalidArguments(t *testing.T) {
	s, _ := newTestScheduler(t)

	tests := []struct {
		name     string
		window   int
		interval time.Duration
		wantErr  error
	}{
		{"zero window", 0, time.Second, ErrInvalidWindow},
		{"negative window", -5, time.Second, ErrInvalidWindow},
		{"zero interval", 10, 0, ErrInvalidInterval},
		{"negative interval", 10, -time.Second, ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Start(foxText, tt.window, tt.interval)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if s.Status() != StatusIdle {
				t.Errorf("rejected start should leave scheduler idle, got %s", s.Status())
			}
		})
	}
}

func TestScheduler_FoxScenario(t *testing.T) {
	s, _ := newTestScheduler(t)

	if err := s.Start(foxText, 10, time.Hour); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	steps := []struct {
		full   string
		status Status
		words  int
	}{
		{"the quick brown", StatusRunning, 3},
		{"the quick brown fox jumps over", StatusRunning, 6},
		{foxText, StatusTerminal, 8},
	}

	for i, step := range steps {
		s.Tick()
		snap := s.Snapshot()
		if snap.FullText != step.full {
			t.Errorf("tick %d: full text = %q, want %q", i+1, snap.FullText, step.full)
		}
		if snap.Status != step.status {
			t.Errorf("tick %d: status = %s, want %s", i+1, snap.Status, step.status)
		}
		if snap.ElapsedTicks != i+1 {
			t.Errorf("tick %d: elapsed = %d", i+1, snap.ElapsedTicks)
		}
		if snap.WordsRevealed != step.words {
			t.Errorf("tick %d: words = %d, want %d", i+1, snap.WordsRevealed, step.words)
		}
		if snap.Cursor != len(snap.FullText) {
			t.Errorf("tick %d: cursor %d does not match full text length %d", i+1, snap.Cursor, len(snap.FullText))
		}
	}

	final := s.Snapshot()
	if final.LiveWindow != "e lazy dog" {
		t.Errorf("live window = %q", final.LiveWindow)
	}

	s.Tick()
	if got := s.Snapshot().ElapsedTicks; got != 3 {
		t.Errorf("terminal scheduler ticked again: elapsed = %d", got)
	}
}

func TestScheduler_EmptySource(t *testing.T) {
	updates := make(chan Snapshot, 4)
	s, mock := newTestScheduler(t, WithOnUpdate(func(snap Snapshot) { updates <- snap }))

	if err := s.Start("", 60, time.Second); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	snap := waitUpdate(t, updates)
	if snap.Status != StatusTerminal {
		t.Errorf("expected terminal, got %s", snap.Status)
	}
	if snap.ElapsedTicks != 0 || snap.FullText != "" || snap.LiveWindow != "" || snap.WordsRevealed != 0 {
		t.Errorf("expected empty terminal snapshot, got %+v", snap)
	}

	mock.Add(5 * time.Second)
	expectNoUpdate(t, updates)
}

func TestScheduler_TimerDrivesTicksUntilTerminal(t *testing.T) {
	updates := make(chan Snapshot, 16)
	s, mock := newTestScheduler(t, WithOnUpdate(func(snap Snapshot) { updates <- snap }))

	if err := s.Start(foxText, 10, time.Second); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	var last Snapshot
	for i := 0; i < 3; i++ {
		mock.Add(time.Second)
		snap := waitUpdate(t, updates)
		if snap.ElapsedTicks < last.ElapsedTicks || snap.Cursor < last.Cursor {
			t.Fatalf("state went backwards: %+v after %+v", snap, last)
		}
		last = snap
	}

	if last.Status != StatusTerminal {
		t.Fatalf("expected terminal after 3 ticks, got %s", last.Status)
	}

	mock.Add(10 * time.Second)
	expectNoUpdate(t, updates)
	if got := s.Snapshot().ElapsedTicks; got != 3 {
		t.Errorf("expected 3 ticks, got %d", got)
	}
}

func TestScheduler_DoubleStartKeepsSingleTimer(t *testing.T) {
	updates := make(chan Snapshot, 32)
	s, mock := newTestScheduler(t, WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	text := strings.Repeat("word ", 100)

	if err := s.Start(text, 60, time.Second); err != nil {
		t.Fatalf("first Start error: %v", err)
	}
	if err := s.Start(text, 60, time.Second); err != nil {
		t.Fatalf("second Start error: %v", err)
	}

	for i := 0; i < 5; i++ {
		mock.Add(time.Second)
		waitUpdate(t, updates)
	}
	expectNoUpdate(t, updates)

	if got := s.Snapshot().ElapsedTicks; got != 5 {
		t.Errorf("expected 5 ticks from a single timer, got %d", got)
	}
}

func TestScheduler_StopPreservesState(t *testing.T) {
	updates := make(chan Snapshot, 16)
	s, mock := newTestScheduler(t, WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	text := strings.Repeat("alpha beta ", 20)

	_ = s.Start(text, 60, time.Second)
	mock.Add(time.Second)
	before := waitUpdate(t, updates)

	s.Stop()
	s.Stop()
	if s.Status() != StatusStopped {
		t.Fatalf("expected stopped, got %s", s.Status())
	}

	mock.Add(5 * time.Second)
	expectNoUpdate(t, updates)

	after := s.Snapshot()
	if after.Cursor != before.Cursor || after.ElapsedTicks != before.ElapsedTicks || after.WordsRevealed != before.WordsRevealed {
		t.Errorf("stop changed state: before %+v after %+v", before, after)
	}

	if err := s.Start(text, 60, time.Second); err != nil {
		t.Fatalf("resume error: %v", err)
	}
	mock.Add(time.Second)
	resumed := waitUpdate(t, updates)
	if resumed.ElapsedTicks != before.ElapsedTicks+1 {
		t.Errorf("expected resume to continue ticks, got %d", resumed.ElapsedTicks)
	}
	if resumed.Cursor <= before.Cursor {
		t.Errorf("expected cursor to advance from %d, got %d", before.Cursor, resumed.Cursor)
	}
}

func TestScheduler_StopWhenIdleIsNoop(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.Stop()
	if s.Status() != StatusIdle {
		t.Errorf("expected idle, got %s", s.Status())
	}
}

func TestScheduler_Reset(t *testing.T) {
	s, mock := newTestScheduler(t)

	_ = s.Start(foxText, 10, time.Hour)
	s.Tick()
	s.Tick()
	s.Reset()
	s.Reset()

	snap := s.Snapshot()
	if snap != (Snapshot{Status: StatusIdle}) {
		t.Errorf("expected cleared snapshot, got %+v", snap)
	}

	mock.Add(2 * time.Hour)
	if got := s.Snapshot().ElapsedTicks; got != 0 {
		t.Errorf("reset scheduler kept ticking: %d", got)
	}
}

func TestScheduler_ResetFromTerminal(t *testing.T) {
	s, _ := newTestScheduler(t)

	_ = s.Start(foxText, 10, time.Hour)
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	if s.Status() != StatusTerminal {
		t.Fatalf("expected terminal, got %s", s.Status())
	}

	if err := s.Start(foxText, 10, time.Hour); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if s.Status() != StatusTerminal {
		t.Errorf("start on terminal should be absorbed, got %s", s.Status())
	}

	s.Reset()
	if err := s.Start(foxText, 10, time.Hour); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	s.Tick()
	if got := s.Snapshot().FullText; got != "the quick brown" {
		t.Errorf("expected fresh run after reset, got %q", got)
	}
}

func TestScheduler_ResetWaitsForInFlightUpdate(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	s, _ := newTestScheduler(t, WithOnUpdate(func(Snapshot) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
	}))

	_ = s.Start(foxText, 10, time.Hour)
	go s.Tick()
	<-entered

	resetDone := make(chan struct{})
	go func() {
		s.Reset()
		close(resetDone)
	}()

	select {
	case <-resetDone:
		t.Fatal("Reset returned while an update was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-resetDone:
	case <-time.After(time.Second):
		t.Fatal("Reset did not return after the update finished")
	}

	if snap := s.Snapshot(); snap != (Snapshot{Status: StatusIdle}) {
		t.Errorf("expected idle snapshot after reset, got %+v", snap)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one update, got %d", got)
	}
}

func TestScheduler_DropsSnapshotFromCancelledRun(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(s *Scheduler)
	}{
		{"reset", func(s *Scheduler) { s.Reset() }},
		{"stop", func(s *Scheduler) { s.Stop() }},
		{"reset then restart", func(s *Scheduler) {
			s.Reset()
			_ = s.Start(foxText, 10, time.Hour)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := make(chan Snapshot, 10)
			s, _ := newTestScheduler(t, WithOnUpdate(func(snap Snapshot) { updates <- snap }))
			_ = s.Start(foxText, 10, time.Hour)

			// A tick computed by the old run whose delivery lost the race.
			s.mu.Lock()
			snap := s.tickLocked()
			gen := s.gen
			s.mu.Unlock()

			tt.cancel(s)
			s.publish(snap, gen)

			select {
			case got := <-updates:
				t.Errorf("stale snapshot delivered: %+v", got)
			default:
			}
		})
	}
}

func TestScheduler_TerminalTickIsDelivered(t *testing.T) {
	updates := make(chan Snapshot, 10)
	s, _ := newTestScheduler(t, WithOnUpdate(func(snap Snapshot) { updates <- snap }))

	_ = s.Start("one two", 10, time.Hour)
	s.Tick()

	snap := waitUpdate(t, updates)
	if snap.Status != StatusTerminal || snap.FullText != "one two" {
		t.Errorf("expected terminal snapshot with full text, got %+v", snap)
	}
}

func TestScheduler_NewSourceRestarts(t *testing.T) {
	s, _ := newTestScheduler(t)

	_ = s.Start(foxText, 10, time.Hour)
	s.Tick()
	s.Stop()

	_ = s.Start("one two three four five", 10, time.Hour)
	snap := s.Snapshot()
	if snap.Cursor != 0 || snap.ElapsedTicks != 0 {
		t.Errorf("expected cleared state for a new source, got %+v", snap)
	}
	s.Tick()
	if got := s.Snapshot().FullText; got != "one two three" {
		t.Errorf("unexpected full text %q", got)
	}
}

func TestScheduler_InvariantsWithRandomChunks(t *testing.T) {
	text := "Welcome to our audio transcription application. This is a sample transcript that would normally be generated from your audio file using speech recognition technology."

	for seed := uint64(1); seed <= 20; seed++ {
		s, _ := newTestScheduler(t, WithRand(rand.New(rand.NewPCG(seed, seed))))
		for _, window := range []int{1, 10, 60, 1000} {
			s.Reset()
			if err := s.Start(text, window, time.Hour); err != nil {
				t.Fatalf("Start error: %v", err)
			}

			var prev Snapshot
			terminalSeen := 0
			for i := 0; i < len(text); i++ {
				s.Tick()
				snap := s.Snapshot()

				if !strings.HasPrefix(text, snap.FullText) || len(snap.FullText) != snap.Cursor {
					t.Fatalf("full text is not a prefix of length cursor: %+v", snap)
				}
				if !strings.HasSuffix(snap.FullText, snap.LiveWindow) || len(snap.LiveWindow) > window {
					t.Fatalf("live window %q is not a bounded suffix", snap.LiveWindow)
				}
				if snap.Cursor < prev.Cursor || snap.ElapsedTicks < prev.ElapsedTicks {
					t.Fatalf("non-monotonic state: %+v after %+v", snap, prev)
				}
				if snap.Status == StatusTerminal && prev.Status != StatusTerminal {
					terminalSeen++
				}
				prev = snap
			}

			if prev.Cursor != len(text) || terminalSeen != 1 {
				t.Errorf("seed %d window %d: cursor %d terminal transitions %d", seed, window, prev.Cursor, terminalSeen)
			}
		}
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		cursor    int
		n         int
		wantPos   int
		wantWords int
	}{
		{"three words", foxText, 0, 3, 15, 3},
		{"from a space", foxText, 15, 3, 30, 3},
		{"terminal chunk", foxText, 30, 3, len(foxText), 2},
		{"no spaces", "word", 0, 5, 4, 0},
		{"leading space skipped", " a b", 0, 1, 2, 1},
		{"trailing space", "a b ", 1, 3, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, words := advance(tt.text, tt.cursor, tt.n)
			if pos != tt.wantPos || words != tt.wantWords {
				t.Errorf("advance = (%d, %d), want (%d, %d)", pos, words, tt.wantPos, tt.wantWords)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		full string
		size int
		want string
	}{
		{"", 10, ""},
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"abcdefghij", 3, "hij"},
		{"héllo", 4, "llo"},
	}

	for _, tt := range tests {
		if got := window(tt.full, tt.size); got != tt.want {
			t.Errorf("window(%q, %d) = %q, want %q", tt.full, tt.size, got, tt.want)
		}
	}
}
