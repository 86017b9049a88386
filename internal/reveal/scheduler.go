package reveal

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
)

const (
	minChunkWords = 3
	maxChunkWords = 7
)

var (
	ErrInvalidWindow   = errors.New("window size must be positive")
	ErrInvalidInterval = errors.New("tick interval must be positive")
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusTerminal Status = "terminal"
)

// Rand is the source of chunk sizes. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type Snapshot struct {
	FullText      string `json:"full_text"`
	LiveWindow    string `json:"live_window"`
	ElapsedTicks  int    `json:"elapsed_ticks"`
	WordsRevealed int    `json:"words_revealed"`
	Cursor        int    `json:"cursor"`
	Status        Status `json:"status"`
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithRand(r Rand) Option {
	return func(s *Scheduler) { s.rand = r }
}

func WithOnUpdate(fn func(Snapshot)) Option {
	return func(s *Scheduler) { s.onUpdate = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// run is the handle for one ticking goroutine.
type run struct {
	gen  uint64
	stop chan struct{}
}

type Scheduler struct {
	clock    clock.Clock
	rand     Rand
	onUpdate func(Snapshot)
	log      *slog.Logger

	// pubMu serializes delivery to onUpdate with Start, Stop and Reset.
	// Lock order is pubMu then mu.
	pubMu      sync.Mutex
	mu         sync.Mutex
	source     string
	windowSize int
	cursor     int
	ticks      int
	words      int
	status     Status
	gen        uint64
	active     *run
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.rand == nil {
		seed := uint64(time.Now().UnixNano())
		s.rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "reveal_scheduler")
	return s
}

func (s *Scheduler) Start(source string, windowSize int, tickInterval time.Duration) error {
	if windowSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindow, windowSize)
	}
	if tickInterval <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidInterval, tickInterval)
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	s.cancelLocked()

	if source != s.source {
		s.clearLocked()
		s.source = source
	}
	s.windowSize = windowSize

	if s.status == StatusTerminal {
		s.mu.Unlock()
		return nil
	}

	if s.cursor >= len(s.source) {
		s.status = StatusTerminal
		snap, gen := s.snapshotLocked(), s.gen
		s.mu.Unlock()
		s.log.Debug("source exhausted at start", "length", len(source))
		s.deliverLocked(snap, gen)
		return nil
	}

	s.gen++
	r := &run{gen: s.gen, stop: make(chan struct{})}
	s.active = r
	s.status = StatusRunning
	ticker := s.clock.Ticker(tickInterval)
	cursor := s.cursor
	s.mu.Unlock()

	s.log.Debug("reveal started", "cursor", cursor, "interval", tickInterval)
	go s.loop(r, ticker)
	return nil
}

func (s *Scheduler) Stop() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return
	}
	s.cancelLocked()
	s.status = StatusStopped
}

// Reset returns to idle. Once it returns no snapshot taken before the reset
// reaches onUpdate.
func (s *Scheduler) Reset() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.clearLocked()
}

// Tick performs one reveal step. It is a no-op unless the scheduler is running.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}
	snap := s.tickLocked()
	gen := s.gen
	s.mu.Unlock()
	s.publish(snap, gen)
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) loop(r *run, ticker *clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.active != r || s.status != StatusRunning {
				s.mu.Unlock()
				return
			}
			snap := s.tickLocked()
			gen := s.gen
			done := s.status == StatusTerminal
			s.mu.Unlock()

			s.publish(snap, gen)
			if done {
				return
			}
		}
	}
}

func (s *Scheduler) tickLocked() Snapshot {
	s.ticks++

	chunk := minChunkWords + s.rand.IntN(maxChunkWords-minChunkWords+1)
	cursor, advanced := advance(s.source, s.cursor, chunk)
	s.cursor = cursor
	s.words += advanced

	if s.cursor >= len(s.source) {
		s.cancelLocked()
		s.status = StatusTerminal
		s.log.Debug("reveal complete", "ticks", s.ticks, "words", s.words)
	}
	return s.snapshotLocked()
}

func (s *Scheduler) cancelLocked() {
	if s.active == nil {
		return
	}
	close(s.active.stop)
	s.active = nil
	s.gen++
}

func (s *Scheduler) clearLocked() {
	s.cursor = 0
	s.ticks = 0
	s.words = 0
	s.status = StatusIdle
}

func (s *Scheduler) snapshotLocked() Snapshot {
	full := s.source[:s.cursor]
	return Snapshot{
		FullText:      full,
		LiveWindow:    window(full, s.windowSize),
		ElapsedTicks:  s.ticks,
		WordsRevealed: s.words,
		Cursor:        s.cursor,
		Status:        s.status,
	}
}

// publish hands snap to onUpdate unless the run that produced it (gen) has
// since been stopped, reset or replaced.
func (s *Scheduler) publish(snap Snapshot, gen uint64) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.deliverLocked(snap, gen)
}

// deliverLocked requires pubMu.
func (s *Scheduler) deliverLocked(snap Snapshot, gen uint64) {
	s.mu.Lock()
	current := s.gen == gen
	s.mu.Unlock()
	if !current {
		s.log.Debug("dropping stale snapshot", "cursor", snap.Cursor)
		return
	}
	if s.onUpdate != nil {
		s.onUpdate(snap)
	}
}

// advance moves past up to n spaces found strictly after cursor. When fewer
// than n remain it returns len(text).
func advance(text string, cursor, n int) (int, int) {
	pos := cursor
	for i := 0; i < n; i++ {
		next := strings.IndexByte(text[pos+1:], ' ')
		if next == -1 {
			return len(text), i
		}
		pos += next + 1
	}
	return pos, n
}

func window(full string, size int) string {
	if size <= 0 {
		return ""
	}
	start := len(full) - size
	if start <= 0 {
		return full
	}
	for start < len(full) && !utf8.RuneStart(full[start]) {
		start++
	}
	return full[start:]
}
