package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/reveal"
	"github.com/eleven-am/transcript-demo/internal/shared"
)

type FileResolver interface {
	Resolve(ctx context.Context, id string) (*audiofile.AudioFile, error)
	Default(ctx context.Context) (*audiofile.AudioFile, error)
}

type Manager struct {
	files     FileResolver
	usage     UsageRecorder
	cfg       Config
	schedOpts []reveal.Option
	sessions  map[string]*Session
	mu        sync.RWMutex
	log       *slog.Logger
}

type ManagerConfig struct {
	Files   FileResolver
	Usage   UsageRecorder
	Session Config
	// SchedulerOptions are applied to every session's scheduler, after the
	// session's own logger and update hook.
	SchedulerOptions []reveal.Option
	Log              *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	return &Manager{
		files:     cfg.Files,
		usage:     cfg.Usage,
		cfg:       cfg.Session,
		schedOpts: cfg.SchedulerOptions,
		sessions:  make(map[string]*Session),
		log:       cfg.Log.With("component", "playback_manager"),
	}
}

func (m *Manager) Create(ctx context.Context) (*Session, error) {
	var file *audiofile.AudioFile
	if m.files != nil {
		f, err := m.files.Default(ctx)
		switch {
		case err == nil:
			file = f
		case errors.Is(err, shared.ErrNotFound):
		default:
			return nil, fmt.Errorf("load default file: %w", err)
		}
	}

	session := newSession(shared.NewID("ps_"), m.cfg, file, m.usage, m.schedOpts, m.log)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	session.recordUsage(ctx, "session", func(ctx context.Context) error {
		return m.usage.IncrementSessions(ctx)
	})

	m.log.Info("playback session created", "session_id", session.ID())
	return session, nil
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if session != nil {
		session.Close()
		m.log.Info("playback session removed", "session_id", sessionID)
	}
	return ok
}

// Resolve looks a file up in the catalog for a session's select command.
func (m *Manager) Resolve(ctx context.Context, fileID string) (*audiofile.AudioFile, error) {
	if m.files == nil {
		return nil, shared.ErrNotFound
	}
	return m.files.Resolve(ctx, fileID)
}

// Notify implements audiofile.Notifier.
func (m *Manager) Notify(sessionID string, level shared.Level, message string) error {
	session, ok := m.Get(sessionID)
	if !ok {
		return shared.ErrNotFound
	}
	session.Notify(level, message)
	return nil
}

type SessionInfo struct {
	SessionID   string `json:"session_id"`
	FileID      string `json:"file_id,omitempty"`
	Status      string `json:"status"`
	Playing     bool   `json:"playing"`
	Subscribers int    `json:"subscribers"`
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (m *Manager) List() []SessionInfo {
	sessions := m.Sessions()
	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		info := SessionInfo{
			SessionID:   s.ID(),
			Status:      string(s.scheduler.Status()),
			Playing:     s.IsPlaying(),
			Subscribers: s.SubscriberCount(),
		}
		if f := s.File(); f != nil {
			info.FileID = f.ID
		}
		infos = append(infos, info)
	}
	return infos
}

func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.log.Info("playback manager closed", "sessions", len(sessions))
	return nil
}
