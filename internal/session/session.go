package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pjohansson/windy-city-politics/internal/storage"
	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

// ErrNotFound is returned when a session is neither live nor persisted.
var ErrNotFound = errors.New("session not found")

// ErrFinished is returned when a choice is sent to a finished session.
var ErrFinished = errors.New("session is finished")

// Session is one live play-through of a story. The engine is
// single-threaded, so every engine call on a session holds its lock.
type Session struct {
	ID    uuid.UUID
	Story string

	mu         sync.Mutex
	story      *ink.Story
	transcript ink.LineBuffer
	choices    []ink.Line
	taken      []int
	finished   bool
	createdAt  time.Time
}

// record snapshots the session for persistence and API responses.
// Caller must hold the session lock.
func (s *Session) record() *storage.SessionRecord {
	return &storage.SessionRecord{
		ID:           s.ID,
		Story:        s.Story,
		Transcript:   append(ink.LineBuffer(nil), s.transcript...),
		Choices:      append([]ink.Line(nil), s.choices...),
		TakenChoices: append([]int(nil), s.taken...),
		Finished:     s.finished,
		CreatedAt:    s.createdAt,
	}
}

// Manager owns the live sessions and keeps their persisted snapshots up
// to date. Sessions evicted from memory (for example after a restart) are
// rebuilt from their snapshot by replaying the taken choices.
type Manager struct {
	storage storage.Storage
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager backed by the given storage.
func NewManager(st storage.Storage, logger *slog.Logger) *Manager {
	return &Manager{
		storage:  st,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session for the named story file and follows the
// story to its first stop.
func (m *Manager) Create(ctx context.Context, storyFile string) (*storage.SessionRecord, error) {
	content, err := m.storage.LoadStory(ctx, storyFile)
	if err != nil {
		return nil, err
	}

	story, err := ink.ReadStory(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse story %s: %w", storyFile, err)
	}

	session := &Session{
		ID:        uuid.New(),
		Story:     storyFile,
		story:     story,
		createdAt: time.Now(),
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	result, err := story.Start(&session.transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to start story %s: %w", storyFile, err)
	}
	session.apply(result)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return m.persist(ctx, session), nil
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*storage.SessionRecord, error) {
	session, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.record(), nil
}

// Choose resumes a session with the selected choice index and follows the
// story to its next stop.
func (m *Manager) Choose(ctx context.Context, id uuid.UUID, index int) (*storage.SessionRecord, error) {
	session, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.finished {
		return nil, ErrFinished
	}

	result, err := session.story.ResumeWithChoice(index, &session.transcript)
	if err != nil {
		return nil, err
	}
	session.taken = append(session.taken, index)
	session.apply(result)

	return m.persist(ctx, session), nil
}

// Delete removes a session from memory and storage.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	return m.storage.DeleteSession(ctx, id)
}

// apply folds a follow result into the session state. Caller must hold
// the session lock.
func (s *Session) apply(result ink.Result) {
	s.finished = result.Finished
	s.choices = result.Choices
}

// persist saves a snapshot of the session, logging but not failing on
// storage errors: the live session stays authoritative. Caller must hold
// the session lock.
func (m *Manager) persist(ctx context.Context, session *Session) *storage.SessionRecord {
	record := session.record()
	if err := m.storage.SaveSession(ctx, record); err != nil {
		m.logger.Error("Failed to persist session", "uuid", session.ID, "error", err)
	}
	return record
}

// lookup finds a live session, rehydrating it from its snapshot when the
// session is not in memory.
func (m *Manager) lookup(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return session, nil
	}

	record, err := m.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}

	session, err = m.rehydrate(ctx, record)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		// Lost a rehydration race; keep the first one.
		return existing, nil
	}
	m.sessions[id] = session
	return session, nil
}

// rehydrate rebuilds a live session by replaying its taken choices
// through a freshly parsed story.
func (m *Manager) rehydrate(ctx context.Context, record *storage.SessionRecord) (*Session, error) {
	content, err := m.storage.LoadStory(ctx, record.Story)
	if err != nil {
		return nil, fmt.Errorf("failed to reload story for session %s: %w", record.ID, err)
	}

	story, err := ink.ReadStory(content)
	if err != nil {
		return nil, fmt.Errorf("failed to reparse story for session %s: %w", record.ID, err)
	}

	session := &Session{
		ID:        record.ID,
		Story:     record.Story,
		story:     story,
		createdAt: record.CreatedAt,
	}

	result, err := story.Start(&session.transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to replay session %s: %w", record.ID, err)
	}
	session.apply(result)

	for _, index := range record.TakenChoices {
		result, err = story.ResumeWithChoice(index, &session.transcript)
		if err != nil {
			return nil, fmt.Errorf("failed to replay session %s at choice %d: %w", record.ID, index, err)
		}
		session.taken = append(session.taken, index)
		session.apply(result)
	}

	m.logger.Info("Rehydrated session", "uuid", record.ID, "story", record.Story,
		"choices_replayed", len(record.TakenChoices))

	return session, nil
}
