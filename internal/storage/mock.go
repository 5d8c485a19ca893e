package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*SessionRecord
	stories   map[string]string
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*SessionRecord),
		stories:  make(map[string]string),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveSession
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// AddStory registers a story text under the given filename
func (m *MockStorage) AddStory(filename, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[filename] = content
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, record *SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	copied := *record
	m.sessions[record.ID] = &copied
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) ListStories(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stories := make(map[string]string, len(m.stories))
	for filename := range m.stories {
		stories[strings.TrimSuffix(filename, storyExt)] = filename
	}
	return stories, nil
}

func (m *MockStorage) LoadStory(ctx context.Context, filename string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.stories[filename]
	if !ok {
		return "", fmt.Errorf("story not found: %s", filename)
	}
	return content, nil
}
