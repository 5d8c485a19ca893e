package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

// SessionRecord is the persisted snapshot of one play session. The live
// engine state is not serialized; a session is rebuilt by replaying the
// taken choice indices through a freshly parsed story.
type SessionRecord struct {
	ID           uuid.UUID      `json:"id"`
	Story        string         `json:"story"`
	Transcript   ink.LineBuffer `json:"transcript"`
	Choices      []ink.Line     `json:"choices,omitempty"`
	TakenChoices []int          `json:"taken_choices,omitempty"`
	Finished     bool           `json:"finished"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Storage persists session snapshots and serves the static story catalog.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	// SaveSession stores a session snapshot under its id.
	SaveSession(ctx context.Context, record *SessionRecord) error

	// LoadSession retrieves a session snapshot by id. Returns nil when the
	// session does not exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*SessionRecord, error)

	// DeleteSession removes a session snapshot by id.
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// ListStories maps story names to their filenames in the catalog.
	ListStories(ctx context.Context) (map[string]string, error)

	// LoadStory reads a story's raw text from the catalog by filename.
	LoadStory(ctx context.Context, filename string) (string, error)
}
