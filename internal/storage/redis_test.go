package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := NewRedisStorage("redis://"+mr.Addr(), t.TempDir(), time.Hour, logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis storage: %v", err)
	}

	return store, mr
}

func TestRedisStorage_SessionRoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()

	record := &SessionRecord{
		ID:    uuid.New(),
		Story: "politics.ink",
		Transcript: ink.LineBuffer{
			{Text: "The committee meets at noon.\n"},
		},
		Choices: []ink.Line{
			{Text: "Attend the meeting."},
			{Text: "Stay home.", Tags: []string{"cowardly"}},
		},
		TakenChoices: []int{0, 1},
		CreatedAt:    time.Now(),
	}

	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := store.LoadSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected a session record, got nil")
	}

	if loaded.Story != record.Story {
		t.Errorf("Expected story %q, got %q", record.Story, loaded.Story)
	}
	if len(loaded.Transcript) != 1 || loaded.Transcript[0].Text != record.Transcript[0].Text {
		t.Errorf("Unexpected transcript: %+v", loaded.Transcript)
	}
	if len(loaded.Choices) != 2 || loaded.Choices[1].Tags[0] != "cowardly" {
		t.Errorf("Unexpected choices: %+v", loaded.Choices)
	}
	if len(loaded.TakenChoices) != 2 || loaded.TakenChoices[1] != 1 {
		t.Errorf("Unexpected taken choices: %+v", loaded.TakenChoices)
	}
}

func TestRedisStorage_LoadMissingSession(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() {
		_ = store.Close()
	}()

	loaded, err := store.LoadSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Load of a missing session should not error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for a missing session, got %+v", loaded)
	}
}

func TestRedisStorage_DeleteSession(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	record := &SessionRecord{ID: uuid.New(), Story: "politics.ink"}

	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if err := store.DeleteSession(ctx, record.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	loaded, err := store.LoadSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected the session to be gone, got %+v", loaded)
	}
}

func TestRedisStorage_SessionExpiry(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	record := &SessionRecord{ID: uuid.New(), Story: "politics.ink"}

	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	loaded, err := store.LoadSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected the session to expire, got %+v", loaded)
	}
}
