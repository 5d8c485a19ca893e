package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjohansson/windy-city-politics/internal/storage"
	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

const testStory = `You stand outside city hall.
-> lobby
=lobby
The lobby is crowded.
* Push through the crowd. -> office
* Wait your turn. -> office
=office
The office is empty.
-> DONE`

func testManager(t *testing.T) (*Manager, *storage.MockStorage) {
	t.Helper()

	mock := storage.NewMockStorage()
	mock.AddStory("city_hall.ink", testStory)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewManager(mock, logger), mock
}

func TestManager_Create(t *testing.T) {
	manager, _ := testManager(t)

	record, err := manager.Create(context.Background(), "city_hall.ink")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, "city_hall.ink", record.Story)
	assert.False(t, record.Finished)

	require.Len(t, record.Transcript, 2)
	assert.Equal(t, "You stand outside city hall.\n", record.Transcript[0].Text)
	assert.Equal(t, "The lobby is crowded.\n", record.Transcript[1].Text)

	require.Len(t, record.Choices, 2)
	assert.Equal(t, "Push through the crowd.", record.Choices[0].Text)
}

func TestManager_CreateUnknownStory(t *testing.T) {
	manager, _ := testManager(t)

	_, err := manager.Create(context.Background(), "missing.ink")
	assert.Error(t, err)
}

func TestManager_CreateUnparsableStory(t *testing.T) {
	manager, mock := testManager(t)
	mock.AddStory("broken.ink", "*+ mixed markers")

	_, err := manager.Create(context.Background(), "broken.ink")
	require.Error(t, err)

	var lineErr *ink.LineError
	assert.True(t, errors.As(err, &lineErr))
}

func TestManager_Choose(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	created, err := manager.Create(ctx, "city_hall.ink")
	require.NoError(t, err)

	record, err := manager.Choose(ctx, created.ID, 1)
	require.NoError(t, err)

	assert.True(t, record.Finished)
	assert.Empty(t, record.Choices)
	assert.Equal(t, []int{1}, record.TakenChoices)
	// The chosen line glues onto the target knot's text through its divert.
	assert.Equal(t, "Wait your turn. The office is empty.\n", record.Transcript[len(record.Transcript)-1].Text)
}

func TestManager_ChooseInvalidIndex(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	created, err := manager.Create(ctx, "city_hall.ink")
	require.NoError(t, err)

	_, err = manager.Choose(ctx, created.ID, 7)
	var invalid *ink.InvalidChoiceError
	assert.True(t, errors.As(err, &invalid))
}

func TestManager_ChooseOnFinishedSession(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	created, err := manager.Create(ctx, "city_hall.ink")
	require.NoError(t, err)

	_, err = manager.Choose(ctx, created.ID, 0)
	require.NoError(t, err)

	_, err = manager.Choose(ctx, created.ID, 0)
	assert.ErrorIs(t, err, ErrFinished)
}

func TestManager_GetMissingSession(t *testing.T) {
	manager, _ := testManager(t)

	_, err := manager.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RehydratesFromStorage(t *testing.T) {
	mock := storage.NewMockStorage()
	mock.AddStory("city_hall.ink", testStory)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx := context.Background()

	first := NewManager(mock, logger)
	created, err := first.Create(ctx, "city_hall.ink")
	require.NoError(t, err)

	// A second manager sharing the same storage simulates a restart.
	second := NewManager(mock, logger)
	record, err := second.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.Transcript, record.Transcript)
	assert.Equal(t, created.Choices, record.Choices)

	// The rehydrated session can continue playing.
	record, err = second.Choose(ctx, created.ID, 0)
	require.NoError(t, err)
	assert.True(t, record.Finished)
}

func TestManager_Delete(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	created, err := manager.Create(ctx, "city_hall.ink")
	require.NoError(t, err)

	require.NoError(t, manager.Delete(ctx, created.ID))

	_, err = manager.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
