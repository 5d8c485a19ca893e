package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjohansson/windy-city-politics/internal/storage"
)

func TestStoriesHandler(t *testing.T) {
	mock := storage.NewMockStorage()
	mock.AddStory("lakeside.ink", "Wind off the water.")
	mock.AddStory("city_hall.ink", "The mayor waits.")
	handler := NewStoriesHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/stories", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stories []StoryInfo
	require.NoError(t, decodeBody(w, &stories))
	require.Len(t, stories, 2)
	assert.Equal(t, StoryInfo{Name: "city_hall", File: "city_hall.ink"}, stories[0])
	assert.Equal(t, StoryInfo{Name: "lakeside", File: "lakeside.ink"}, stories[1])
}

func TestStoriesHandler_MethodNotAllowed(t *testing.T) {
	handler := NewStoriesHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/stories", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
