package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/pjohansson/windy-city-politics/internal/storage"
)

// StoryInfo describes one entry in the story catalog.
type StoryInfo struct {
	Name string `json:"name"`
	File string `json:"file"`
}

type StoriesHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewStoriesHandler(storage storage.Storage, logger *slog.Logger) *StoriesHandler {
	return &StoriesHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *StoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	catalog, err := h.storage.ListStories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list stories", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list stories")
		return
	}

	stories := make([]StoryInfo, 0, len(catalog))
	for name, file := range catalog {
		stories = append(stories, StoryInfo{Name: name, File: file})
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].Name < stories[j].Name })

	writeJSON(w, http.StatusOK, stories)
}
