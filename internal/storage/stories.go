package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Story catalog operations (filesystem-backed)

const storyExt = ".ink"

// ListStories maps story names (filename without extension) to filenames
// for every story file in the catalog directory.
func (r *RedisStorage) ListStories(ctx context.Context) (map[string]string, error) {
	stories := make(map[string]string)

	err := filepath.WalkDir(r.storyDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != storyExt {
			return nil
		}

		filename := filepath.Base(path)
		name := strings.TrimSuffix(filename, storyExt)
		stories[name] = filename
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk story directory", "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	return stories, nil
}

// LoadStory reads a story's raw text by filename. The filename is
// restricted to the catalog directory.
func (r *RedisStorage) LoadStory(ctx context.Context, filename string) (string, error) {
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid story filename: %s", filename)
	}

	path := filepath.Join(r.storyDir, filename)
	r.logger.Debug("Loading story", "filename", filename, "full_path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("story not found: %s", filename)
		}
		return "", fmt.Errorf("failed to read story file: %w", err)
	}

	return string(data), nil
}
