package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"storygenie/internal/domain/story"
	"sync"

	"github.com/sirupsen/logrus"
)

// StorageKey names the single entry holding the saved collection.
const StorageKey = "savedStories"

// FileStore keeps the saved stories as a JSON array in one file
type FileStore struct {
	dir  string
	file string
	mu   sync.Mutex
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	// Create the directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.WithError(err).WithField("dir", dir).Warn("Failed to create library directory")
	}

	return &FileStore{
		dir:  dir,
		file: filepath.Join(dir, StorageKey+".json"),
	}
}

// Path returns the file backing the store.
func (fs *FileStore) Path() string {
	return fs.file
}

func (fs *FileStore) Save(rec story.Record) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	shelf, err := fs.read()
	if err != nil {
		return story.NewFailure(story.PersistError, "save story", err)
	}

	shelf = append(shelf, rec)
	if err := fs.write(shelf); err != nil {
		return story.NewFailure(story.PersistError, "save story", err)
	}

	logrus.WithFields(logrus.Fields{
		"id":      rec.ID,
		"stories": len(shelf),
		"file":    fs.file,
	}).Info("Saved story")

	return nil
}

func (fs *FileStore) LoadAll() ([]story.Record, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	shelf, err := fs.read()
	if err != nil {
		return nil, story.NewFailure(story.PersistError, "load stories", err)
	}
	return shelf.NewestFirst(), nil
}

// Find looks up a saved story by id.
func (fs *FileStore) Find(id string) (story.Record, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	shelf, err := fs.read()
	if err != nil {
		return story.Record{}, false, story.NewFailure(story.PersistError, "find story", err)
	}
	rec, ok := shelf.Find(id)
	return rec, ok, nil
}

func (fs *FileStore) ClearAll() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.file); err != nil && !os.IsNotExist(err) {
		return story.NewFailure(story.PersistError, "clear stories", fmt.Errorf("failed to clear library: %w", err))
	}
	logrus.WithField("file", fs.file).Info("Cleared saved stories")
	return nil
}

// read loads the shelf. A missing file is an empty shelf.
func (fs *FileStore) read() (Shelf, error) {
	data, err := os.ReadFile(fs.file)
	if errors.Is(err, os.ErrNotExist) {
		return Shelf{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open library file: %w", err)
	}
	if len(data) == 0 {
		return Shelf{}, nil
	}

	var shelf Shelf
	if err := json.Unmarshal(data, &shelf); err != nil {
		return nil, fmt.Errorf("failed to decode library file: %w", err)
	}
	return shelf, nil
}

// write replaces the library file through a temp file so a failed write
// never leaves a truncated collection behind.
func (fs *FileStore) write(shelf Shelf) error {
	data, err := json.MarshalIndent(shelf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode library: %w", err)
	}

	tmp := fs.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write library file: %w", err)
	}
	if err := os.Rename(tmp, fs.file); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace library file: %w", err)
	}
	return nil
}
