package trip

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage keeps the original uploaded documents, grouped by trip
type Storage interface {
	// Save stores a document for a trip and returns its storage path
	Save(tripID, filename string, data []byte) (string, error)

	// Get retrieves a document by storage path
	Get(path string) ([]byte, error)

	// DeleteTrip removes every document of a trip
	DeleteTrip(tripID string) error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes a document to <base>/<tripID>/<filename>
func (l *LocalStorage) Save(tripID, filename string, data []byte) (string, error) {
	dir := filepath.Join(l.basePath, filepath.Base(tripID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating trip directory: %w", err)
	}

	path := filepath.Join(filepath.Base(tripID), filepath.Base(filename))
	if err := os.WriteFile(filepath.Join(l.basePath, path), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return path, nil
}

// Get retrieves a document from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, filepath.Clean("/"+path)))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// DeleteTrip removes the trip's document directory
func (l *LocalStorage) DeleteTrip(tripID string) error {
	if err := os.RemoveAll(filepath.Join(l.basePath, filepath.Base(tripID))); err != nil {
		return fmt.Errorf("deleting trip documents: %w", err)
	}
	return nil
}
