package offline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"auctionbook/internal/logger"
	"auctionbook/internal/models"
)

// FileStore keeps the snapshot in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the snapshot to a temp file next to the target and renames it
// into place, so readers never see a half-written file.
func (s *FileStore) Save(_ context.Context, auctions []models.Auction) error {
	data, err := encode(auctions)
	if err != nil {
		return fmt.Errorf("offline: encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("offline: create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("offline: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("offline: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("offline: close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("offline: replace snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) ([]models.Auction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("offline: read snapshot: %w", err)
	}

	auctions, ok := decode(data)
	if !ok {
		logger.Warn("ignoring unreadable auction cache", map[string]any{"path": s.path})
		return nil, false, nil
	}
	return auctions, true, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("offline: remove snapshot: %w", err)
	}
	return nil
}
