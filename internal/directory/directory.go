// Package directory provides read-only access to the creator directory. The
// search core never writes creator records; it only filters them.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xaenox/creator-search/internal/models"
)

// Directory is a read-only source of creator profiles.
type Directory interface {
	List(ctx context.Context) ([]models.Creator, error)
}

// FileDirectory serves a creator snapshot loaded once from a JSON file.
type FileDirectory struct {
	creators []models.Creator
}

// LoadFile reads a JSON array of creators from path.
func LoadFile(path string) (*FileDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading creator directory: %w", err)
	}
	var creators []models.Creator
	if err := json.Unmarshal(data, &creators); err != nil {
		return nil, fmt.Errorf("error parsing creator directory: %w", err)
	}
	return &FileDirectory{creators: creators}, nil
}

// Static wraps an in-memory creator list, mainly for tests and dev mode.
func Static(creators []models.Creator) *FileDirectory {
	return &FileDirectory{creators: creators}
}

func (d *FileDirectory) List(ctx context.Context) ([]models.Creator, error) {
	out := make([]models.Creator, len(d.creators))
	copy(out, d.creators)
	return out, nil
}
