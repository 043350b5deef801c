// ABOUTME: Room image methods for the images table
// ABOUTME: One binary image per room, insert-only, keyed by room name

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveImage stores the display image for a room. There is no update path:
// a room that already has an image returns ErrImageExists.
func (s *SQLiteStore) SaveImage(ctx context.Context, room string, data []byte, contentType string) error {
	query := `
		INSERT INTO images (study_room, image, content_type, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		room,
		data,
		contentType,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrImageExists
		}
		return fmt.Errorf("inserting image: %w", err)
	}

	s.logger.Info("saved room image", "room", room, "size", len(data))
	return nil
}

// GetImage retrieves the stored image bytes and content type for a room.
// Returns ErrNotFound if the room has no image.
func (s *SQLiteStore) GetImage(ctx context.Context, room string) ([]byte, string, error) {
	query := `SELECT image, content_type FROM images WHERE study_room = ?`

	var data []byte
	var contentType sql.NullString

	err := s.db.QueryRowContext(ctx, query, room).Scan(&data, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("querying image: %w", err)
	}

	return data, contentType.String, nil
}
