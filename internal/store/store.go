// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Failure taxonomy. The HTTP layer maps these onto status codes; nothing
// else in the process should invent new categories.
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInvalidSegment = errors.New("invalid segment")
)

// MaxTextLen caps a segment's text length in runes.
const MaxTextLen = 10_000

// Video is the anchor record. The UUID is the sole identifier used across
// the HTTP surface, the database and the on-disk layout.
type Video struct {
	ID         uuid.UUID
	OwnerKey   string
	SourcePath string
	CreatedAt  time.Time
}

// Store wraps the SQLite handle with the domain contracts.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateVideo inserts a new video record.
func (s *Store) CreateVideo(ctx context.Context, v Video) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, owner_key, source_path, created_at) VALUES (?, ?, ?, ?)`,
		v.ID.String(), v.OwnerKey, v.SourcePath, v.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: create video %s: %w", v.ID, err)
	}
	return nil
}

// GetVideo loads a video by id. Missing video yields ErrNotFound.
func (s *Store) GetVideo(ctx context.Context, id uuid.UUID) (Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_key, source_path, created_at FROM videos WHERE id = ?`, id.String())
	return scanVideo(row)
}

// GetVideoAuthorized loads a video and checks the caller's owner key.
// Missing video yields ErrNotFound, an owner mismatch ErrForbidden.
func (s *Store) GetVideoAuthorized(ctx context.Context, id uuid.UUID, ownerKey string) (Video, error) {
	v, err := s.GetVideo(ctx, id)
	if err != nil {
		return Video{}, err
	}
	if v.OwnerKey != ownerKey {
		return Video{}, fmt.Errorf("store: video %s: %w", id, ErrForbidden)
	}
	return v, nil
}

// DeleteVideo removes a video and, through the cascade, its segments.
// Reserved for explicit admin action; there is no owner check here.
func (s *Store) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("store: delete video %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: video %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (Video, error) {
	var (
		v       Video
		idStr   string
		created int64
	)
	err := row.Scan(&idStr, &v.OwnerKey, &v.SourcePath, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Video{}, fmt.Errorf("store: video: %w", ErrNotFound)
	}
	if err != nil {
		return Video{}, fmt.Errorf("store: scan video: %w", err)
	}
	v.ID, err = uuid.Parse(idStr)
	if err != nil {
		return Video{}, fmt.Errorf("store: corrupt video id %q: %w", idStr, err)
	}
	v.CreatedAt = time.Unix(created, 0).UTC()
	return v, nil
}
