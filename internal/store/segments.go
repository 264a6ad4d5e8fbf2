// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/feldrik/lyricburn/internal/model"
)

// List returns the video's segments sorted by start ascending. The caller's
// owner key is checked against the video record.
func (s *Store) List(ctx context.Context, videoID uuid.UUID, ownerKey string) ([]model.Segment, error) {
	if _, err := s.GetVideoAuthorized(ctx, videoID, ownerKey); err != nil {
		return nil, err
	}
	return s.listSegments(ctx, videoID)
}

func (s *Store) listSegments(ctx context.Context, videoID uuid.UUID) ([]model.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_s, end_s, text FROM segments WHERE video_id = ? ORDER BY start_s ASC`,
		videoID.String())
	if err != nil {
		return nil, fmt.Errorf("store: list segments %s: %w", videoID, err)
	}
	defer rows.Close()

	segments := []model.Segment{}
	for rows.Next() {
		var seg model.Segment
		if err := rows.Scan(&seg.ID, &seg.Start, &seg.End, &seg.Text); err != nil {
			return nil, fmt.Errorf("store: scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list segments %s: %w", videoID, err)
	}
	return segments, nil
}

// Replace atomically swaps the video's segment set. The submitted set is
// validated first; an overlap rejects the write with ErrConflict and leaves
// the prior set untouched. Writers on the same database serialize on the
// SQLite write lock (busy_timeout queues them), so commit order defines the
// last writer.
func (s *Store) Replace(ctx context.Context, videoID uuid.UUID, ownerKey string, segments []model.Segment) ([]model.Segment, error) {
	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}
	if _, err := s.GetVideoAuthorized(ctx, videoID, ownerKey); err != nil {
		return nil, err
	}
	if err := s.replaceTx(ctx, videoID, segments); err != nil {
		return nil, err
	}
	return sortedByStart(segments), nil
}

// UpsertFromTranscription stores the raw output of the speech-to-text
// engine. Unlike Replace it repairs the set instead of rejecting it:
// degenerate segments are dropped, overlaps clipped, ids renumbered.
func (s *Store) UpsertFromTranscription(ctx context.Context, videoID uuid.UUID, raw []model.Segment) ([]model.Segment, error) {
	segments := NormalizeTranscription(raw)
	if err := s.replaceTx(ctx, videoID, segments); err != nil {
		return nil, err
	}
	return segments, nil
}

func (s *Store) replaceTx(ctx context.Context, videoID uuid.UUID, segments []model.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin replace %s: %w", videoID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE video_id = ?`, videoID.String()); err != nil {
		return fmt.Errorf("store: clear segments %s: %w", videoID, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (video_id, id, start_s, end_s, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert %s: %w", videoID, err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, videoID.String(), seg.ID, seg.Start, seg.End, seg.Text); err != nil {
			return fmt.Errorf("store: insert segment %d: %w", seg.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit replace %s: %w", videoID, err)
	}
	return nil
}

// ValidateSegments checks the submitted set against the invariants: bounds
// per row, unique ids, and pairwise disjointness.
func ValidateSegments(segments []model.Segment) error {
	seen := make(map[int]struct{}, len(segments))
	for i, seg := range segments {
		if seg.Start < 0 {
			return fmt.Errorf("%w: segments[%d] start %g is negative", ErrInvalidSegment, i, seg.Start)
		}
		if seg.End <= seg.Start {
			return fmt.Errorf("%w: segments[%d] must satisfy start < end", ErrInvalidSegment, i)
		}
		if utf8.RuneCountInString(seg.Text) > MaxTextLen {
			return fmt.Errorf("%w: segments[%d] text exceeds %d characters", ErrInvalidSegment, i, MaxTextLen)
		}
		if _, dup := seen[seg.ID]; dup {
			return fmt.Errorf("%w: duplicate segment id %d", ErrInvalidSegment, seg.ID)
		}
		seen[seg.ID] = struct{}{}
	}

	ordered := sortedByStart(segments)
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Start < ordered[i-1].End {
			return fmt.Errorf("%w: segments %d and %d overlap", ErrConflict, ordered[i-1].ID, ordered[i].ID)
		}
	}
	return nil
}

// NormalizeTranscription repairs raw engine output: drop segments with
// end <= start, truncate overlong text, clip each end to the next start,
// drop segments emptied by clipping, and renumber ids 0..N-1.
func NormalizeTranscription(raw []model.Segment) []model.Segment {
	kept := make([]model.Segment, 0, len(raw))
	for _, seg := range raw {
		if seg.End <= seg.Start || seg.Start < 0 {
			continue
		}
		seg.Text = truncateRunes(seg.Text, MaxTextLen)
		kept = append(kept, seg)
	}
	kept = sortedByStart(kept)

	out := make([]model.Segment, 0, len(kept))
	for i := 0; i < len(kept); i++ {
		seg := kept[i]
		if i+1 < len(kept) && seg.End > kept[i+1].Start {
			seg.End = kept[i+1].Start
		}
		if seg.End <= seg.Start {
			continue
		}
		out = append(out, seg)
	}

	for i := range out {
		out[i].ID = i
	}
	return out
}

func sortedByStart(segments []model.Segment) []model.Segment {
	out := make([]model.Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
