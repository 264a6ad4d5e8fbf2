// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/feldrik/lyricburn/internal/log"
	"github.com/feldrik/lyricburn/internal/model"
	"github.com/feldrik/lyricburn/internal/store"
)

// allowedUploadExts whitelists media containers the toolchain handles.
var allowedUploadExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".m4a":  true,
	".mp3":  true,
	".wav":  true,
}

// memoryLimit bounds the multipart parse buffer; larger parts spill to
// temp files.
const memoryLimit = 32 << 20

type transcribeResponse struct {
	VideoID  string          `json:"video_id"`
	OwnerKey string          `json:"owner_key"`
	Segments []model.Segment `json:"segments"`
}

// handleTranscribe ingests an upload, mints the owner capability, stores
// the media, runs speech-to-text and persists the normalized segments.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErr(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit")
			return
		}
		writeErr(w, http.StatusBadRequest, "invalid_body", "expected multipart form data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_body", "missing file part")
		return
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		writeErr(w, http.StatusBadRequest, "invalid_body", "unsupported media type "+ext)
		return
	}

	id := uuid.New()
	key, err := newOwnerKey()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	ctx := log.ContextWithVideoID(r.Context(), id.String())
	logger := log.WithComponentFromContext(ctx, "api")

	dir := s.cfg.VideoDir(id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Msg("create video dir")
		writeErr(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	dst := filepath.Join(dir, "source"+ext)
	if err := saveAtomic(dst, file); err != nil {
		logger.Error().Err(err).Str(log.FieldPath, dst).Msg("save upload")
		writeErr(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	if err := s.store.CreateVideo(ctx, store.Video{ID: id, OwnerKey: key, SourcePath: dst}); err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	raw, err := s.engine.Transcribe(ctx, dst)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	segments, err := s.store.UpsertFromTranscription(ctx, id, raw)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	logger.Info().Int("segments", len(segments)).Msg("video ingested")
	writeJSON(w, http.StatusCreated, transcribeResponse{
		VideoID:  id.String(),
		OwnerKey: key,
		Segments: segments,
	})
}

// saveAtomic writes src to dst so readers never observe a partial file.
func saveAtomic(dst string, src io.Reader) error {
	t, err := renameio.TempFile("", dst)
	if err != nil {
		return err
	}
	defer func() { _ = t.Cleanup() }()

	if _, err := io.Copy(t, src); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}
