// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/feldrik/lyricburn/internal/ass"
	"github.com/feldrik/lyricburn/internal/log"
	"github.com/feldrik/lyricburn/internal/model"
	"github.com/feldrik/lyricburn/internal/render"
)

type segmentsResponse struct {
	VideoID  string          `json:"video_id"`
	Segments []model.Segment `json:"segments"`
}

// handleVideo streams the stored source media to its owner.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := videoIDParam(w, r)
	if !ok {
		return
	}
	key, ok := ownerKey(w, r)
	if !ok {
		return
	}

	v, err := s.store.GetVideoAuthorized(r.Context(), id, key)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	f, err := os.Open(v.SourcePath)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found", "source media missing")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", "stat source media")
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleSegmentsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := videoIDParam(w, r)
	if !ok {
		return
	}
	key, ok := ownerKey(w, r)
	if !ok {
		return
	}

	segments, err := s.store.List(r.Context(), id, key)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, segmentsResponse{VideoID: id.String(), Segments: segments})
}

func (s *Server) handleSegmentsPut(w http.ResponseWriter, r *http.Request) {
	id, ok := videoIDParam(w, r)
	if !ok {
		return
	}
	key, ok := ownerKey(w, r)
	if !ok {
		return
	}

	var req struct {
		Segments []model.Segment `json:"segments"`
	}
	if err := decodeStrict(r.Body, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	segments, err := s.store.Replace(r.Context(), id, key, req.Segments)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, segmentsResponse{VideoID: id.String(), Segments: segments})
}

type burnRequest struct {
	VideoID  string          `json:"video_id"`
	Segments []model.Segment `json:"segments"`
	Style    *ass.Style      `json:"style"`
}

// handleBurn renders the styled segments into the source video and streams
// the MP4 back. Segments supplied in the request replace the stored set
// first, so the persisted state always matches what was burned.
func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	key, ok := ownerKey(w, r)
	if !ok {
		return
	}

	var req burnRequest
	if err := decodeStrict(r.Body, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	id, err := uuid.Parse(req.VideoID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_id", "video_id must be a UUID")
		return
	}

	ctx := log.ContextWithVideoID(r.Context(), id.String())

	v, err := s.store.GetVideoAuthorized(ctx, id, key)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	var segments []model.Segment
	if len(req.Segments) > 0 {
		segments, err = s.store.Replace(ctx, id, key, req.Segments)
	} else {
		segments, err = s.store.List(ctx, id, key)
	}
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	style := ass.DefaultStyle()
	if req.Style != nil {
		style, err = req.Style.Resolve()
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}
	}

	data, err := s.burner.Burn(ctx, render.Request{
		VideoID:    id,
		SourcePath: v.SourcePath,
		Segments:   segments,
		Style:      style,
	})
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id.String()+`.mp4"`)
	_, _ = w.Write(data)
}

// decodeStrict decodes JSON rejecting unknown fields and trailing data.
func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data")
	}
	return nil
}
