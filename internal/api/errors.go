// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/feldrik/lyricburn/internal/ass"
	"github.com/feldrik/lyricburn/internal/log"
	"github.com/feldrik/lyricburn/internal/render"
	"github.com/feldrik/lyricburn/internal/store"
	"github.com/feldrik/lyricburn/internal/transcribe"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, errCode, detail string) {
	writeJSON(w, code, errorBody{Error: errCode, Detail: detail})
}

// writeDomainError maps a domain failure onto the HTTP taxonomy. The
// encoder stderr tail stays in the logs; clients only see the labeled
// kind.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := log.FromContext(ctx)

	var rerr *render.RenderError
	switch {
	case errors.Is(err, render.ErrCancelled), errors.Is(err, context.Canceled):
		// Client is gone; nothing useful to write.
		return
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", "video not found")
	case errors.Is(err, store.ErrForbidden):
		writeErr(w, http.StatusForbidden, "forbidden", "owner key does not match")
	case errors.Is(err, store.ErrConflict):
		writeErr(w, http.StatusConflict, "conflict", "segments overlap")
	case errors.Is(err, store.ErrInvalidSegment):
		writeErr(w, http.StatusBadRequest, "invalid_segments", err.Error())
	case errors.Is(err, ass.ErrInvalidStyle), errors.Is(err, ass.ErrInvalidColor):
		writeErr(w, http.StatusBadRequest, "invalid_style", err.Error())
	case errors.Is(err, transcribe.ErrTranscription):
		logger.Error().Err(err).Msg("transcription failed")
		writeErr(w, http.StatusInternalServerError, "transcription_failed", "speech-to-text failed")
	case errors.As(err, &rerr) && rerr.Timeout:
		writeErr(w, http.StatusGatewayTimeout, "timeout", "render exceeded the time limit")
	case errors.As(err, &rerr):
		writeErr(w, http.StatusInternalServerError, "render_failed", "encoder failed")
	default:
		logger.Error().Err(err).Msg("unhandled request failure")
		writeErr(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
