// SPDX-License-Identifier: MIT

package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ownerKeyHeader is the capability credential minted at upload time.
// Whoever holds the key owns the video; there are no accounts.
const ownerKeyHeader = "X-Owner-Key"

// newOwnerKey mints a 128-bit random capability, hex encoded.
func newOwnerKey() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("api: mint owner key: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// ownerKey extracts the caller's credential, writing a 401 when absent.
func ownerKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(ownerKeyHeader)
	if key == "" {
		writeErr(w, http.StatusUnauthorized, "unauthorized", "missing "+ownerKeyHeader+" header")
		return "", false
	}
	return key, true
}

// videoIDParam parses the {id} route parameter, writing a 400 on garbage.
func videoIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_id", "video id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
