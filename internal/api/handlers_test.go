// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feldrik/lyricburn/internal/config"
	"github.com/feldrik/lyricburn/internal/model"
	"github.com/feldrik/lyricburn/internal/render"
	"github.com/feldrik/lyricburn/internal/store"
)

type stubEngine struct {
	segments []model.Segment
	err      error
}

func (e *stubEngine) Transcribe(_ context.Context, _ string) ([]model.Segment, error) {
	return e.segments, e.err
}

type stubBurner struct {
	lastReq render.Request
	data    []byte
	err     error
}

func (b *stubBurner) Burn(_ context.Context, req render.Request) ([]byte, error) {
	b.lastReq = req
	return b.data, b.err
}

type testEnv struct {
	server *Server
	store  *store.Store
	engine *stubEngine
	burner *stubBurner
	cfg    config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataRoot := t.TempDir()
	cfg := config.Config{
		DataRoot:        dataRoot,
		DatabaseURL:     filepath.Join(dataRoot, "test.sqlite"),
		MaxUploadBytes:  1 << 20,
		RateLimitRPM:    0, // disabled in tests
		BurnConcurrency: 1,
	}

	db, err := store.OpenSQLite(cfg.DatabaseURL, store.DefaultSQLiteConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	st := store.New(db)
	engine := &stubEngine{}
	burner := &stubBurner{data: []byte("mp4-bytes")}
	return &testEnv{
		server: New(cfg, st, engine, burner),
		store:  st,
		engine: engine,
		burner: burner,
		cfg:    cfg,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Routes().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createVideo(t *testing.T, ownerKey string, segments []model.Segment) uuid.UUID {
	t.Helper()
	id := uuid.New()
	dir := e.cfg.VideoDir(id.String())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	src := filepath.Join(dir, "source.mp4")
	require.NoError(t, os.WriteFile(src, []byte("media"), 0o644))
	require.NoError(t, e.store.CreateVideo(context.Background(), store.Video{
		ID: id, OwnerKey: ownerKey, SourcePath: src,
	}))
	if len(segments) > 0 {
		_, err := e.store.Replace(context.Background(), id, ownerKey, segments)
		require.NoError(t, err)
	}
	return id
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestTranscribeHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.engine.segments = []model.Segment{
		{ID: 5, Start: 0, End: 2.5, Text: "hello"},
		{ID: 6, Start: 2.5, End: 5, Text: "world"},
	}

	body, ctype := multipartUpload(t, "song.mp4", []byte("fake video"))
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", ctype)

	rec := env.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[transcribeResponse](t, rec)
	assert.NotEmpty(t, resp.OwnerKey)
	require.Len(t, resp.Segments, 2)
	// Transcription output is renumbered to 0..N-1.
	assert.Equal(t, 0, resp.Segments[0].ID)
	assert.Equal(t, 1, resp.Segments[1].ID)

	id, err := uuid.Parse(resp.VideoID)
	require.NoError(t, err)

	saved, err := os.ReadFile(filepath.Join(env.cfg.VideoDir(id.String()), "source.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "fake video", string(saved))

	got, err := env.store.List(context.Background(), id, resp.OwnerKey)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTranscribeRejectsUnsupportedExtension(t *testing.T) {
	env := newTestEnv(t)
	body, ctype := multipartUpload(t, "payload.exe", []byte("nope"))
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", ctype)

	rec := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranscribeRejectsOversizedUpload(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.MaxUploadBytes = 10
	env.server = New(env.cfg, env.store, env.engine, env.burner)

	body, ctype := multipartUpload(t, "song.mp4", bytes.Repeat([]byte("x"), 1024))
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", ctype)

	rec := env.do(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSegmentsGetRequiresOwnerKey(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/segments/"+id.String(), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSegmentsGetForbiddenForWrongKey(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/segments/"+id.String(), nil)
	req.Header.Set(ownerKeyHeader, "someone-else")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSegmentsGetUnknownVideo(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/segments/"+uuid.NewString(), nil)
	req.Header.Set(ownerKeyHeader, "any")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSegmentsGetInvalidID(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/segments/not-a-uuid", nil)
	req.Header.Set(ownerKeyHeader, "any")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSegmentsPutReplacesSet(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", []model.Segment{{ID: 0, Start: 0, End: 1, Text: "old"}})

	payload := `{"segments":[{"id":1,"start":5,"end":6,"text":"late"},{"id":0,"start":0,"end":1,"text":"early"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/segments/"+id.String(), bytes.NewReader([]byte(payload)))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[segmentsResponse](t, rec)
	require.Len(t, resp.Segments, 2)
	// Response is sorted by start ascending.
	assert.Equal(t, "early", resp.Segments[0].Text)
	assert.Equal(t, "late", resp.Segments[1].Text)
}

func TestSegmentsPutOverlapConflict(t *testing.T) {
	env := newTestEnv(t)
	prior := []model.Segment{{ID: 0, Start: 0, End: 1, Text: "keep"}}
	id := env.createVideo(t, "key-1", prior)

	payload := `{"segments":[{"id":0,"start":0,"end":2,"text":"a"},{"id":1,"start":1.5,"end":3,"text":"b"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/segments/"+id.String(), bytes.NewReader([]byte(payload)))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	got, err := env.store.List(context.Background(), id, "key-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].Text)
}

func TestSegmentsPutRejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)

	req := httptest.NewRequest(http.MethodPut, "/api/segments/"+id.String(),
		bytes.NewReader([]byte(`{"segments":[],"mystery":true}`)))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideoServesMediaToOwner(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/video/"+id.String(), nil)
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "media", rec.Body.String())
}

func TestVideoMissingFileIs404(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)
	require.NoError(t, os.Remove(filepath.Join(env.cfg.VideoDir(id.String()), "source.mp4")))

	req := httptest.NewRequest(http.MethodGet, "/api/video/"+id.String(), nil)
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func burnBody(t *testing.T, id uuid.UUID, extra string) io.Reader {
	t.Helper()
	body := fmt.Sprintf(`{"video_id":%q%s}`, id.String(), extra)
	return bytes.NewReader([]byte(body))
}

func TestBurnUsesStoredSegments(t *testing.T) {
	env := newTestEnv(t)
	stored := []model.Segment{{ID: 0, Start: 0, End: 2.5, Text: "hello"}}
	id := env.createVideo(t, "key-1", stored)

	req := httptest.NewRequest(http.MethodPost, "/api/burn", burnBody(t, id, ""))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp4-bytes", rec.Body.String())
	assert.Equal(t, stored, env.burner.lastReq.Segments)
	assert.Equal(t, id, env.burner.lastReq.VideoID)
}

func TestBurnPersistsRequestSegmentsFirst(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", []model.Segment{{ID: 0, Start: 0, End: 1, Text: "old"}})

	extra := `,"segments":[{"id":0,"start":0,"end":2,"text":"new"}]`
	req := httptest.NewRequest(http.MethodPost, "/api/burn", burnBody(t, id, extra))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := env.store.List(context.Background(), id, "key-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Text)
	assert.Equal(t, got, env.burner.lastReq.Segments)
}

func TestBurnResolvesStyle(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", []model.Segment{{ID: 0, Start: 0, End: 1, Text: "x"}})

	extra := `,"style":{"preset":"karaoke","font_family":"Georgia"}`
	req := httptest.NewRequest(http.MethodPost, "/api/burn", burnBody(t, id, extra))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Georgia", env.burner.lastReq.Style.FontFamily)
}

func TestBurnRejectsUnknownStyleField(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)

	extra := `,"style":{"glitter":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/burn", burnBody(t, id, extra))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBurnInvalidStyleValue(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)

	extra := `,"style":{"font_family":"Comic Sans"}`
	req := httptest.NewRequest(http.MethodPost, "/api/burn", burnBody(t, id, extra))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[errorBody](t, rec)
	assert.Equal(t, "invalid_style", resp.Error)
}

func TestBurnTimeoutMapsTo504(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)
	env.burner.err = &render.RenderError{Reason: "timeout", Timeout: true}

	req := httptest.NewRequest(http.MethodPost, "/api/burn", burnBody(t, id, ""))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestBurnEncoderFailureMapsTo500WithoutStderr(t *testing.T) {
	env := newTestEnv(t)
	id := env.createVideo(t, "key-1", nil)
	env.burner.err = &render.RenderError{Reason: "encoder exited with error", ExitCode: 1, StderrTail: "secret internals"}

	req := httptest.NewRequest(http.MethodPost, "/api/burn", burnBody(t, id, ""))
	req.Header.Set(ownerKeyHeader, "key-1")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret internals")
}
