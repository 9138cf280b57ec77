package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/loggraph/internal/config"
	apperrors "github.com/matzehuels/loggraph/pkg/errors"
	"github.com/matzehuels/loggraph/pkg/session"
)

type testServer struct {
	t   *testing.T
	srv *Server
	h   http.Handler
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	srv := New(cfg, session.NewRegistry(0), nil, nil)
	return &testServer{t: t, srv: srv, h: srv.Router()}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	ts.h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func (ts *testServer) create(records string) session.Info {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/sessions", CreateSessionRequest{Records: records})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[session.Info](ts.t, w)
}

func TestPing(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[PingResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Build.Version)
}

func TestCreateSessionFromRecords(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create("a|-b c\nb|-d\nc|-d\nd|-\n")
	assert.Equal(t, 4, info.Commits)
	assert.Equal(t, 4, info.Rows)

	w := ts.do(http.MethodGet, "/api/sessions/"+info.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[session.Info](t, w)
	assert.Equal(t, info.ID, got.ID)

	w = ts.do(http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]session.Info](t, w), 1)
}

func TestCreateSessionValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name   string
		body   any
		status int
		code   apperrors.Code
	}{
		{"empty", CreateSessionRequest{}, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"both", CreateSessionRequest{Records: "a|-", Repo: "x"}, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"malformed", CreateSessionRequest{Records: "no separator"}, http.StatusBadRequest, apperrors.ErrCodeInvalidRecord},
		{"duplicate", CreateSessionRequest{Records: "a|-b\na|-"}, http.StatusBadRequest, apperrors.ErrCodeInvalidRecord},
		{"order", CreateSessionRequest{Records: "b|-\na|-b"}, http.StatusConflict, apperrors.ErrCodeOrderViolation},
		{"repo disabled", CreateSessionRequest{Repo: "demo"}, http.StatusNotImplemented, apperrors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, w).Code)
		})
	}
	assert.Equal(t, 0, ts.srv.reg.Len())
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{
		"/api/sessions/not-a-uuid",
		"/api/sessions/6f1c2a43-8f55-4d7e-9c4a-3c1d2b0e9f10/rows/0",
	} {
		w := ts.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, apperrors.ErrCodeSessionNotFound, decodeBody[ErrorResponse](t, w).Code)
	}
}

func TestRows(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create("a|-b\nb|-c\nc|-\n")
	base := "/api/sessions/" + info.ID.String()

	w := ts.do(http.MethodGet, base+"/rows/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	row := decodeBody[RowResponse](t, w)
	assert.Equal(t, 1, row.Row)
	head, ok := row.Head()
	require.True(t, ok)
	assert.EqualValues(t, "b", head.Hash)

	w = ts.do(http.MethodGet, base+"/rows?from=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]RowResponse](t, w), 2)

	w = ts.do(http.MethodGet, base+"/rows/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeRowOutOfRange, decodeBody[ErrorResponse](t, w).Code)

	w = ts.do(http.MethodGet, base+"/rows/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, base+"/rows?from=2&to=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppendAndDump(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create("a|-b\n")
	base := "/api/sessions/" + info.ID.String()

	w := ts.do(http.MethodPost, base+"/append", AppendRequest{Records: "b|-c\nc|-\n"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[UpdateResponse](t, w)
	assert.Equal(t, 2, resp.Loaded)
	assert.Equal(t, 3, resp.Info.Commits)
	assert.False(t, resp.Update.Empty())

	w = ts.do(http.MethodPost, base+"/append", AppendRequest{Records: "a|-\n"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	other := ts.create("a|-b\nb|-c\nc|-\n")
	want := ts.do(http.MethodGet, "/api/sessions/"+other.ID.String()+"/dump", nil).Body.String()
	w = ts.do(http.MethodGet, base+"/dump", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, want, w.Body.String())
}

func TestConcealExpandCollapse(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create("a|-b\nb|-c\nc|-d\nd|-\n")
	base := "/api/sessions/" + info.ID.String()

	w := ts.do(http.MethodPost, base+"/conceal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[UpdateResponse](t, w)
	assert.Equal(t, 2, resp.Info.VisibleRows)
	assert.Equal(t, 1, resp.Info.Hidden)

	w = ts.do(http.MethodGet, base+"/rows/0/arrows/0", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	arrow := decodeBody[ArrowResponse](t, w)
	assert.EqualValues(t, "d", arrow.Hash)
	assert.Equal(t, 1, arrow.Row)

	w = ts.do(http.MethodGet, base+"/rows/0/arrows/5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodGet, fmt.Sprintf("%s/nodes/%d", base, arrow.Node), nil)
	require.Equal(t, http.StatusOK, w.Code)
	node := decodeBody[NodeResponse](t, w)
	assert.EqualValues(t, "d", node.Hash)
	require.NotNil(t, node.LogIndex)
	assert.Equal(t, 3, *node.LogIndex)

	w = ts.do(http.MethodPost, fmt.Sprintf("%s/expand/%d", base, arrow.Node), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4, decodeBody[UpdateResponse](t, w).Info.VisibleRows)

	w = ts.do(http.MethodPost, base+"/collapse", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeBody[UpdateResponse](t, w).Info.VisibleRows)

	w = ts.do(http.MethodPost, base+"/expand", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, decodeBody[UpdateResponse](t, w).Info.VisibleRows)

	w = ts.do(http.MethodPost, base+"/collapse/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeNodeNotFound, decodeBody[ErrorResponse](t, w).Code)
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create("a|-\n")
	base := "/api/sessions/" + info.ID.String()

	w := ts.do(http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoadMoreWithoutSource(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create("a|-\n")
	w := ts.do(http.MethodPost, "/api/sessions/"+info.ID.String()+"/more", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func initRepo(t *testing.T, dir string, commits int) {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range commits {
		_, err := wt.Commit(fmt.Sprintf("commit %d", i), &git.CommitOptions{
			AllowEmptyCommits: true,
			Author: &object.Signature{
				Name:  "Test",
				Email: "test@example.com",
				When:  when.Add(time.Duration(i) * time.Hour),
			},
		})
		require.NoError(t, err)
	}
}

func TestSessionFromRepository(t *testing.T) {
	root := t.TempDir()
	initRepo(t, filepath.Join(root, "demo"), 5)

	cfg := config.Default()
	cfg.Server.RepoRoot = root
	ts := newTestServer(t, cfg)

	w := ts.do(http.MethodPost, "/api/sessions", CreateSessionRequest{Repo: "demo", Limit: 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	info := decodeBody[session.Info](t, w)
	assert.Equal(t, 3, info.Commits)
	base := "/api/sessions/" + info.ID.String()

	w = ts.do(http.MethodGet, base+"/rows/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody[RowResponse](t, w).Refs, "HEAD")

	w = ts.do(http.MethodPost, base+"/more?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[UpdateResponse](t, w)
	assert.Equal(t, 2, resp.Loaded)
	assert.Equal(t, 5, resp.Info.Commits)

	w = ts.do(http.MethodPost, base+"/more", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decodeBody[UpdateResponse](t, w).Loaded)
}

func TestSessionFromRepositoryErrors(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Server.RepoRoot = root
	ts := newTestServer(t, cfg)

	tests := []struct {
		name   string
		repo   string
		status int
		code   apperrors.Code
	}{
		{"traversal", "../etc", http.StatusBadRequest, apperrors.ErrCodeInvalidPath},
		{"absolute", "/etc", http.StatusBadRequest, apperrors.ErrCodeInvalidPath},
		{"missing", "nothing-here", http.StatusNotFound, apperrors.ErrCodeRepositoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, "/api/sessions", CreateSessionRequest{Repo: tt.repo})
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, w).Code)
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		code apperrors.Code
		want int
	}{
		{apperrors.ErrCodeInvalidRecord, http.StatusBadRequest},
		{apperrors.ErrCodeOrderViolation, http.StatusConflict},
		{apperrors.ErrCodeSessionNotFound, http.StatusNotFound},
		{apperrors.ErrCodeCanceled, http.StatusServiceUnavailable},
		{apperrors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.Status(), tt.code)
	}
}
