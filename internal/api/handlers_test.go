package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheSilvus/smeagol/internal/logging"
	"github.com/TheSilvus/smeagol/internal/repo"
	"github.com/TheSilvus/smeagol/internal/storage"
	"github.com/TheSilvus/smeagol/internal/templates"
	"github.com/TheSilvus/smeagol/internal/wikipath"
)

func setupHandler(t *testing.T) (*WikiHandler, *repo.Repository) {
	t.Helper()

	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := &logging.Logger{Logger: zap.NewNop()}
	tmpl, err := templates.Load("", logger)
	require.NoError(t, err)

	repository := repo.New(store)
	return NewWikiHandler(repository, tmpl, logger, "index.md"), repository
}

func TestRootRedirectsToIndex(t *testing.T) {
	handler, _ := setupHandler(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/index.md", rec.Header().Get("Location"))
}

func TestMissingPageOffersCreation(t *testing.T) {
	handler, _ := setupHandler(t)

	req := httptest.NewRequest("GET", "/new-page.md", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/new-page.md?edit")
}

func TestSaveAndViewPage(t *testing.T) {
	handler, _ := setupHandler(t)

	form := url.Values{}
	form.Set("content", "# Hello\n\nSome *markdown*.")
	form.Set("message", "init")

	req := httptest.NewRequest("POST", "/index.md", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/index.md", rec.Header().Get("Location"))

	req = httptest.NewRequest("GET", "/index.md", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Hello</h1>")
	assert.Contains(t, rec.Body.String(), "<em>markdown</em>")
}

func TestRawQueryServesBytes(t *testing.T) {
	handler, repository := setupHandler(t)

	content := "# Not rendered"
	_, err := repository.Item(wikipath.FromString("index.md")).Edit([]byte(content), "init")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/index.md?raw", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.String())
}

func TestRawBodySave(t *testing.T) {
	handler, repository := setupHandler(t)

	req := httptest.NewRequest("POST", "/notes/raw.txt?message=upload", strings.NewReader("plain bytes"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := repository.Item(wikipath.FromString("notes/raw.txt")).Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("plain bytes"), got)

	commits, err := repository.Log()
	require.NoError(t, err)
	assert.Equal(t, "upload", commits[0].Message())
}

func TestDirectoryListing(t *testing.T) {
	handler, repository := setupHandler(t)

	_, err := repository.Item(wikipath.FromString("dir/page.md")).Edit([]byte("x"), "init")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/dir", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/dir/page.md"`)
	assert.Contains(t, rec.Body.String(), "page.md")
}

func TestEditFormPrefillsContent(t *testing.T) {
	handler, repository := setupHandler(t)

	_, err := repository.Item(wikipath.FromString("index.md")).Edit([]byte("existing text"), "init")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/index.md?edit", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "existing text")
}

func TestSaveBelowFileConflicts(t *testing.T) {
	handler, repository := setupHandler(t)

	_, err := repository.Item(wikipath.FromString("page.md")).Edit([]byte("x"), "init")
	require.NoError(t, err)

	form := url.Values{}
	form.Set("content", "y")
	req := httptest.NewRequest("POST", "/page.md/sub.md", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	// The edit form for a blocked path reports the conflict as well.
	req = httptest.NewRequest("GET", "/page.md/sub.md?edit", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPercentEncodedPathRoundTrip(t *testing.T) {
	handler, repository := setupHandler(t)

	_, err := repository.Item(wikipath.FromString("some page.md")).Edit([]byte("spaced"), "init")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/some%20page.md?raw", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spaced", rec.Body.String())
}
