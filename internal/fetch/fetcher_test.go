package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediabridge/mediabridge/internal/config"
)

func newTestFetcher(t *testing.T, opts Options) (*Fetcher, string) {
	t.Helper()
	dir := t.TempDir()
	opts.TempDir = dir
	return NewFetcher(nil, opts), dir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFetchToTempWritesBody(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	f, dir := newTestFetcher(t, Options{})
	dl, err := f.FetchToTemp(context.Background(), srv.URL+"/hello.txt")
	require.NoError(t, err)

	data, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, int64(11), dl.Size)
	assert.Equal(t, srv.URL+"/hello.txt", dl.SourceURL)
	assert.True(t, strings.HasPrefix(dl.Path, dir))
	assert.Equal(t, config.DefaultUserAgent, gotUA)
}

func TestFetchToTempRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f, dir := newTestFetcher(t, Options{})
	_, err := f.FetchToTemp(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Empty(t, listDir(t, dir))
}

func TestFetchToTempEnforcesSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	f, dir := newTestFetcher(t, Options{MaxBytes: 16})
	_, err := f.FetchToTemp(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrMaxSizeExceeded)
	assert.Empty(t, listDir(t, dir))
}

func TestFetchToTempAllowsExactLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 16)))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, Options{MaxBytes: 16})
	dl, err := f.FetchToTemp(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(16), dl.Size)
}

func TestFetchToTempValidatesURL(t *testing.T) {
	f, _ := newTestFetcher(t, Options{})
	cases := []struct {
		url  string
		want error
	}{
		{url: "file:///etc/passwd", want: ErrUnsupportedScheme},
		{url: "ftp://example.com/a.png", want: ErrUnsupportedScheme},
		{url: "/relative/path.png", want: ErrNotAbsolute},
		{url: "http://", want: ErrNotAbsolute},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			_, err := f.FetchToTemp(context.Background(), tc.url)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFetchToTempTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f, dir := newTestFetcher(t, Options{Timeout: 50 * time.Millisecond})
	_, err := f.FetchToTemp(context.Background(), srv.URL+"/slow.png")
	require.Error(t, err)
	assert.Empty(t, listDir(t, dir))
}

func TestFetchToTempRedirectLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f, _ := newTestFetcher(t, Options{MaxRedirects: 2})
	_, err := f.FetchToTemp(context.Background(), srv.URL+"/loop")
	assert.Error(t, err)
}

func TestFetchToTempClosedServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f, _ := newTestFetcher(t, Options{Timeout: time.Second})
	_, err := f.FetchToTemp(context.Background(), addr+"/gone.png")
	assert.Error(t, err)
}
