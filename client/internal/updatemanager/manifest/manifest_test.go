package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/downloader"
)

const manifestJSON = `{
  "updates": [
    {"os": "macos", "version": "2.7.0", "minimumVersion": "2.5.0", "rollout": 0.25,
     "url": "https://example.com/Launcher.dmg", "hash": "abcd", "size": 1024, "name": "Launcher.dmg"},
    {"os": "windows", "version": "2.7.0", "url": "", "hash": "abcd"},
    {"os": "windows", "version": "2.7.0", "url": "https://example.com/x.exe", "hash": "abcd", "rollout": 1.5}
  ]
}`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Updates, 1, "entries without url or with rollout out of range are dropped")

	c := m.Updates[0]
	assert.Equal(t, "macos", c.OS)
	assert.Equal(t, "2.7.0", c.Version)
	require.NotNil(t, c.MinimumVersion)
	assert.Equal(t, "2.5.0", *c.MinimumVersion)
	assert.Nil(t, c.Arch)
	assert.Equal(t, 0.25, c.Rollout)
	assert.Equal(t, int64(1024), c.Size)
	assert.Equal(t, "Launcher.dmg", c.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOpen_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(manifestJSON))
	}))
	defer srv.Close()

	m, err := Open(context.Background(), downloader.New("Launcher"), srv.URL+"/bootstrap.json")
	require.NoError(t, err)
	assert.Len(t, m.Updates, 1)
}

func TestOpen_HTTPInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := Open(context.Background(), downloader.New("Launcher"), srv.URL)
	assert.Error(t, err)
}
