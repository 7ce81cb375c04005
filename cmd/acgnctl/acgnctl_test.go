package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, waitForServer(srv.URL, 5, time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForServer_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := waitForServer(srv.URL, 2, time.Millisecond)
	assert.EqualError(t, err, "not ready after 2 attempts")
}

func TestLatestVersion(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  uint64
	}{
		{"none", nil, 0},
		{"ordered", []string{"000001_users.up.sql", "000004_reports.up.sql"}, 4},
		{"unordered", []string{"000003_resources.up.sql", "000001_users.up.sql"}, 3},
		{"skips odd names", []string{"readme.up.sql", "000002_conversations.up.sql"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, latestVersion(tt.files))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ACGNCTL_TEST_NEW=from-file\nACGNCTL_TEST_SET=from-file\n"), 0o600))

	t.Setenv("ACGNCTL_TEST_SET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("ACGNCTL_TEST_NEW") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ACGNCTL_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("ACGNCTL_TEST_SET"))

	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestShowConfiguration_UnknownFormat(t *testing.T) {
	t.Setenv("ACGN_CONFIG_PATH", t.TempDir())
	assert.EqualError(t, showConfiguration("yaml"), `unknown output format "yaml"`)
}

func TestMigrationFilesPresent(t *testing.T) {
	t.Setenv("ACGN_MIGRATIONS_PATH", filepath.Join("..", "..", "db", "migrations"))
	files, err := listMigrationFiles()
	require.NoError(t, err)
	assert.Len(t, files, 4)
	assert.Equal(t, uint64(4), latestVersion(files))
}
