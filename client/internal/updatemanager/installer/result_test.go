package installer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultHandler_WriteRead(t *testing.T) {
	rh := NewResultHandler(filepath.Join(t.TempDir(), "upgrade"))
	want := Result{Success: false, Version: "2.7.0", Error: "relaunch failed", ExecutedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	require.NoError(t, rh.Write(context.Background(), want))

	got, err := rh.Read()
	require.NoError(t, err)
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.Error, got.Error)
	assert.True(t, want.ExecutedAt.Equal(got.ExecutedAt))

	require.NoError(t, rh.Cleanup())
	assert.NoFileExists(t, rh.Path())
	assert.NoError(t, rh.Cleanup(), "cleanup of a missing file succeeds")
}

func TestResultHandler_WatchExistingResult(t *testing.T) {
	rh := NewResultHandler(t.TempDir())
	require.NoError(t, rh.Write(context.Background(), Result{Success: true, Version: "2.7.0"}))

	got, err := rh.Watch(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.NoFileExists(t, rh.Path(), "watch consumes the result")
}

func TestResultHandler_WatchWaitsForResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "upgrade")
	rh := NewResultHandler(dir)

	go func() {
		time.Sleep(500 * time.Millisecond)
		_ = NewResultHandler(dir).Write(context.Background(), Result{Success: true, Version: "2.7.0"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := rh.Watch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.7.0", got.Version)
}

func TestResultHandler_WatchTimeout(t *testing.T) {
	rh := NewResultHandler(t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := rh.Watch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
