//go:build unix

package installer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecRunner_Run(t *testing.T) {
	r := NewRunner()

	res := r.Run(context.Background(), time.Second, "sh", "-c", "echo mounted")
	assert.Equal(t, ToolSucceeded, res.Outcome)
	assert.Equal(t, "mounted\n", string(res.Output))
	assert.NoError(t, res.Err)

	res = r.Run(context.Background(), time.Second, "sh", "-c", "echo nope >&2; exit 3")
	assert.Equal(t, ToolFailed, res.Outcome)
	assert.ErrorContains(t, res.Err, "nope")

	res = r.Run(context.Background(), 100*time.Millisecond, "sleep", "5")
	assert.Equal(t, ToolTimedOut, res.Outcome)
	assert.Error(t, res.Err)

	res = r.Run(context.Background(), 0, "sh", "-c", "exit 0")
	assert.Equal(t, ToolSucceeded, res.Outcome)
}

func TestExecRunner_Spawn(t *testing.T) {
	err := NewRunner().Spawn(SpawnSpec{Path: "sh", Args: []string{"-c", "exit 0"}, Env: []string{"LAUNCHER_UPGRADE=1"}})
	assert.NoError(t, err)

	err = NewRunner().Spawn(SpawnSpec{Path: "/nonexistent/launcher"})
	assert.Error(t, err)
}
