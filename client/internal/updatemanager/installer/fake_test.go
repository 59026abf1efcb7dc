package installer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/downloader"
)

type fakeDownloader struct {
	content []byte
	err     error
	// path of the file the last download wrote to
	dst string
}

func (f *fakeDownloader) Download(_ context.Context, _, _ string, progress downloader.ProgressFunc, dst downloader.File) error {
	if named, ok := dst.(interface{ Name() string }); ok {
		f.dst = named.Name()
	}
	if _, err := dst.Write(f.content); err != nil {
		return err
	}
	if progress != nil {
		progress(int64(len(f.content)))
	}
	return f.err
}

type toolCall struct {
	timeout time.Duration
	name    string
	args    []string
}

type fakeRunner struct {
	mu      sync.Mutex
	results map[string]ToolResult
	calls   []toolCall

	spawnErr error
	spawned  []SpawnSpec
}

// result for a tool is looked up by "<name> <first arg>"
func (f *fakeRunner) Run(_ context.Context, timeout time.Duration, name string, args ...string) ToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, toolCall{timeout: timeout, name: name, args: args})
	key := name
	if len(args) > 0 {
		key = fmt.Sprintf("%s %s", name, args[0])
	}
	if res, ok := f.results[key]; ok {
		return res
	}
	return ToolResult{Outcome: ToolSucceeded}
}

func (f *fakeRunner) Spawn(spec SpawnSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.spawned = append(f.spawned, spec)
	return f.spawnErr
}

func (f *fakeRunner) called(name, firstArg string) bool {
	for _, c := range f.calls {
		if c.name == name && len(c.args) > 0 && c.args[0] == firstArg {
			return true
		}
	}
	return false
}
