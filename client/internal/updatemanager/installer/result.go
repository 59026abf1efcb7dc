package installer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/util"
)

const (
	resultFile = "result.json"

	dirPollInterval = 300 * time.Millisecond
)

// Result is the outcome of the last upgrade, left for the next launcher run
type Result struct {
	Success    bool      `json:"success"`
	Version    string    `json:"version"`
	Error      string    `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executedAt"`
}

// ResultHandler reads and writes the upgrade result file
type ResultHandler struct {
	resultFile string
}

// NewResultHandler creates a handler for result.json in dir
func NewResultHandler(dir string) *ResultHandler {
	return &ResultHandler{
		resultFile: filepath.Join(dir, resultFile),
	}
}

// Path returns the result file location
func (rh *ResultHandler) Path() string {
	return rh.resultFile
}

// Watch waits until a result is written, returns it and removes the file
func (rh *ResultHandler) Watch(ctx context.Context) (Result, error) {
	log.Infof("start watching result: %s", rh.resultFile)

	defer func() {
		if err := rh.Cleanup(); err != nil {
			log.Warnf("failed to cleanup result file: %v", err)
		}
	}()

	// the result may have been written before we started watching
	if result, err := rh.Read(); err == nil {
		log.Infof("upgrade result: %+v", result)
		return result, nil
	}

	dir := filepath.Dir(rh.resultFile)
	if err := waitForDir(ctx, dir); err != nil {
		return Result{}, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{}, fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warnf("failed to close watcher: %v", err)
		}
	}()

	// watch the directory, the file does not exist yet
	if err := watcher.Add(dir); err != nil {
		return Result{}, fmt.Errorf("failed to watch directory: %w", err)
	}

	// written between the first read and the watch
	if result, err := rh.Read(); err == nil {
		return result, nil
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}

			if filepath.Clean(event.Name) != filepath.Clean(rh.resultFile) {
				continue
			}

			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				result, err := rh.Read()
				if err != nil {
					log.Debugf("error while reading result: %v", err)
					continue
				}
				log.Infof("upgrade result: %+v", result)
				return result, nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}
			return Result{}, fmt.Errorf("watcher error: %w", err)
		}
	}
}

func waitForDir(ctx context.Context, dir string) error {
	ticker := time.NewTicker(dirPollInterval)
	defer ticker.Stop()

	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Write stores the result atomically
func (rh *ResultHandler) Write(ctx context.Context, result Result) error {
	log.Infof("write out upgrade result to: %s", rh.resultFile)
	if err := util.WriteJson(ctx, rh.resultFile, result); err != nil {
		return fmt.Errorf("write upgrade result: %w", err)
	}
	return nil
}

// Read returns the stored result
func (rh *ResultHandler) Read() (Result, error) {
	data, err := os.ReadFile(rh.resultFile)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("invalid result format: %w", err)
	}

	return result, nil
}

// Cleanup removes the result file if it exists
func (rh *ResultHandler) Cleanup() error {
	err := os.Remove(rh.resultFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	log.Debugf("delete upgrade result file: %s", rh.resultFile)
	return nil
}
