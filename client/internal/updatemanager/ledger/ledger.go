// Package ledger keeps the durable record of update attempts.
package ledger

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/statemanager"
)

const stateName = "update_attempt"

// Record is the last attempted update and the user's opt out
type Record struct {
	LastHash string `json:"lastUpdateHash,omitempty"`
	// LastAttemptTime is the epoch time of the last attempt in milliseconds
	LastAttemptTime int64 `json:"lastUpdateAttemptTime,omitempty"`
	AttemptNum      int   `json:"lastUpdateAttemptNum,omitempty"`
	NoUpdates       bool  `json:"noUpdates,omitempty"`
}

func (r *Record) Name() string {
	return stateName
}

// Ledger reads and writes the Record through a state file shared with other states
type Ledger struct {
	states *statemanager.Manager
}

// New creates a ledger stored at path
func New(path string) *Ledger {
	states := statemanager.New(path)
	states.RegisterState(&Record{})
	return &Ledger{states: states}
}

// Load reads the state file. A missing file is an empty record.
func (l *Ledger) Load() error {
	if err := l.states.LoadAll(); err != nil {
		return fmt.Errorf("load update ledger: %w", err)
	}
	return nil
}

// Record returns a copy of the current record
func (l *Ledger) Record() Record {
	r, ok := l.states.GetState(&Record{}).(*Record)
	if !ok || r == nil {
		return Record{}
	}
	return *r
}

// MarkAttempt records an attempt of the update with hash at now and persists it.
// The record is on disk before this returns, so a crash during the update still counts.
func (l *Ledger) MarkAttempt(ctx context.Context, hash string, now time.Time) (Record, error) {
	r := l.Record()
	r.LastHash = hash
	r.LastAttemptTime = now.UnixMilli()
	r.AttemptNum++

	if err := l.save(ctx, r); err != nil {
		return Record{}, err
	}

	log.Debugf("recorded update attempt %d for %s", r.AttemptNum, hash)
	return r, nil
}

// SetNoUpdates stores the user's opt out of automatic updates
func (l *Ledger) SetNoUpdates(ctx context.Context, disabled bool) error {
	r := l.Record()
	r.NoUpdates = disabled
	return l.save(ctx, r)
}

// Reset clears the attempt history, keeping the opt out
func (l *Ledger) Reset(ctx context.Context) error {
	r := Record{NoUpdates: l.Record().NoUpdates}
	return l.save(ctx, r)
}

func (l *Ledger) save(ctx context.Context, r Record) error {
	if err := l.states.UpdateState(&r); err != nil {
		return fmt.Errorf("update ledger state: %w", err)
	}
	if err := l.states.PersistState(ctx); err != nil {
		return fmt.Errorf("persist ledger to %s: %w", l.states.FilePath(), err)
	}
	return nil
}
