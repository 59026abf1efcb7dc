// Package gate decides whether an eligible update may be attempted right now.
package gate

import (
	"time"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/ledger"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/manifest"
)

// maxBackoffExponent caps the retry window at 512 hours
const maxBackoffExponent = 9

// Window returns the time an update has to wait after attempt n before it is retried
func Window(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > maxBackoffExponent {
		attempts = maxBackoffExponent
	}
	return time.Duration(1<<attempts) * time.Hour
}

// ShouldSkip reports whether c was already attempted within the backoff window.
// A candidate with a different hash than the last attempt is never skipped.
func ShouldSkip(c *manifest.Candidate, r ledger.Record, now time.Time) bool {
	if c == nil || c.Hash != r.LastHash {
		return false
	}

	lastAttempt := time.UnixMilli(r.LastAttemptTime)
	return lastAttempt.After(now.Add(-Window(r.AttemptNum)))
}
