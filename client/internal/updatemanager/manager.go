// Package updatemanager decides whether the launcher should update itself and drives the upgrade.
package updatemanager

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/juju/clock"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/downloader"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/gate"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/guard"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/installer"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/ledger"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/manifest"
	"github.com/netbirdio/autoupdate/client/system"
)

// Reason tells why an update run stopped where it did
type Reason int

const (
	ReasonNotInstalled Reason = iota
	ReasonNoCandidate
	ReasonUpdatesDisabled
	ReasonRelaunchedFromUpgrade
	ReasonBackingOff
	ReasonRolloutExcluded
	// ReasonAdmitted is the result of a check that would attempt the update
	ReasonAdmitted
	ReasonLedgerFailed
	ReasonAborted
	ReasonFailed
	ReasonRelaunched
)

func (r Reason) String() string {
	switch r {
	case ReasonNotInstalled:
		return "not running from an installation"
	case ReasonNoCandidate:
		return "no update available"
	case ReasonUpdatesDisabled:
		return "updates disabled"
	case ReasonRelaunchedFromUpgrade:
		return "launched from an upgrade"
	case ReasonBackingOff:
		return "backing off from a previous attempt"
	case ReasonRolloutExcluded:
		return "excluded from rollout"
	case ReasonAdmitted:
		return "update admitted"
	case ReasonLedgerFailed:
		return "failed to record the attempt"
	case ReasonAborted:
		return "upgrade aborted"
	case ReasonFailed:
		return "upgrade failed"
	case ReasonRelaunched:
		return "relaunched"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Decision is the outcome of Check or Run
type Decision struct {
	Reason    Reason
	Candidate *manifest.Candidate
	// Executable is the installed launcher path, empty when the guard rejected the process
	Executable string
	State      installer.State
	Err        error
}

// Manager runs the update check against the installed launcher
type Manager struct {
	cfg config.Config

	clock        clock.Clock
	ledger       *ledger.Ledger
	guard        guard.Guard
	executor     installer.Executor
	rollout      gate.ValueProvider
	checkRollout gate.ValueProvider
	results      *installer.ResultHandler

	platform  func(ctx context.Context) system.Platform
	lookupEnv func(key string) (string, bool)
	exit      func(code int)
}

// NewManager wires the manager for the running operating system
func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cfg:          cfg,
		clock:        clock.WallClock,
		ledger:       ledger.New(cfg.StateFile),
		guard:        guard.New(cfg),
		executor:     installer.New(cfg, downloader.New(cfg.ProductName)),
		rollout:      gate.InstallIDProvider{Path: cfg.InstallIDFile},
		checkRollout: gate.InstallIDProvider{Path: cfg.InstallIDFile, ReadOnly: true},
		results:      installer.NewResultHandler(cfg.ResultDir),
		platform:     system.CurrentPlatform,
		lookupEnv:    os.LookupEnv,
		exit:         os.Exit,
	}
}

// Ledger returns the attempt ledger the manager records to
func (m *Manager) Ledger() *ledger.Ledger {
	return m.ledger
}

// Check evaluates the update gates without recording an attempt, creating the install id
// or executing anything
func (m *Manager) Check(ctx context.Context, mf *manifest.Manifest) Decision {
	m.loadLedger()
	return m.evaluate(ctx, mf, m.checkRollout)
}

// Run performs the update check and, when every gate admits the update, upgrades the launcher.
// args are the launcher arguments handed to the relaunched process. When the upgrade was
// started the process exits with status 0 and Run does not return.
func (m *Manager) Run(ctx context.Context, mf *manifest.Manifest, args []string) Decision {
	m.loadLedger()

	d := m.evaluate(ctx, mf, m.rollout)
	switch d.Reason {
	case ReasonAdmitted:
	case ReasonRelaunchedFromUpgrade:
		m.writeResult(ctx, installer.Result{Success: true, Version: m.cfg.CurrentVersion})
		return d
	default:
		return d
	}

	// the attempt is on disk before anything is downloaded
	if _, err := m.ledger.MarkAttempt(ctx, d.Candidate.Hash, m.clock.Now()); err != nil {
		log.Errorf("skipping update %s, failed to record the attempt: %v", d.Candidate.Version, err)
		d.Reason, d.Err = ReasonLedgerFailed, err
		return d
	}

	state, err := m.executor.Execute(ctx, installer.Request{
		Candidate:  d.Candidate,
		Executable: d.Executable,
		Args:       args,
	})
	d.State, d.Err = state, err

	switch state {
	case installer.StateDone:
		log.Infof("upgrade to %s started, exiting", d.Candidate.Version)
		d.Reason = ReasonRelaunched
		m.exit(0)
	case installer.StateFatalFailed:
		log.Errorf("error performing upgrade to %s: %v", d.Candidate.Version, err)
		d.Reason = ReasonFailed
		m.writeResult(ctx, installer.Result{Version: d.Candidate.Version, Error: errorString(err)})
	default:
		log.Errorf("upgrade to %s aborted: %v", d.Candidate.Version, err)
		d.Reason = ReasonAborted
	}
	return d
}

func (m *Manager) loadLedger() {
	if err := m.ledger.Load(); err != nil {
		log.Warnf("failed to load update ledger, starting from an empty one: %v", err)
	}
}

func (m *Manager) evaluate(ctx context.Context, mf *manifest.Manifest, rollout gate.ValueProvider) Decision {
	executable, err := m.guard.Verify(ctx)
	if err != nil {
		log.Debugf("skipping update check: %v", err)
		return Decision{Reason: ReasonNotInstalled, Err: err}
	}
	log.Debug("running from installer")

	if _, ok := m.lookupEnv(m.cfg.UpgradeEnv()); ok {
		log.Info("skipping update check due to launching from an upgrade")
		return Decision{Reason: ReasonRelaunchedFromUpgrade, Executable: executable}
	}

	c := manifest.Select(mf, m.platform(ctx), m.cfg.CurrentVersion)
	if c == nil {
		return Decision{Reason: ReasonNoCandidate, Executable: executable}
	}
	d := Decision{Candidate: c, Executable: executable}

	record := m.ledger.Record()
	if record.NoUpdates {
		log.Infof("skipping update %s due to noupdate being set", c.Version)
		d.Reason = ReasonUpdatesDisabled
		return d
	}

	if gate.ShouldSkip(c, record, m.clock.Now()) {
		log.Infof("previous upgrade attempt to %s was at %s (backoff: %v), skipping",
			c.Version, time.UnixMilli(record.LastAttemptTime).Local().Format(time.TimeOnly), gate.Window(record.AttemptNum))
		d.Reason = ReasonBackingOff
		return d
	}

	if !gate.Admit(ctx, c, rollout) {
		d.Reason = ReasonRolloutExcluded
		return d
	}

	d.Reason = ReasonAdmitted
	return d
}

func (m *Manager) writeResult(ctx context.Context, r installer.Result) {
	r.ExecutedAt = m.clock.Now()
	if err := m.results.Write(ctx, r); err != nil {
		log.Warnf("failed to write upgrade result: %v", err)
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RelaunchArgs returns args, or the arguments handed over by the upgrade when the process
// was started by it without any.
func RelaunchArgs(cfg config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	params, ok := os.LookupEnv(cfg.UpgradeParamsEnv())
	if !ok || params == "" {
		return args, nil
	}

	decoded, err := installer.DecodeArgs(params)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", cfg.UpgradeParamsEnv(), err)
	}
	return decoded, nil
}
