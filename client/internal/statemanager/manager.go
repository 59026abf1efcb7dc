// Package statemanager persists named JSON states in a single file. States owned by other
// programs sharing the file are kept untouched.
package statemanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"

	nberrors "github.com/netbirdio/autoupdate/client/errors"
	"github.com/netbirdio/autoupdate/util"
)

const (
	errStateNotRegistered = "state %s not registered"

	persistTimeout = 5 * time.Second
)

// State is implemented by every type stored by the manager
type State interface {
	Name() string
}

// RawState wraps raw JSON data for unregistered states
type RawState struct {
	data json.RawMessage
}

func (r *RawState) Name() string {
	return ""
}

// MarshalJSON returns the JSON as it was read
func (r *RawState) MarshalJSON() ([]byte, error) {
	return r.data, nil
}

// Manager loads and persists registered states
type Manager struct {
	mu sync.Mutex

	filePath string
	// nil entries are dropped from the file on the next save
	states map[string]State
	// state names changed since the last save
	dirty      map[string]struct{}
	stateTypes map[string]reflect.Type
}

// New creates a manager backed by filePath
func New(filePath string) *Manager {
	return &Manager{
		filePath:   filePath,
		states:     make(map[string]State),
		dirty:      make(map[string]struct{}),
		stateTypes: make(map[string]reflect.Type),
	}
}

// FilePath returns the file the states are persisted to
func (m *Manager) FilePath() string {
	return m.filePath
}

// RegisterState registers the type of state. Pass a pointer to a zero value.
func (m *Manager) RegisterState(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := state.Name()
	if _, ok := m.states[name]; !ok {
		m.states[name] = nil
	}
	m.stateTypes[name] = reflect.TypeOf(state).Elem()
}

// GetState returns the loaded or updated state with the name of state, nil if there is none
func (m *Manager) GetState(state State) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.states[state.Name()]
}

// UpdateState replaces the state and marks it for the next save
func (m *Manager) UpdateState(state State) error {
	return m.setState(state.Name(), state)
}

// DeleteState removes the state and marks it for the next save
func (m *Manager) DeleteState(state State) error {
	return m.setState(state.Name(), nil)
}

func (m *Manager) setState(name string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stateTypes[name]; !ok {
		return fmt.Errorf(errStateNotRegistered, name)
	}

	m.states[name] = state
	m.dirty[name] = struct{}{}

	return nil
}

// LoadAll reads the state file. Registered states are decoded into their types, all others
// are preserved as raw JSON. A file that is not valid JSON is moved aside.
func (m *Manager) LoadAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rawStates, err := m.loadStateFile()
	if err != nil {
		return err
	}

	var merr *multierror.Error
	for name, raw := range rawStates {
		if _, registered := m.stateTypes[name]; !registered {
			m.states[name] = &RawState{data: raw}
			continue
		}

		state, err := m.loadSingleRawState(name, raw)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		m.states[name] = state
		if state != nil {
			log.Debugf("loaded state: %s", name)
		}
	}

	return nberrors.FormatErrorOrNil(merr)
}

// PersistState writes all states if any changed since the last save
func (m *Manager) PersistState(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.dirty) == 0 {
		return nil
	}

	out := make(map[string]State, len(m.states))
	for name, state := range m.states {
		if state != nil {
			out[name] = state
		}
	}

	bs, err := marshalWithPanicRecovery(out)
	if err != nil {
		return fmt.Errorf("marshal states: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	done := make(chan error, 1)
	start := time.Now()
	go func() {
		done <- util.WriteBytesWithRestrictedPermission(ctx, m.filePath, bs)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
	}

	log.Debugf("persisted states: %v, took %v", maps.Keys(m.dirty), time.Since(start))

	clear(m.dirty)

	return nil
}

func (m *Manager) loadStateFile() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debugf("state file %s does not exist", m.filePath)
			return nil, nil // nolint:nilnil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var rawStates map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawStates); err != nil {
		m.handleCorruptedState()
		return nil, fmt.Errorf("unmarshal states: %w", err)
	}

	return rawStates, nil
}

func (m *Manager) handleCorruptedState() {
	log.Warn("State file appears to be corrupted, attempting to back it up")

	backupPath := fmt.Sprintf("%s.corrupted.%d", m.filePath, time.Now().UnixNano())
	if err := os.Rename(m.filePath, backupPath); err != nil {
		log.Errorf("Failed to backup corrupted state file: %v", err)
		return
	}

	log.Infof("Created backup of corrupted state file at: %s", backupPath)
}

func (m *Manager) loadSingleRawState(name string, rawState json.RawMessage) (State, error) {
	stateType := m.stateTypes[name]

	if string(rawState) == "null" {
		return nil, nil //nolint:nilnil
	}

	statePtr := reflect.New(stateType).Interface().(State)
	if err := json.Unmarshal(rawState, statePtr); err != nil {
		return nil, fmt.Errorf("unmarshal state %s: %w", name, err)
	}

	return statePtr, nil
}

func marshalWithPanicRecovery(v any) ([]byte, error) {
	var bs []byte
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic during marshal: %v", r)
			}
		}()
		bs, err = json.Marshal(v)
	}()

	return bs, err
}
