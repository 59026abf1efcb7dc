package gate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/manifest"
	"github.com/netbirdio/autoupdate/util"
)

// ValueProvider draws the value in [0,1] compared against a candidate's rollout
type ValueProvider interface {
	Value(ctx context.Context) float64
}

// ProviderFunc adapts a function to a ValueProvider
type ProviderFunc func(ctx context.Context) float64

func (f ProviderFunc) Value(ctx context.Context) float64 {
	return f(ctx)
}

// RandomProvider returns a fresh uniform draw on every call
type RandomProvider struct{}

func (RandomProvider) Value(context.Context) float64 {
	return rand.Float64()
}

// InstallIDProvider derives a stable value from a per installation id persisted at Path,
// so one installation is consistently inside or outside a rollout.
type InstallIDProvider struct {
	Path string
	// ReadOnly never creates the id, a missing one yields a random draw
	ReadOnly bool
}

var errNoInstallID = errors.New("no install id yet")

func (p InstallIDProvider) Value(ctx context.Context) float64 {
	id, err := p.installID(ctx)
	if errors.Is(err, errNoInstallID) {
		log.Debugf("no install id at %s, using a random value", p.Path)
		return rand.Float64()
	}
	if err != nil {
		log.Warnf("failed to use install id for rollout, using a random value: %v", err)
		return rand.Float64()
	}
	return float64(id) / math.MaxInt32
}

func (p InstallIDProvider) installID(ctx context.Context) (int32, error) {
	data, err := os.ReadFile(p.Path)
	if err == nil {
		id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("parse install id %s: %w", p.Path, err)
		}
		if id < 0 {
			return 0, fmt.Errorf("install id %d in %s is negative", id, p.Path)
		}
		return int32(id), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read install id %s: %w", p.Path, err)
	}
	if p.ReadOnly {
		return 0, errNoInstallID
	}

	id := rand.Int32N(math.MaxInt32)
	if err := util.WriteBytesWithRestrictedPermission(ctx, p.Path, []byte(strconv.Itoa(int(id)))); err != nil {
		return 0, fmt.Errorf("write install id %s: %w", p.Path, err)
	}
	log.Debugf("generated install id %d", id)
	return id, nil
}

// Admit reports whether this installation falls inside the rollout of c.
// A rollout of zero or less admits everyone.
func Admit(ctx context.Context, c *manifest.Candidate, p ValueProvider) bool {
	if c.Rollout <= 0 {
		return true
	}

	draw := p.Value(ctx)
	if draw > c.Rollout {
		log.Infof("skipping update %s due to rollout", c.Version)
		return false
	}
	return true
}
