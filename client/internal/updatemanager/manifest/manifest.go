package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/downloader"
	"github.com/netbirdio/autoupdate/util"
)

// maxManifestBytes caps a manifest fetched over HTTP
const maxManifestBytes = 4 << 20

// Candidate describes one update entry of the manifest. Optional match fields are
// pointers: a nil field matches every platform, a set field has to match exactly.
type Candidate struct {
	OS             string  `json:"os"`
	OSName         *string `json:"osName,omitempty"`
	OSVersion      *string `json:"osVersion,omitempty"`
	Arch           *string `json:"arch,omitempty"`
	Version        string  `json:"version"`
	MinimumVersion *string `json:"minimumVersion,omitempty"`
	// Rollout is the fraction of installations admitted; 0 disables the gate
	Rollout float64 `json:"rollout"`
	URL     string  `json:"url"`
	Hash    string  `json:"hash"`
	Size    int64   `json:"size"`
	Name    string  `json:"name"`
}

// Manifest is the update section of the bootstrap document
type Manifest struct {
	Updates []Candidate `json:"updates"`
}

func (c *Candidate) validate() error {
	var missing []string
	if c.Version == "" {
		missing = append(missing, "version")
	}
	if c.URL == "" {
		missing = append(missing, "url")
	}
	if c.Hash == "" {
		missing = append(missing, "hash")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if c.Rollout < 0 || c.Rollout > 1 {
		return fmt.Errorf("rollout %v out of range [0,1]", c.Rollout)
	}
	return nil
}

// Load reads a manifest from a local file
func Load(path string) (*Manifest, error) {
	m := &Manifest{}
	if _, err := util.ReadJson(path, m); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m.dropInvalid()
	return m, nil
}

// Fetch downloads a manifest over HTTP
func Fetch(ctx context.Context, d *downloader.Downloader, url string) (*Manifest, error) {
	data, err := d.DownloadToMemory(ctx, url, maxManifestBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest %s: %w", url, err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", url, err)
	}
	m.dropInvalid()
	return m, nil
}

// Open loads the manifest from an http(s) URL or a file path
func Open(ctx context.Context, d *downloader.Downloader, location string) (*Manifest, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return Fetch(ctx, d, location)
	}
	return Load(location)
}

func (m *Manifest) dropInvalid() {
	valid := m.Updates[:0]
	for _, c := range m.Updates {
		if err := c.validate(); err != nil {
			log.Warnf("ignoring update %q: %v", c.Version, err)
			continue
		}
		valid = append(valid, c)
	}
	m.Updates = valid
}
