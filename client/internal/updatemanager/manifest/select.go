package manifest

import (
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/system"
	"github.com/netbirdio/autoupdate/version"
)

// Select returns the newest candidate eligible for the platform and current version,
// or nil when there is none. On equal versions the first candidate wins.
func Select(m *Manifest, p system.Platform, currentVersion string) *Candidate {
	if m == nil || currentVersion == "" {
		return nil
	}

	var newest *Candidate
	for i := range m.Updates {
		c := &m.Updates[i]
		if !Eligible(c, p, currentVersion) {
			continue
		}
		if newest != nil && !version.IsNewer(c.Version, newest.Version) {
			continue
		}

		log.Infof("update %s is available", c.Version)
		newest = c
	}

	return newest
}

// Eligible reports whether c may replace currentVersion on platform p
func Eligible(c *Candidate, p system.Platform, currentVersion string) bool {
	return matchesOS(c, p) &&
		optionalEquals(c.OSName, p.OSName) &&
		optionalEquals(c.OSVersion, p.OSVersion) &&
		optionalEquals(c.Arch, p.Arch) &&
		version.IsNewer(c.Version, currentVersion) &&
		(c.MinimumVersion == nil || version.AtLeast(currentVersion, *c.MinimumVersion))
}

func matchesOS(c *Candidate, p system.Platform) bool {
	t := system.ParseOSType(c.OS)
	if t == system.OSOther {
		return c.OS == p.OSName
	}
	return t == p.Type
}

func optionalEquals(want *string, actual string) bool {
	return want == nil || *want == actual
}
