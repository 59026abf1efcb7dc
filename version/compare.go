package version

import (
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
)

// Compare orders two version strings. It returns -1 if a < b, 0 if they are
// equal and 1 if a > b.
// Versions go-version cannot parse sort before every version it can and are
// compared segment by segment among themselves.
func Compare(a, b string) int {
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		log.Debugf("unparsable version %q sorts before %q", b, a)
		return 1
	case errB == nil:
		log.Debugf("unparsable version %q sorts before %q", a, b)
		return -1
	}

	log.Debugf("falling back to segment comparison for versions %q and %q", a, b)
	return compareSegments(a, b)
}

// IsNewer reports whether candidate is strictly newer than current
func IsNewer(candidate, current string) bool {
	return Compare(candidate, current) > 0
}

// AtLeast reports whether current is equal to or newer than floor
func AtLeast(current, floor string) bool {
	return Compare(current, floor) >= 0
}

func compareSegments(a, b string) int {
	as := splitSegments(a)
	bs := splitSegments(b)

	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func splitSegments(v string) []string {
	return strings.FieldsFunc(strings.TrimSpace(v), func(r rune) bool {
		return r == '.' || r == '-' || r == '+' || r == '_'
	})
}

func compareSegment(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)

	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	// numeric segments sort after textual ones, so 1.0.1 > 1.0.beta
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	return strings.Compare(a, b)
}
