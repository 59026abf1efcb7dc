package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{name: "equal", a: "2.6.5", b: "2.6.5", expected: 0},
		{name: "patch newer", a: "2.7.0", b: "2.6.5", expected: 1},
		{name: "patch older", a: "2.4.0", b: "2.5.0", expected: -1},
		{name: "numeric not lexical", a: "2.10.0", b: "2.9.9", expected: 1},
		{name: "missing segment is zero", a: "2.7", b: "2.7.0", expected: 0},
		{name: "prerelease is older", a: "2.7.0-rc1", b: "2.7.0", expected: -1},
		{name: "unparsable sorts before parsable", a: "2.7.x", b: "2.7.1", expected: -1},
		{name: "unparsable sorts before older parsable", a: "2.7.x", b: "2.6.0", expected: -1},
		{name: "unparsable compared by segments", a: "2.7.x", b: "2.8.x", expected: -1},
		{name: "unparsable equal", a: "build.x", b: "build.x", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.expected, Compare(tt.b, tt.a), "comparison must be antisymmetric")
		})
	}
}

func TestCompare_MixedInputsAreTransitive(t *testing.T) {
	versions := []string{"2.7.0-beta", "2.7.0", "2.6.5", "2.7.x", "2.10.x", "build.x", "3.0.0"}

	for _, a := range versions {
		for _, b := range versions {
			for _, c := range versions {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0, "%s <= %s <= %s", a, b, c)
				}
			}
		}
	}
}

func TestIsNewerAndAtLeast(t *testing.T) {
	assert.True(t, IsNewer("2.7.0", "2.6.5"))
	assert.False(t, IsNewer("2.6.5", "2.6.5"))
	assert.True(t, AtLeast("2.6.5", "2.5.0"))
	assert.True(t, AtLeast("2.5.0", "2.5.0"))
	assert.False(t, AtLeast("2.4.0", "2.5.0"))
}
