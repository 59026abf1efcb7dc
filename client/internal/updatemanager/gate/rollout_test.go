package gate

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/manifest"
)

func fixed(v float64) ValueProvider {
	return ProviderFunc(func(context.Context) float64 { return v })
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name    string
		rollout float64
		draw    float64
		want    bool
	}{
		{name: "no rollout admits", rollout: 0, draw: 0.99, want: true},
		{name: "draw below rollout", rollout: 0.3, draw: 0.1, want: true},
		{name: "draw equals rollout", rollout: 0.3, draw: 0.3, want: true},
		{name: "draw above rollout", rollout: 0.3, draw: 0.31},
		{name: "full rollout", rollout: 1, draw: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &manifest.Candidate{Version: "2.7.0", Rollout: tt.rollout}
			assert.Equal(t, tt.want, Admit(context.Background(), c, fixed(tt.draw)))
		})
	}
}

func TestAdmit_ZeroRolloutSkipsProvider(t *testing.T) {
	called := false
	p := ProviderFunc(func(context.Context) float64 {
		called = true
		return 1
	})

	assert.True(t, Admit(context.Background(), &manifest.Candidate{}, p))
	assert.False(t, called)
}

func TestRandomProvider(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := RandomProvider{}.Value(context.Background())
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestInstallIDProvider_PersistsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher", "install_id.txt")
	p := InstallIDProvider{Path: path}

	first := p.Value(context.Background())
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
	assert.FileExists(t, path)

	assert.Equal(t, first, p.Value(context.Background()))
}

func TestInstallIDProvider_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install_id.txt")
	p := InstallIDProvider{Path: path, ReadOnly: true}

	v := p.Value(context.Background())
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
	assert.NoFileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(1<<30)), 0o600))
	assert.InDelta(t, 0.5, p.Value(context.Background()), 1e-6)
}

func TestInstallIDProvider_ReadsExistingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install_id.txt")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(1<<30)+"\n"), 0o600))

	v := InstallIDProvider{Path: path}.Value(context.Background())
	assert.InDelta(t, 0.5, v, 1e-6)
}

func TestInstallIDProvider_InvalidIDFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install_id.txt")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	v := InstallIDProvider{Path: path}.Value(context.Background())
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))
}
