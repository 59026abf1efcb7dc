package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestEnforcePermission_RestrictsDirectoryToUser(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	file := filepath.Join(dir, "state.json")
	_, _, err := prepareConfigFileDir(file)
	require.NoError(t, err)

	require.NoError(t, EnforcePermission(file))

	sd, err := windows.GetNamedSecurityInfo(dir, windows.SE_FILE_OBJECT,
		windows.OWNER_SECURITY_INFORMATION|windows.DACL_SECURITY_INFORMATION)
	require.NoError(t, err)

	owner, _, err := sd.Owner()
	require.NoError(t, err)
	user, err := currentUserSid()
	require.NoError(t, err)
	assert.True(t, owner.Equals(user), "directory owner is the current user")

	control, _, err := sd.Control()
	require.NoError(t, err)
	assert.NotZero(t, control&windows.SE_DACL_PROTECTED, "inherited entries are dropped")
}
