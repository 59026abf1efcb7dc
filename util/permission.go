//go:build !windows

package util

// EnforcePermission is a no-op on unix, the parent directory is created with 0750
func EnforcePermission(string) error {
	return nil
}
