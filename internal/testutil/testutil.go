// Package testutil starts the throwaway containers used by the history
// store integration tests. Each container is started once per test binary.
package testutil

import "testing"

// requireContainers skips t when containers are not wanted (-short) or
// could not be started.
func requireContainers(t *testing.T, startErr error) {
	t.Helper()
	if startErr != nil {
		t.Skipf("container unavailable: %v", startErr)
	}
}

// SkipIfShort skips integration tests under -short.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
}
