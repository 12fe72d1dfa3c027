package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExit records exit codes instead of terminating the test binary and
// restores the real process wiring afterwards.
func stubExit(t *testing.T) *[]int {
	t.Helper()
	var codes []int
	origExit, origArgs := osExit, osArgs
	osExit = func(code int) { codes = append(codes, code) }
	t.Cleanup(func() {
		osExit, osArgs = origExit, origArgs
	})
	return &codes
}

// muteStderr keeps expected error and panic traces out of the test log.
func muteStderr(t *testing.T) {
	t.Helper()
	orig := os.Stderr
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	os.Stderr = devNull
	t.Cleanup(func() {
		os.Stderr = orig
		devNull.Close()
	})
}

func TestMainVersionExitsClean(t *testing.T) {
	codes := stubExit(t)
	osArgs = []string{"decoy", "--version"}

	main()

	assert.Empty(t, *codes)
}

func TestMainUnknownFlagExitsOne(t *testing.T) {
	codes := stubExit(t)
	muteStderr(t)
	osArgs = []string{"decoy", "--no-such-flag"}

	main()

	assert.Equal(t, []int{1}, *codes)
}

func TestHandlePanicExitsOne(t *testing.T) {
	codes := stubExit(t)
	muteStderr(t)

	func() {
		defer handlePanic()
		panic("boom")
	}()

	assert.Equal(t, []int{1}, *codes)
}
