package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeMutualExclusion(t *testing.T) {
	first, err := NewDir(
		WithFileSystem(&MockFileSystem{}),
		WithWorkdir(&MockWorkdir{current: "/home/first"}),
	)
	require.NoError(t, err)

	opened := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		second, err := NewDir(
			WithFileSystem(&MockFileSystem{}),
			WithWorkdir(&MockWorkdir{current: "/home/second"}),
		)
		close(opened)
		if err != nil {
			done <- err
			return
		}
		done <- second.Close()
	}()

	// The second scope must block while the first is open.
	select {
	case <-opened:
		t.Fatal("second scope opened while the first held the lock")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, first.Close())

	select {
	case <-opened:
	case <-time.After(5 * time.Second):
		t.Fatal("second scope never opened after the first closed")
	}
	assert.NoError(t, <-done)
}

func TestScopeLockFreedByRelease(t *testing.T) {
	first, err := NewDir(
		WithFileSystem(&MockFileSystem{}),
		WithWorkdir(&MockWorkdir{current: "/home/first"}),
	)
	require.NoError(t, err)

	// Release instead of Close must unblock the next scope just the same.
	first.Release()

	second, err := NewDir(
		WithFileSystem(&MockFileSystem{}),
		WithWorkdir(&MockWorkdir{current: "/home/second"}),
	)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestLockTokenReleaseIdempotent(t *testing.T) {
	token := acquireScopeLock()
	token.Release()
	token.Release()

	// The lock must be acquirable again after the double release.
	again := acquireScopeLock()
	again.Release()
}
