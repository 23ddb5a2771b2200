// Package sandbox provides hermetic working-directory and environment scopes.
//
// A scope swaps the process working directory into a fresh ephemeral
// directory (DirScope) and, for EnvScope, additionally snapshots the process
// environment table so both can be restored when the scope ends. Scopes are
// serialized by a single process-wide lock: at most one scope is open at a
// time, and a second New blocks until the first scope closes or is released.
//
// Scopes follow a close-or-release discipline. Close restores state and
// surfaces errors; Release is the best-effort teardown intended for defer and
// never fails. A released or closed scope performs no further cleanup.
//
// Usage:
//
//	scope, err := sandbox.New()
//	if err != nil {
//	    return err
//	}
//	defer scope.Release()
//	// ... mutate the working directory and environment freely ...
//	return scope.Close()
//
// Known hazard: restoring the environment table is a process-wide side
// effect. Goroutines reading environment variables outside this package's
// lock discipline can observe transient values while a restore is in
// progress. The scope lock serializes scopes against each other, not against
// unrelated readers.
//
// Calling New from a goroutine that already holds an open scope deadlocks.
// There is no recursion detection and no acquisition timeout.
package sandbox
