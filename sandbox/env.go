package sandbox

import (
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// EnvScope is a DirScope that additionally snapshots the process environment
// table at construction and restores it when the scope ends. Variable names
// marked preserved are exempt from restoration and keep whatever value they
// hold at close time.
type EnvScope struct {
	inner  *DirScope
	env    EnvStore
	logger *zap.Logger

	original  map[string]string
	preserved map[string]struct{}
	restored  bool
}

// New opens an environment scope. The scope lock is acquired first and the
// environment table snapshotted under it, so the snapshot can never contain
// another scope's transient mutations. A failure opening the inner
// working-directory scope is returned unchanged and leaves no side effects.
func New(opts ...Option) (*EnvScope, error) {
	o := newScopeOptions(opts)
	token := acquireScopeLock()
	original := o.env.Environ()

	inner, err := newDir(o, token)
	if err != nil {
		return nil, err
	}

	return &EnvScope{
		inner:     inner,
		env:       o.env,
		logger:    o.logger,
		original:  original,
		preserved: make(map[string]struct{}),
	}, nil
}

// Dir returns the canonical path of the ephemeral directory.
func (s *EnvScope) Dir() string { return s.inner.Dir() }

// OriginalDir returns the working directory recorded at construction.
func (s *EnvScope) OriginalDir() string { return s.inner.OriginalDir() }

// SetPreservedEnv exempts key from restoration. It does not change the
// variable's current value; set that through Setenv (or os.Setenv)
// separately.
func (s *EnvScope) SetPreservedEnv(key string) {
	s.preserved[key] = struct{}{}
}

// RemovePreservedEnv removes key's exemption. The variable's current value
// is untouched.
func (s *EnvScope) RemovePreservedEnv(key string) {
	delete(s.preserved, key)
}

// OriginalEnvVars returns a copy of the environment snapshot taken at
// construction.
func (s *EnvScope) OriginalEnvVars() map[string]string {
	vars := make(map[string]string, len(s.original))
	for key, value := range s.original {
		vars[key] = value
	}
	return vars
}

// PreservedEnvVars returns the currently preserved variable names, sorted.
func (s *EnvScope) PreservedEnvVars() []string {
	keys := make([]string, 0, len(s.preserved))
	for key := range s.preserved {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Setenv sets an environment variable through the scope's store. Convenience
// for callers that injected a non-default EnvStore; equivalent to os.Setenv
// otherwise.
func (s *EnvScope) Setenv(key, value string) error {
	return s.env.Setenv(key, value)
}

// Unsetenv removes an environment variable through the scope's store.
func (s *EnvScope) Unsetenv(key string) error {
	return s.env.Unsetenv(key)
}

// restore resets the environment table to the snapshot, in two phases whose
// order matters: first every currently set non-preserved variable is
// removed, then every non-preserved snapshot variable is set. Preserved
// names are untouched by both phases. Failures from either phase are
// accumulated; both phases always run to completion.
func (s *EnvScope) restore() error {
	var err error
	for key := range s.env.Environ() {
		if _, ok := s.preserved[key]; ok {
			continue
		}
		err = multierr.Append(err, s.env.Unsetenv(key))
	}
	for key, value := range s.original {
		if _, ok := s.preserved[key]; ok {
			continue
		}
		err = multierr.Append(err, s.env.Setenv(key, value))
	}
	return err
}

// Close restores the environment table to the snapshot and then closes the
// inner directory scope. Errors from both steps are combined. The restore
// runs at most once per scope, even when the inner close fails and Close is
// retried.
func (s *EnvScope) Close() error {
	var err error
	if !s.restored {
		s.restored = true
		err = s.restore()
		s.logger.Debug("environment restored",
			zap.Int("snapshot_size", len(s.original)),
			zap.Int("preserved", len(s.preserved)))
	}
	return multierr.Append(err, s.inner.Close())
}

// Release is the best-effort teardown for defer. It runs the restore if it
// has not run yet, ignoring failures, then releases the inner scope. A no-op
// after a successful Close.
func (s *EnvScope) Release() {
	if !s.restored {
		s.restored = true
		_ = s.restore()
	}
	s.inner.Release()
}
