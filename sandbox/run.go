package sandbox

import (
	"context"

	"go.uber.org/multierr"
)

// Run opens an environment scope, invokes fn with it, and always closes the
// scope afterward. The callback's error and the close error are combined:
// callers see the callback failure first with any close failure appended,
// so a failing close never masks the original failure.
func Run(fn func(*EnvScope) error, opts ...Option) error {
	scope, err := New(opts...)
	if err != nil {
		return err
	}
	defer scope.Release()

	return multierr.Append(fn(scope), scope.Close())
}

// RunDir is Run for a bare working-directory scope, without environment
// restoration.
func RunDir(fn func(*DirScope) error, opts ...Option) error {
	scope, err := NewDir(opts...)
	if err != nil {
		return err
	}
	defer scope.Release()

	return multierr.Append(fn(scope), scope.Close())
}

// RunContext is Run for context-aware callbacks. The scope lock is held
// across the entire callback, including any blocking inside it, so scoped
// operations serialize process-wide. The context is passed through to the
// callback only: lock acquisition itself is not cancellable.
func RunContext(ctx context.Context, fn func(context.Context, *EnvScope) error, opts ...Option) error {
	return Run(func(scope *EnvScope) error {
		return fn(ctx, scope)
	}, opts...)
}

// RunDirContext is RunDir for context-aware callbacks.
func RunDirContext(ctx context.Context, fn func(context.Context, *DirScope) error, opts ...Option) error {
	return RunDir(func(scope *DirScope) error {
		return fn(ctx, scope)
	}, opts...)
}
