package sandbox

import (
	"fmt"

	"go.uber.org/zap"
)

// DirScope is an open working-directory scope. The process working directory
// points into a fresh ephemeral directory until the scope is closed or
// released; the directory recorded at construction is then restored and the
// ephemeral directory deleted.
//
// A DirScope holds the process-wide scope lock for its entire lifetime.
type DirScope struct {
	fs     FileSystem
	wd     Workdir
	logger *zap.Logger

	// dir is empty once the ephemeral directory has been consumed by a
	// deletion attempt, preventing double deletion.
	dir      string
	original string
	token    *lockToken
	closed   bool
}

// NewDir opens a working-directory scope. It blocks until the scope lock is
// free, creates the ephemeral directory, records the current working
// directory, and changes into the new directory. On any failure the partial
// side effects are rolled back: the ephemeral directory is deleted and the
// lock released before the error is returned.
func NewDir(opts ...Option) (*DirScope, error) {
	return newDir(newScopeOptions(opts), acquireScopeLock())
}

// newDir builds the scope around an already-acquired lock token. Every
// failure path releases the token before returning.
func newDir(o *scopeOptions, token *lockToken) (*DirScope, error) {
	dir, err := o.fs.MkdirTemp(o.tempRoot, o.pattern)
	if err != nil {
		token.Release()
		return nil, &TempDirError{Err: err}
	}

	original, err := o.wd.Getwd()
	if err != nil {
		_ = o.fs.RemoveAll(dir)
		token.Release()
		return nil, fmt.Errorf("record working directory: %w", err)
	}

	if err := o.wd.Chdir(dir); err != nil {
		_ = o.fs.RemoveAll(dir)
		token.Release()
		return nil, &DirChangeError{Path: dir, Err: err}
	}

	o.logger.Debug("directory scope opened",
		zap.String("dir", dir),
		zap.String("original", original))

	return &DirScope{
		fs:       o.fs,
		wd:       o.wd,
		logger:   o.logger,
		dir:      dir,
		original: original,
		token:    token,
	}, nil
}

// Dir returns the canonical path of the ephemeral directory.
func (s *DirScope) Dir() string { return s.dir }

// OriginalDir returns the working directory recorded at construction.
func (s *DirScope) OriginalDir() string { return s.original }

// Close restores the original working directory, deletes the ephemeral
// directory, and releases the scope lock.
//
// If the directory change fails, the ephemeral directory is deliberately
// left on disk for inspection, the scope stays open, and the lock stays
// held; a later Release still runs the best-effort teardown. A deletion
// failure is returned after the working directory has been restored; the
// half-deleted tree is not retried. Closing an already closed scope is a
// no-op.
func (s *DirScope) Close() error {
	if s.closed {
		return nil
	}

	if err := s.wd.Chdir(s.original); err != nil {
		return &DirChangeError{Path: s.original, Err: err}
	}

	if s.dir != "" {
		dir := s.dir
		s.dir = ""
		if err := s.fs.RemoveAll(dir); err != nil {
			return &DirRemovalError{Path: dir, Err: err}
		}
	}

	s.closed = true
	s.token.Release()
	s.logger.Debug("directory scope closed", zap.String("original", s.original))
	return nil
}

// Release is the best-effort teardown for defer. It performs the same steps
// as Close, swallows every failure, and always releases the scope lock. A
// no-op after a successful Close.
func (s *DirScope) Release() {
	if !s.closed {
		_ = s.wd.Chdir(s.original)
		if s.dir != "" {
			dir := s.dir
			s.dir = ""
			_ = s.fs.RemoveAll(dir)
		}
		s.closed = true
	}
	s.token.Release()
}
