package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileSystem abstracts ephemeral-directory provisioning.
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations.
type RealFileSystem struct{}

// MkdirTemp creates a uniquely named directory and returns its canonical
// path. Symlinks in the temp root are resolved so that Getwd inside the
// directory reports the same path (macOS mounts /tmp behind /private).
func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	path, err := os.MkdirTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path, nil
	}
	return resolved, nil
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Workdir abstracts the process working-directory primitive.
type Workdir interface {
	Getwd() (string, error)
	Chdir(dir string) error
}

// RealWorkdir implements Workdir against the real process state.
type RealWorkdir struct{}

func (RealWorkdir) Getwd() (string, error) { return os.Getwd() }

func (RealWorkdir) Chdir(dir string) error { return os.Chdir(dir) }

// EnvStore abstracts the process environment-variable table.
type EnvStore interface {
	Environ() map[string]string
	Getenv(key string) (string, bool)
	Setenv(key, value string) error
	Unsetenv(key string) error
}

// RealEnvStore implements EnvStore against the real process environment.
type RealEnvStore struct{}

func (RealEnvStore) Environ() map[string]string {
	entries := os.Environ()
	vars := make(map[string]string, len(entries))
	for _, entry := range entries {
		if i := strings.IndexByte(entry, '='); i >= 0 {
			vars[entry[:i]] = entry[i+1:]
		}
	}
	return vars
}

func (RealEnvStore) Getenv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (RealEnvStore) Setenv(key, value string) error {
	return os.Setenv(key, value)
}

func (RealEnvStore) Unsetenv(key string) error {
	return os.Unsetenv(key)
}

// DefaultDirPattern names ephemeral directories created by a scope.
const DefaultDirPattern = "envbox-*"

type scopeOptions struct {
	fs       FileSystem
	wd       Workdir
	env      EnvStore
	logger   *zap.Logger
	tempRoot string
	pattern  string
}

// Option configures a scope at construction time.
type Option func(*scopeOptions)

// WithFileSystem sets the FileSystem collaborator.
func WithFileSystem(fs FileSystem) Option {
	return func(o *scopeOptions) { o.fs = fs }
}

// WithWorkdir sets the Workdir collaborator.
func WithWorkdir(wd Workdir) Option {
	return func(o *scopeOptions) { o.wd = wd }
}

// WithEnvStore sets the EnvStore collaborator.
func WithEnvStore(env EnvStore) Option {
	return func(o *scopeOptions) { o.env = env }
}

// WithLogger sets the logger used for scope lifecycle events. Defaults to a
// no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *scopeOptions) { o.logger = logger }
}

// WithTempRoot sets the parent directory for ephemeral directories. An empty
// root selects the system default.
func WithTempRoot(dir string) Option {
	return func(o *scopeOptions) { o.tempRoot = dir }
}

// WithDirPattern sets the naming pattern for ephemeral directories.
func WithDirPattern(pattern string) Option {
	return func(o *scopeOptions) { o.pattern = pattern }
}

func newScopeOptions(opts []Option) *scopeOptions {
	o := &scopeOptions{
		fs:      RealFileSystem{},
		wd:      RealWorkdir{},
		env:     RealEnvStore{},
		logger:  zap.NewNop(),
		pattern: DefaultDirPattern,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
