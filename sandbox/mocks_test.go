package sandbox

import (
	"context"
	"fmt"
	"sync"
)

// MockFileSystem implements FileSystem for testing
type MockFileSystem struct {
	mkdirTempResult string
	mkdirTempErr    error
	removeAllErr    error

	mkdirTempCalls int
	removeAllCalls int
	removedPaths   []string
}

func (m *MockFileSystem) MkdirTemp(_, _ string) (string, error) {
	m.mkdirTempCalls++
	if m.mkdirTempErr != nil {
		return "", m.mkdirTempErr
	}
	if m.mkdirTempResult != "" {
		return m.mkdirTempResult, nil
	}
	return fmt.Sprintf("/tmp/envbox-mock-%d", m.mkdirTempCalls), nil
}

func (m *MockFileSystem) RemoveAll(path string) error {
	m.removeAllCalls++
	m.removedPaths = append(m.removedPaths, path)
	return m.removeAllErr
}

// MockWorkdir implements Workdir for testing
type MockWorkdir struct {
	current    string
	getwdErr   error
	chdirErrOn map[string]error

	chdirCalls []string
}

func (m *MockWorkdir) Getwd() (string, error) {
	if m.getwdErr != nil {
		return "", m.getwdErr
	}
	return m.current, nil
}

func (m *MockWorkdir) Chdir(dir string) error {
	m.chdirCalls = append(m.chdirCalls, dir)
	if err, exists := m.chdirErrOn[dir]; exists {
		return err
	}
	m.current = dir
	return nil
}

// MockEnvStore implements EnvStore for testing. Safe for use from the mutual
// exclusion tests, which touch it from two goroutines.
type MockEnvStore struct {
	mu        sync.Mutex
	vars      map[string]string
	setenvErr map[string]error
}

func NewMockEnvStore(vars map[string]string) *MockEnvStore {
	copied := make(map[string]string, len(vars))
	for key, value := range vars {
		copied[key] = value
	}
	return &MockEnvStore{vars: copied}
}

func (m *MockEnvStore) Environ() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	vars := make(map[string]string, len(m.vars))
	for key, value := range m.vars {
		vars[key] = value
	}
	return vars
}

func (m *MockEnvStore) Getenv(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.vars[key]
	return value, ok
}

func (m *MockEnvStore) Setenv(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, exists := m.setenvErr[key]; exists {
		return err
	}
	m.vars[key] = value
	return nil
}

func (m *MockEnvStore) Unsetenv(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vars, key)
	return nil
}

// MockCommandRunner implements CommandRunner for testing
type MockCommandRunner struct {
	stdout   string
	stderr   string
	exitCode int
	err      error

	calls    int
	lastDir  string
	lastArgv []string
	lastIn   string
	envSeen  map[string]string
	envStore *MockEnvStore
}

func (m *MockCommandRunner) RunCommand(_ context.Context, dir string, argv []string, stdin string) (string, string, int, error) {
	m.calls++
	m.lastDir = dir
	m.lastArgv = argv
	m.lastIn = stdin
	if m.envStore != nil {
		m.envSeen = m.envStore.Environ()
	}
	return m.stdout, m.stderr, m.exitCode, m.err
}
