package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandRequest describes a command to run inside an environment scope.
type CommandRequest struct {
	Argv        []string
	Env         map[string]string // set inside the scope before the command runs
	PreserveEnv []string          // names exempt from restoration when the scope closes
	Stdin       string
	TimeoutSec  int // 0 means no timeout beyond the caller's context
}

// CommandResult is the outcome of a scoped command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Dir      string // the ephemeral directory the command ran in
}

// CommandRunner abstracts process execution for the scoped runner.
type CommandRunner interface {
	RunCommand(ctx context.Context, dir string, argv []string, stdin string) (stdout, stderr string, exitCode int, err error)
}

// RealCommandRunner implements CommandRunner using actual exec commands.
type RealCommandRunner struct{}

// RunCommand executes argv with dir as working directory. A non-zero exit is
// reported through exitCode, not err.
func (RealCommandRunner) RunCommand(ctx context.Context, dir string, argv []string, stdin string) (stdout, stderr string, exitCode int, err error) {
	if len(argv) < 1 {
		return "", "", 0, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // Caller-controlled input by design
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()

	exitCode = 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			return "", "", 0, err
		}
	}

	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// CommandExecutor is the interface the server layer depends on.
type CommandExecutor interface {
	Execute(ctx context.Context, req CommandRequest) (CommandResult, error)
}

// Runner executes commands inside hermetic scopes. Each Execute opens a
// fresh EnvScope, applies the request's environment, runs the command in the
// ephemeral directory, and lets the scope restore everything afterward.
type Runner struct {
	logger    *zap.Logger
	cmd       CommandRunner
	scopeOpts []Option
}

// RunnerOption defines a functional option for Runner.
type RunnerOption func(*Runner)

// WithCommandRunner sets the CommandRunner for the Runner.
func WithCommandRunner(cmd CommandRunner) RunnerOption {
	return func(r *Runner) { r.cmd = cmd }
}

// WithScopeOptions sets the options applied to every scope the Runner opens.
func WithScopeOptions(opts ...Option) RunnerOption {
	return func(r *Runner) { r.scopeOpts = opts }
}

// NewRunner creates a Runner with default implementations and optional
// overrides.
func NewRunner(logger *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: logger,
		cmd:    RealCommandRunner{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs the requested command inside a fresh environment scope.
// Execute blocks until the process-wide scope lock is free; concurrent calls
// serialize.
func (r *Runner) Execute(ctx context.Context, req CommandRequest) (CommandResult, error) {
	if len(req.Argv) == 0 {
		return CommandResult{}, fmt.Errorf("no command provided")
	}

	var result CommandResult
	err := RunContext(ctx, func(ctx context.Context, scope *EnvScope) error {
		for _, key := range req.PreserveEnv {
			scope.SetPreservedEnv(key)
		}
		for key, value := range req.Env {
			if err := scope.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}

		runCtx := ctx
		if req.TimeoutSec > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSec)*time.Second)
			defer cancel()
		}

		r.logger.Debug("executing scoped command",
			zap.Strings("argv", req.Argv),
			zap.String("dir", scope.Dir()),
			zap.Int("env_overrides", len(req.Env)))

		stdout, stderr, exitCode, err := r.cmd.RunCommand(runCtx, scope.Dir(), req.Argv, req.Stdin)
		if err != nil {
			return fmt.Errorf("execute command: %w", err)
		}

		result = CommandResult{
			Stdout:   stdout,
			Stderr:   stderr,
			ExitCode: exitCode,
			Dir:      scope.Dir(),
		}
		return nil
	}, r.scopeOpts...)
	if err != nil {
		return CommandResult{}, err
	}

	r.logger.Info("scoped command completed",
		zap.Strings("argv", req.Argv),
		zap.Int("exit_code", result.ExitCode))

	return result, nil
}
