// Package executor runs generated scripts through the host interpreter and
// turns their output into values or categorized errors.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/script"
)

// Defaults for Config.
const (
	DefaultInterpreter    = "osascript"
	DefaultMaxDirectSize  = 523_000
	DefaultMaxBridgeSize  = 261_000
	DefaultTimeout        = 30 * time.Second
	DefaultLongTimeout    = 120 * time.Second
	DefaultKillGrace      = 2 * time.Second
	maxStderrInError      = 2000
	maxOutputInErrDetails = 200
)

// State is the lifecycle position of one invocation.
type State int

const (
	StateIdle State = iota
	StateSizing
	StateSpawned
	StateCollecting
	StateParsed
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{"idle", "sizing", "spawned", "collecting", "parsed", "succeeded", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Config tunes the executor.
type Config struct {
	Interpreter    string
	Args           []string
	MaxDirectSize  int
	MaxBridgeSize  int
	DefaultTimeout time.Duration
	LongTimeout    time.Duration
	KillGrace      time.Duration
}

// DefaultConfig returns the osascript configuration.
func DefaultConfig() Config {
	return Config{
		Interpreter:    DefaultInterpreter,
		Args:           []string{"-l", "JavaScript"},
		MaxDirectSize:  DefaultMaxDirectSize,
		MaxBridgeSize:  DefaultMaxBridgeSize,
		DefaultTimeout: DefaultTimeout,
		LongTimeout:    DefaultLongTimeout,
		KillGrace:      DefaultKillGrace,
	}
}

// MaxSize is the source size ceiling for a strategy.
func (c Config) MaxSize(s script.Strategy) int {
	if s == script.Bridge {
		return c.MaxBridgeSize
	}
	return c.MaxDirectSize
}

// TimeoutFor picks the timeout for a script.
func (c Config) TimeoutFor(s script.Script) time.Duration {
	if s.Bulk || s.Mutates {
		return c.LongTimeout
	}
	return c.DefaultTimeout
}

// Runner spawns the interpreter with source on stdin and collects its output.
type Runner interface {
	Run(ctx context.Context, source string) (stdout, stderr []byte, err error)
}

// Result is the outcome of one invocation.
type Result struct {
	Script   string
	Strategy script.Strategy
	State    State
	Value    any
	Raw      string
	Stderr   string
	Duration time.Duration
}

// Executor runs scripts. Reads may run concurrently; mutating scripts are
// serialized.
type Executor struct {
	mu      sync.RWMutex
	cfg     Config
	runner  Runner
	writeMu sync.Mutex
	logger  *slog.Logger
}

// New creates an Executor. A nil runner uses the process runner built from cfg.
func New(cfg Config, runner Runner, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{cfg: fillDefaults(cfg), logger: logger}
	if runner == nil {
		runner = e.processRunner()
	}
	e.runner = runner
	return e
}

func fillDefaults(c Config) Config {
	d := DefaultConfig()
	if c.Interpreter == "" {
		c.Interpreter = d.Interpreter
		if c.Args == nil {
			c.Args = d.Args
		}
	}
	if c.MaxDirectSize <= 0 {
		c.MaxDirectSize = d.MaxDirectSize
	}
	if c.MaxBridgeSize <= 0 {
		c.MaxBridgeSize = d.MaxBridgeSize
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = d.DefaultTimeout
	}
	if c.LongTimeout <= 0 {
		c.LongTimeout = d.LongTimeout
	}
	if c.KillGrace <= 0 {
		c.KillGrace = d.KillGrace
	}
	return c
}

// Config returns the current configuration.
func (e *Executor) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetLimits replaces timeouts and size ceilings, e.g. after a config reload.
// Interpreter settings are fixed for the executor's lifetime.
func (e *Executor) SetLimits(c Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c = fillDefaults(c)
	e.cfg.MaxDirectSize = c.MaxDirectSize
	e.cfg.MaxBridgeSize = c.MaxBridgeSize
	e.cfg.DefaultTimeout = c.DefaultTimeout
	e.cfg.LongTimeout = c.LongTimeout
	e.cfg.KillGrace = c.KillGrace
}

// Run executes s once. Errors are *bridgeerr.Error values; the returned Result
// is non-nil either way and reports the final state.
func (e *Executor) Run(ctx context.Context, s script.Script) (*Result, error) {
	cfg := e.Config()
	res := &Result{Script: s.Name, Strategy: s.Strategy, State: StateIdle}
	log := e.logger.With("script", s.Name, "strategy", s.Strategy.String())
	start := time.Now()
	step := func(st State) {
		res.State = st
		log.Debug("script state", "state", st.String())
	}
	fail := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		step(StateFailed)
		log.Debug("script failed", "error", err, "duration", res.Duration)
		return res, err
	}

	step(StateSizing)
	if limit := cfg.MaxSize(s.Strategy); len(s.Source) > limit {
		return fail(bridgeerr.Newf(bridgeerr.ScriptTooLarge,
			"%s script is %d bytes, over the %s limit of %d", s.Name, len(s.Source), s.Strategy, limit).
			WithSuggestion("narrow the request, e.g. fewer ids per call").
			WithDetails(map[string]any{"size": len(s.Source), "limit": limit}))
	}

	if s.Mutates {
		e.writeMu.Lock()
		defer e.writeMu.Unlock()
	}
	timeout := cfg.TimeoutFor(s)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	step(StateSpawned)
	stdout, stderr, err := e.runner.Run(runCtx, s.Source)
	step(StateCollecting)
	res.Stderr = string(stderr)
	res.Raw = string(stdout)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fail(bridgeerr.Newf(bridgeerr.ExecutionTimeout, "%s timed out after %s", s.Name, timeout).
				WithSuggestion("make sure the application is running and not showing a dialog").
				WithDetails(map[string]any{"timeout": timeout.String()}))
		}
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		return fail(classifyRunError(s.Name, err, stderr))
	}

	v, err := Parse(res.Raw)
	step(StateParsed)
	if err != nil {
		return fail(err)
	}
	res.Value = v
	res.Duration = time.Since(start)
	step(StateSucceeded)
	log.Debug("script done", "duration", res.Duration, "bytes", len(stdout))
	return res, nil
}

func classifyRunError(name string, err error, stderr []byte) error {
	if be, ok := bridgeerr.As(err); ok {
		return be
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return bridgeerr.Wrap(bridgeerr.HostProcessError, err,
			fmt.Sprintf("%s failed with exit code %d", name, exitErr.ExitCode())).
			WithStderr(truncate(strings.TrimSpace(string(stderr)), maxStderrInError))
	}
	var pathErr *fs.PathError
	if errors.Is(err, exec.ErrNotFound) || errors.As(err, &pathErr) {
		return bridgeerr.Wrap(bridgeerr.SpawnFailed, err, "cannot start script interpreter").
			WithSuggestion("the host interpreter is only available on macOS")
	}
	return bridgeerr.Wrap(bridgeerr.HostProcessError, err, name+" failed").
		WithStderr(truncate(strings.TrimSpace(string(stderr)), maxStderrInError))
}

// Parse interprets interpreter output: empty is nil, JSON is decoded, text
// that looks like broken JSON is an error, anything else is a bare string.
func Parse(out string) (any, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return nil, nil
	}
	var v any
	err := json.Unmarshal([]byte(trimmed), &v)
	if err == nil {
		return v, nil
	}
	if strings.ContainsAny(trimmed, "{[") {
		return nil, bridgeerr.Wrap(bridgeerr.MalformedJSONResponse, err, "host returned malformed JSON").
			WithDetails(map[string]any{"output": truncate(trimmed, maxOutputInErrDetails)})
	}
	return trimmed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// processRunner runs the configured interpreter.
func (e *Executor) processRunner() Runner {
	return RunnerFunc(func(ctx context.Context, source string) ([]byte, []byte, error) {
		cfg := e.Config()
		cmd := exec.CommandContext(ctx, cfg.Interpreter, cfg.Args...)
		cmd.Stdin = strings.NewReader(source)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		cmd.Cancel = func() error {
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		cmd.WaitDelay = cfg.KillGrace
		err := cmd.Run()
		return stdout.Bytes(), stderr.Bytes(), err
	})
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, source string) ([]byte, []byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, source string) ([]byte, []byte, error) {
	return f(ctx, source)
}
