package unsquashfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"unsquash/internal/logging"
	"unsquash/internal/services"
)

const (
	defaultBinary       = "unsquashfs"
	defaultPollInterval = 100 * time.Millisecond
	defaultPTYColumns   = 80
	defaultPTYLines     = 30
)

// ProgressFunc receives extraction percentages in [0,100]. It is invoked
// synchronously on the goroutine running Extract, once per change of value.
type ProgressFunc func(percent int)

// Status reports whether a child process is in flight for a Client.
type Status int

const (
	// StatusPending means no extraction is in flight.
	StatusPending Status = iota
	// StatusWorking means a child has been spawned and its final exit has not
	// been observed yet.
	StatusWorking
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusWorking:
		return "working"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// state is the block shared by every handle on the same extraction slot.
type state struct {
	mu     sync.RWMutex
	status Status
	cancel atomic.Bool
}

// begin claims the extraction slot. The transition to StatusWorking is
// published before the child is spawned so a concurrent Cancel can never
// observe StatusPending while a child is about to run.
func (s *state) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusWorking {
		return ErrBusy
	}
	s.status = StatusWorking
	return nil
}

// finish releases the extraction slot. The cancel flag is cleared inside the
// same critical section, before the status falls back to StatusPending, so a
// stale request can never carry over into a later attempt.
func (s *state) finish() {
	s.mu.Lock()
	s.cancel.Store(false)
	s.status = StatusPending
	s.mu.Unlock()
}

func (s *state) current() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Option configures the client.
type Option func(*Client)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithPollInterval overrides how often the lifecycle watcher checks the
// child. The interval bounds cancellation latency.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithLauncher injects a custom launcher (primarily for tests).
func WithLauncher(launcher Launcher) Option {
	return func(c *Client) {
		if launcher != nil {
			c.launcher = launcher
		}
	}
}

// WithLogger attaches a logger for lifecycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLookPath overrides binary resolution (primarily for tests).
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(c *Client) {
		if lookPath != nil {
			c.lookPath = lookPath
		}
	}
}

// Client supervises unsquashfs invocations. It is safe for concurrent use;
// Cancel may be called from any goroutine while another runs Extract.
type Client struct {
	binary       string
	pollInterval time.Duration
	launcher     Launcher
	lookPath     func(string) (string, error)
	logger       *slog.Logger
	state        *state
}

// New constructs a client. By default the child runs on a pseudo-terminal
// and is polled every 100ms.
func New(opts ...Option) *Client {
	client := &Client{
		binary:       defaultBinary,
		pollInterval: defaultPollInterval,
		launcher:     NewPTYLauncher(),
		lookPath:     exec.LookPath,
		logger:       logging.NewNop(),
		state:        &state{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Status reports whether an extraction is currently in flight.
func (c *Client) Status() Status {
	return c.state.current()
}

// Cancel requests termination of the extraction in flight. It returns
// ErrNotRunning when nothing is in flight. Cancellation is a request, not a
// synchronous guarantee: the child dies within roughly one poll interval.
// Repeated calls while working are idempotent.
func (c *Client) Cancel() error {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	if c.state.status != StatusWorking {
		return ErrNotRunning
	}
	c.state.cancel.Store(true)
	return nil
}

// Extract runs unsquashfs against archive, writing into dest. A threads value
// of zero omits the parallelism hint. The progress callback may be nil.
//
// The caller's goroutine consumes the child's output stream while a watcher
// goroutine polls the child's lifecycle; Extract returns only once both have
// resolved. A cancelled extraction reports ErrCancelled, a non-zero exit
// reports an *ExitError carrying the exit code and the diagnostic transcript.
func (c *Client) Extract(ctx context.Context, archive, dest string, threads int, progress ProgressFunc) error {
	if _, err := c.lookPath(c.binary); err != nil {
		return services.Wrap(ErrBinaryNotFound, "extract", "resolve binary", c.binary, nil)
	}

	archivePath, err := canonicalPath(archive)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extract", "resolve archive path", archive, err)
	}
	destPath, err := canonicalPath(dest)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extract", "resolve destination path", dest, err)
	}

	if err := c.state.begin(); err != nil {
		return err
	}

	args := buildArgs(archivePath, destPath, threads)
	process, stream, err := c.launcher.Launch(ctx, c.binary, args, childEnv())
	if err != nil {
		c.state.finish()
		return fmt.Errorf("spawn %s: %w", c.binary, err)
	}

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("unsquashfs started", slog.Any("args", args))

	done := make(chan outcome, 1)
	go func() {
		done <- watch(process, c.state, c.pollInterval, logger)
	}()

	transcript, parseErr := parseStream(stream, progress)
	_ = stream.Close()

	result := <-done

	if parseErr != nil {
		logger.Error("output stream failed", slog.Any("error", parseErr))
		return fmt.Errorf("read unsquashfs output: %w", parseErr)
	}
	if result.err != nil {
		return result.err
	}
	switch result.disposition {
	case dispositionKilled:
		logger.Debug("unsquashfs cancelled")
		return ErrCancelled
	case dispositionFailure:
		logger.Debug("unsquashfs failed", slog.Int("exit_code", result.exitCode))
		return &ExitError{Code: result.exitCode, Transcript: transcript}
	default:
		logger.Debug("unsquashfs finished")
		return nil
	}
}

// buildArgs assembles the argument vector in the exact order the tool is
// invoked with everywhere: parallelism hint, force, quiet, destination,
// archive.
func buildArgs(archive, dest string, threads int) []string {
	args := make([]string, 0, 7)
	if threads > 0 {
		args = append(args, "-p", strconv.Itoa(threads))
	}
	return append(args, "-f", "-q", "-d", dest, archive)
}

// childEnv returns the parent environment with the terminal variables pinned
// so the tool's progress-line formatting is stable regardless of the caller's
// terminal.
func childEnv() []string {
	return append(os.Environ(), "COLUMNS=", "LINES=", "TERM=xterm-256color")
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
