package unsquashfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"unsquash/internal/pty"
)

// Launcher starts the extraction binary and hands back a handle on the child
// plus the byte stream carrying its output. Production launchers attach the
// child to a pseudo-terminal or a plain pipe; tests inject stubs.
type Launcher interface {
	Launch(ctx context.Context, binary string, args, env []string) (Process, io.ReadCloser, error)
}

// Process is the minimal control surface the lifecycle watcher needs. It is
// owned exclusively by the watcher goroutine for the child's lifetime.
type Process interface {
	// Poll reports, without blocking, whether the child has exited and with
	// which code. A child ended by a signal reports 128 plus the signal
	// number.
	Poll() (exited bool, exitCode int, err error)
	// Terminate asks the child to stop with SIGTERM.
	Terminate() error
}

// PTYLauncher runs the child on the slave side of a pseudo-terminal so the
// tool renders its progress bar even though no real terminal is attached.
type PTYLauncher struct {
	Columns uint16
	Lines   uint16
}

// NewPTYLauncher returns a launcher with the standard 80x30 geometry.
func NewPTYLauncher() PTYLauncher {
	return PTYLauncher{Columns: defaultPTYColumns, Lines: defaultPTYLines}
}

func (l PTYLauncher) Launch(ctx context.Context, binary string, args, env []string) (Process, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	columns, lines := l.Columns, l.Lines
	if columns == 0 {
		columns = defaultPTYColumns
	}
	if lines == 0 {
		lines = defaultPTYLines
	}

	master, slavePath, err := pty.Open(columns, lines)
	if err != nil {
		return nil, nil, err
	}
	slave, err := os.OpenFile(slavePath, os.O_RDWR, 0)
	if err != nil {
		_ = master.Close()
		return nil, nil, fmt.Errorf("open pty slave: %w", err)
	}

	cmd := exec.Command(binary, args...) //nolint:gosec
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.Env = env
	// The child becomes session leader with the slave as controlling
	// terminal, mirroring a real interactive invocation.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true, Ctty: 0}

	if err := cmd.Start(); err != nil {
		_ = slave.Close()
		_ = master.Close()
		return nil, nil, err
	}
	// Only the child holds the slave from here on; once it exits, reads on
	// the master fail with EIO, which the parser treats as end-of-stream.
	_ = slave.Close()

	return &childProcess{cmd: cmd}, master, nil
}

// PipeLauncher runs the child with stdout and stderr joined onto a plain
// pipe, for tools or environments where a pseudo-terminal is unavailable.
type PipeLauncher struct{}

func (PipeLauncher) Launch(ctx context.Context, binary string, args, env []string) (Process, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("output pipe: %w", err)
	}

	cmd := exec.Command(binary, args...) //nolint:gosec
	cmd.Stdout = writer
	cmd.Stderr = writer
	cmd.Env = env

	if err := cmd.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, nil, err
	}
	_ = writer.Close()

	return &childProcess{cmd: cmd}, reader, nil
}

// childProcess wraps a started command with a non-blocking liveness check.
// Only the watcher goroutine touches it, so no locking is needed.
type childProcess struct {
	cmd    *exec.Cmd
	reaped bool
	code   int
}

func (p *childProcess) Poll() (bool, int, error) {
	if p.reaped {
		return true, p.code, nil
	}
	var status unix.WaitStatus
	for {
		pid, err := unix.Wait4(p.cmd.Process.Pid, &status, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, 0, err
		}
		if pid == 0 {
			return false, 0, nil
		}
		break
	}
	p.reaped = true
	switch {
	case status.Exited():
		p.code = status.ExitStatus()
	case status.Signaled():
		p.code = 128 + int(status.Signal())
	}
	return true, p.code, nil
}

func (p *childProcess) Terminate() error {
	return p.cmd.Process.Signal(unix.SIGTERM)
}
